package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLocator struct {
	last, fresh       *Coordinates
	lastErr, freshErr error
	freshCalls        int
}

func (l *scriptedLocator) LastKnown(context.Context) (*Coordinates, error) {
	return l.last, l.lastErr
}

func (l *scriptedLocator) CurrentFix(context.Context) (*Coordinates, error) {
	l.freshCalls++
	return l.fresh, l.freshErr
}

func TestResolvePrefersLastKnown(t *testing.T) {
	loc := &scriptedLocator{last: &Coordinates{1, 2}, fresh: &Coordinates{3, 4}}
	c, err := Resolve(context.Background(), loc, NewStaticPermissions(PermissionGranted, true))

	require.NoError(t, err)
	assert.Equal(t, &Coordinates{1, 2}, c)
	assert.Zero(t, loc.freshCalls)
}

func TestResolveFallsBackToFreshFix(t *testing.T) {
	loc := &scriptedLocator{lastErr: errors.New("stale"), fresh: &Coordinates{3, 4}}
	c, err := Resolve(context.Background(), loc, NewStaticPermissions(PermissionGranted, true))

	require.NoError(t, err)
	assert.Equal(t, &Coordinates{3, 4}, c)
}

func TestResolveWithoutPermissionOrServices(t *testing.T) {
	loc := &scriptedLocator{last: &Coordinates{1, 2}}

	c, err := Resolve(context.Background(), loc, NewStaticPermissions(PermissionDenied, true))
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = Resolve(context.Background(), loc, NewStaticPermissions(PermissionGranted, false))
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolveNoFix(t *testing.T) {
	c, err := Resolve(context.Background(), NewStatic(nil), nil)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestStaticSetCopies(t *testing.T) {
	s := NewStatic(nil)
	fix := &Coordinates{Latitude: 10, Longitude: 20}
	s.Set(fix)
	fix.Latitude = 99

	got, _ := s.LastKnown(context.Background())
	assert.Equal(t, 10.0, got.Latitude)

	s.Set(nil)
	got, _ = s.CurrentFix(context.Background())
	assert.Nil(t, got)
}
