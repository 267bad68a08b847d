package screens

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	closed atomic.Bool
	last   []byte
}

func (f *fakeSession) Dispatch(data []byte) error {
	if _, err := IntentType(data); err != nil {
		return err
	}
	f.last = data
	return nil
}
func (f *fakeSession) Snapshot() any                { return map[string]int{"n": 1} }
func (f *fakeSession) TakeAction() (Envelope, bool) { return Envelope{}, false }
func (f *fakeSession) PeekAction() (Envelope, bool) { return Envelope{}, false }
func (f *fakeSession) Close()                       { f.closed.Store(true) }

func newRegistry(made *[]*fakeSession) *Registry {
	factories := map[string]Factory{
		"demo": func(context.Context, []byte) (Session, error) {
			s := &fakeSession{}
			*made = append(*made, s)
			return s, nil
		},
	}
	return NewRegistry(context.Background(), factories, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryLifecycle(t *testing.T) {
	var made []*fakeSession
	r := newRegistry(&made)
	assert.Equal(t, []string{"demo"}, r.Screens())

	_, err := r.Create("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownScreen)

	id, err := r.Create("demo", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	s, err := r.Get("demo", id)
	require.NoError(t, err)
	require.NoError(t, s.Dispatch([]byte(`{"type":"ping"}`)))

	_, err = r.Get("other", id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("demo", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Close("demo", id))
	assert.True(t, made[0].closed.Load())
	assert.ErrorIs(t, r.Close("demo", id), ErrNotFound)
	assert.Zero(t, r.Len())
}

func TestRegistrySweep(t *testing.T) {
	var made []*fakeSession
	r := newRegistry(&made)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	stale, err := r.Create("demo", nil)
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	fresh, err := r.Create("demo", nil)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.True(t, made[0].closed.Load())
	assert.False(t, made[1].closed.Load())

	_, err = r.Get("demo", stale)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("demo", fresh)
	assert.NoError(t, err)

	r.CloseAll()
	assert.True(t, made[1].closed.Load())
	assert.Zero(t, r.Len())
}

func TestDecode(t *testing.T) {
	type payload struct {
		ID string `json:"id" validate:"required"`
	}
	v, err := Decode[payload]([]byte(`{"id":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, "a", v.ID)

	_, err = Decode[payload]([]byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = IntentType([]byte(`{"type":""}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
