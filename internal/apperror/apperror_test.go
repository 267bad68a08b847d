package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorInterpolatesParams(t *testing.T) {
	err := New(KindLocationMaxExceeded, 5)
	assert.Equal(t, "you can save at most 5 locations", err.Error())
	assert.Equal(t, []any{5}, err.Params)
}

func TestExplicitMessageWins(t *testing.T) {
	err := New(KindWeatherLoadFailed).WithMessage("city not found").WithCode(404)
	assert.Equal(t, "city not found", err.Error())
	require.NotNil(t, err.Code)
	assert.Equal(t, 404, *err.Code)
}

func TestFromKeepsExistingAppError(t *testing.T) {
	inner := New(KindLocationAlreadyExists)
	wrapped := fmt.Errorf("saving: %w", inner)

	got := From(wrapped)
	assert.Same(t, inner, got)
	assert.Equal(t, KindLocationAlreadyExists, KindOf(wrapped))
}

func TestFromWrapsPlainError(t *testing.T) {
	cause := errors.New("boom")
	got := From(cause)

	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, "boom", got.Message)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, From(nil))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Wrap(KindNetwork, errors.New("dial tcp")))
	assert.ErrorIs(t, err, New(KindNetwork))
	assert.NotErrorIs(t, err, New(KindUnknown))
}
