package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/store"
)

func TestMalformedValuesDecodeToEmpty(t *testing.T) {
	ctx := context.Background()
	prefs := store.NewMemoryStore()
	src := NewPreferencesSource(prefs, quietLogger())

	for _, raw := range []string{"", "   ", "{oops", `{"id":"not-a-list"}`, "null"} {
		require.NoError(t, prefs.Set(ctx, savedLocationsKey, raw))
		list, err := src.SavedLocations(ctx)
		require.NoError(t, err, raw)
		assert.NotNil(t, list, raw)
		assert.Empty(t, list, raw)
	}

	for _, raw := range []string{"", "[1,2]", "garbage", "null"} {
		require.NoError(t, prefs.Set(ctx, currentLocationKey, raw))
		cur, err := src.CurrentLocation(ctx)
		require.NoError(t, err, raw)
		assert.Nil(t, cur, raw)
	}
}

func TestSaveLocationUpsertsByID(t *testing.T) {
	ctx := context.Background()
	src := NewPreferencesSource(store.NewMemoryStore(), quietLogger())

	require.NoError(t, src.SaveLocation(ctx, loc("a", 1, 1)))
	require.NoError(t, src.SaveLocation(ctx, loc("b", 2, 2)))
	updated := loc("a", 3, 3)
	updated.Name = "renamed"
	require.NoError(t, src.SaveLocation(ctx, updated))

	list, err := src.SavedLocations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "renamed", list[1].Name)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	src := NewPreferencesSource(store.NewMemoryStore(), quietLogger())
	require.NoError(t, src.SaveLocation(ctx, loc("a", 1, 1)))
	require.NoError(t, src.SetCurrentLocation(ctx, loc("here", 1, 1)))

	require.NoError(t, src.ClearAll(ctx))

	list, _ := src.SavedLocations(ctx)
	assert.Empty(t, list)
	cur, _ := src.CurrentLocation(ctx)
	assert.Nil(t, cur)
}
