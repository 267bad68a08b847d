package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Preferences {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Preferences{
		"memory": NewMemoryStore(),
		"sqlite": db,
	}
}

func TestPreferences(t *testing.T) {
	for name, prefs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := prefs.Get(ctx, "saved_locations")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, prefs.Set(ctx, "saved_locations", `[]`))
			v, err := prefs.Get(ctx, "saved_locations")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)

			require.NoError(t, prefs.Set(ctx, "saved_locations", `[{"id":"a"}]`))
			v, _ = prefs.Get(ctx, "saved_locations")
			assert.Equal(t, `[{"id":"a"}]`, v)

			require.NoError(t, prefs.Delete(ctx, "saved_locations", "missing"))
			_, err = prefs.Get(ctx, "saved_locations")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestEdit(t *testing.T) {
	for name, prefs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, prefs.Set(ctx, "a", "1"))
			require.NoError(t, prefs.Set(ctx, "b", "2"))

			err := prefs.Edit(ctx, []string{"a", "c"}, func(cur map[string]string) (map[string]string, error) {
				assert.Equal(t, map[string]string{"a": "1"}, cur)
				return map[string]string{"a": "", "c": "3"}, nil
			})
			require.NoError(t, err)

			_, err = prefs.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
			v, _ := prefs.Get(ctx, "b")
			assert.Equal(t, "2", v)
			v, _ = prefs.Get(ctx, "c")
			assert.Equal(t, "3", v)
		})
	}
}

func TestEditErrorLeavesValues(t *testing.T) {
	for name, prefs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, prefs.Set(ctx, "a", "1"))

			boom := errors.New("boom")
			err := prefs.Edit(ctx, []string{"a"}, func(map[string]string) (map[string]string, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			v, _ := prefs.Get(ctx, "a")
			assert.Equal(t, "1", v)
		})
	}
}
