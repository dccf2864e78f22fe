package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_RoundtripAndList(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "2025-01-01_09h.csv", []byte("a")))
	require.NoError(t, store.Store(ctx, "2025-01-01_10h.csv", []byte("b")))
	require.NoError(t, store.Store(ctx, "2024-12-31_23h.csv", []byte("c")))

	data, err := store.Retrieve(ctx, "2025-01-01_09h.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	names, err := store.List(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-01-01_09h.csv", "2025-01-01_10h.csv"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Delete(ctx, "2024-12-31_23h.csv"))
	_, err = store.Retrieve(ctx, "2024-12-31_23h.csv")
	assert.Error(t, err)
}
