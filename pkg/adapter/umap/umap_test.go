package umap

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestUMapStringRoundtrip(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New(), ufs.Root)

	require.NoError(t, m.Set(ctx, "greeting", "hello"))
	v, err := m.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", v)
	require.True(t, m.Contains(ctx, "greeting"))
}

func TestUMapNestedMap(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New(), ufs.Root)

	require.NoError(t, m.Set(ctx, "nested", map[string]interface{}{
		"a": "1",
		"b": "2",
	}))

	v, err := m.Get(ctx, "nested")
	require.NoError(t, err)
	sub, ok := v.(UMap)
	require.True(t, ok)

	a, err := sub.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "1", a)

	n, err := sub.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestUMapKeyEscaping(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New(), ufs.Root)

	require.NoError(t, m.Set(ctx, "a/b", "slash key"))
	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	require.Contains(t, keys, "a/b")

	v, err := m.Get(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, "slash key", v)
}

func TestUMapDeleteAndOverwrite(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New(), ufs.Root)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	require.NoError(t, m.Set(ctx, "k", "v2"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v2", v)

	require.NoError(t, m.Delete(ctx, "k"))
	require.False(t, m.Contains(ctx, "k"))
}
