package combinator

import (
	"context"
	"testing"
	"time"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

// countingStore counts Ls/Info calls so we can prove the cache is hit.
type countingStore struct {
	*memory.Store
	lsCalls   int
	infoCalls int
}

func (c *countingStore) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	c.lsCalls++
	return c.Store.Ls(ctx, path)
}

func (c *countingStore) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	c.infoCalls++
	return c.Store.Info(ctx, path)
}

func TestDirCacheHidesRepeatCalls(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	require.NoError(t, ufs.Put(ctx, inner, ufs.NewPath("/f.txt"), []byte("hi")))

	d := NewDirCache(inner, time.Minute)
	_, err := d.Info(ctx, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	_, err = d.Info(ctx, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, 1, inner.infoCalls)

	_, err = d.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	_, err = d.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Equal(t, 1, inner.lsCalls)
}

func TestDirCacheInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	d := NewDirCache(inner, time.Minute)

	require.NoError(t, ufs.Put(ctx, d, ufs.NewPath("/f.txt"), []byte("v1")))
	names, err := d.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Contains(t, names, "f.txt")
	require.Equal(t, 1, inner.lsCalls)

	require.NoError(t, ufs.Put(ctx, d, ufs.NewPath("/g.txt"), []byte("v2")))
	names, err = d.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Contains(t, names, "g.txt")
	require.Equal(t, 2, inner.lsCalls)
}
