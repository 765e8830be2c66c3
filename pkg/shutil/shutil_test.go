package shutil

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func setupTree(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Mkdir(ctx, ufs.NewPath("/a")))
	require.NoError(t, s.Mkdir(ctx, ufs.NewPath("/a/b")))
	require.NoError(t, ufs.Put(ctx, s, ufs.NewPath("/a/f1.txt"), []byte("one")))
	require.NoError(t, ufs.Put(ctx, s, ufs.NewPath("/a/b/f2.txt"), []byte("two")))
}

func TestWalkDirFirstOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	setupTree(t, s)

	entries, err := Walk(ctx, s, ufs.NewPath("/a"), true)
	require.NoError(t, err)
	require.True(t, entries[0].Stat.IsDir())
	require.Equal(t, ufs.NewPath("/a"), entries[0].Path)

	var files []string
	for _, e := range entries {
		if !e.Stat.IsDir() {
			files = append(files, e.Path.String())
		}
	}
	require.ElementsMatch(t, []string{"/a/f1.txt", "/a/b/f2.txt"}, files)
}

func TestWalkDirLastOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	setupTree(t, s)

	entries, err := Walk(ctx, s, ufs.NewPath("/a"), false)
	require.NoError(t, err)
	require.Equal(t, ufs.NewPath("/a"), entries[len(entries)-1].Path)
}

func TestCopyTreeAndRmtree(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	dst := memory.New()
	setupTree(t, src)

	require.NoError(t, CopyTree(ctx, src, ufs.NewPath("/a"), dst, ufs.NewPath("/copy"), false))

	data, err := ufs.Cat(ctx, dst, ufs.NewPath("/copy/b/f2.txt"))
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	require.NoError(t, Rmtree(ctx, src, ufs.NewPath("/a")))
	_, err = src.Info(ctx, ufs.NewPath("/a"))
	require.Error(t, err)
}

func TestCopyIntoDirectoryVsAsName(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, ufs.Put(ctx, s, ufs.NewPath("/src.txt"), []byte("hi")))
	require.NoError(t, s.Mkdir(ctx, ufs.NewPath("/dstdir")))

	require.NoError(t, Copy(ctx, s, ufs.NewPath("/src.txt"), s, ufs.NewPath("/dstdir")))
	data, err := ufs.Cat(ctx, s, ufs.NewPath("/dstdir/src.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))

	require.NoError(t, Copy(ctx, s, ufs.NewPath("/src.txt"), s, ufs.NewPath("/exact.txt")))
	data, err = ufs.Cat(ctx, s, ufs.NewPath("/exact.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
}

func TestMoveRefusesIntoItself(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	setupTree(t, s)

	err := Move(ctx, s, ufs.NewPath("/a"), s, ufs.NewPath("/a/b/nested"))
	require.Error(t, err)
}

func TestMoveAcrossStores(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	dst := memory.New()
	require.NoError(t, ufs.Put(ctx, src, ufs.NewPath("/x.txt"), []byte("moved")))

	require.NoError(t, Move(ctx, src, ufs.NewPath("/x.txt"), dst, ufs.NewPath("/y.txt")))

	_, err := src.Info(ctx, ufs.NewPath("/x.txt"))
	require.Error(t, err)
	data, err := ufs.Cat(ctx, dst, ufs.NewPath("/y.txt"))
	require.NoError(t, err)
	require.Equal(t, "moved", string(data))
}
