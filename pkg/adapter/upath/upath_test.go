package upath

import (
	"context"
	"io"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestUPathReadWriteText(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	root := New(store, ufs.Root)

	f := root.Join("hello.txt")
	require.NoError(t, f.WriteText(ctx, "hello world"))
	require.True(t, f.IsFile(ctx))
	require.False(t, f.IsDir(ctx))

	text, err := f.ReadText(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestUPathMkdirParentsExistOk(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	root := New(store, ufs.Root)

	d := root.Join("a").Join("b").Join("c")
	require.NoError(t, d.Mkdir(ctx, true, false))
	require.True(t, d.IsDir(ctx))

	// exists already; exist_ok should swallow the AlreadyExists error
	require.NoError(t, d.Mkdir(ctx, true, true))
	require.Error(t, d.Mkdir(ctx, true, false))
}

func TestUPathIterdir(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	root := New(store, ufs.Root)

	require.NoError(t, root.Join("x.txt").WriteText(ctx, "x"))
	require.NoError(t, root.Join("y.txt").WriteText(ctx, "y"))

	children, err := root.Iterdir(ctx)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, c := range children {
		names[c.Name()] = true
	}
	require.True(t, names["x.txt"])
	require.True(t, names["y.txt"])
}

func TestUPathOpenerSeekReadWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	root := New(store, ufs.Root)

	f := root.Join("seek.bin")
	w, err := f.Open(ctx, ufs.OpenMode{Write: true}, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := f.Open(ctx, ufs.OpenMode{Read: true}, nil)
	require.NoError(t, err)
	defer r.Close()

	pos, err := r.Seek(5, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(5), pos)

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "56789", string(buf))
}

func TestUPathRenameRelativeAndAbsolute(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	root := New(store, ufs.Root)

	f := root.Join("a.txt")
	require.NoError(t, f.WriteText(ctx, "data"))

	require.NoError(t, f.Rename(ctx, "b.txt"))
	require.True(t, root.Join("b.txt").IsFile(ctx))
	require.False(t, root.Join("a.txt").Exists(ctx))

	require.NoError(t, root.Join("b.txt").Rename(ctx, "/c.txt"))
	require.True(t, root.Join("c.txt").IsFile(ctx))
}
