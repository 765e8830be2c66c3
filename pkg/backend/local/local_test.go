package local

import (
	"context"
	"errors"
	"testing"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundtrip(t *testing.T) {
	ctx := context.Background()
	root := ufs.NewPath(t.TempDir())
	s := New()

	p := root.Join("hello.txt")
	require.NoError(t, ufs.Put(ctx, s, p, []byte("hi")))

	data, err := ufs.Cat(ctx, s, p)
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))

	info, err := s.Info(ctx, p)
	require.NoError(t, err)
	require.False(t, info.IsDir())

	require.NoError(t, s.Unlink(ctx, p))
	_, err = s.Info(ctx, p)
	require.Error(t, err)
}

func TestLocalMkdirRmdir(t *testing.T) {
	ctx := context.Background()
	root := ufs.NewPath(t.TempDir())
	s := New()
	d := root.Join("sub")

	require.NoError(t, s.Mkdir(ctx, d))
	require.NoError(t, ufs.Put(ctx, s, d.Join("f"), []byte("x")))
	require.Error(t, s.Rmdir(ctx, d))
	require.NoError(t, s.Unlink(ctx, d.Join("f")))
	require.NoError(t, s.Rmdir(ctx, d))
}

// TestClosedHandleIsIoNotNotFound proves spec.md §4.2: operating on a
// reused or already-closed handle reports ufs.Io (the handle itself is
// invalid), not ufs.ErrNotFound (which names a missing path).
func TestClosedHandleIsIoNotNotFound(t *testing.T) {
	ctx := context.Background()
	root := ufs.NewPath(t.TempDir())
	s := New()
	p := root.Join("f.bin")
	require.NoError(t, ufs.Put(ctx, s, p, []byte("data")))

	h, err := s.Open(ctx, p, ufs.OpenMode{Read: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx, h))

	_, err = s.Read(ctx, h, 1)
	require.Error(t, err)
	require.False(t, errors.Is(err, ufs.ErrNotFound))

	err = s.Close(ctx, h)
	require.Error(t, err)
	require.False(t, errors.Is(err, ufs.ErrNotFound))
}
