package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestWritecacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	w := NewWritecache(inner, memory.New())

	require.NoError(t, ufs.Put(ctx, w, ufs.NewPath("/f.txt"), []byte("hello")))
	data, err := ufs.Cat(ctx, inner, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = ufs.Cat(ctx, w, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestWritecacheUpdatingOpenBuffersThroughCache(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	cache := memory.New()
	w := NewWritecache(inner, cache)

	require.NoError(t, ufs.Put(ctx, inner, ufs.NewPath("/f.txt"), []byte("hello")))

	h, err := w.Open(ctx, ufs.NewPath("/f.txt"), ufs.OpenMode{Read: true, Updating: true}, nil)
	require.NoError(t, err)

	_, err = w.Seek(ctx, h, 0, ufs.SeekStart)
	require.NoError(t, err)
	buf, err := w.Read(ctx, h, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	_, err = w.Seek(ctx, h, 0, ufs.SeekStart)
	require.NoError(t, err)
	_, err = w.Write(ctx, h, []byte("HELLO"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx, h))

	data, err := ufs.Cat(ctx, inner, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "HELLO", string(data))
}
