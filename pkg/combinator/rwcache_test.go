package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestReadWriteCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	r := NewReadWriteCache(inner, memory.New())

	require.NoError(t, ufs.Put(ctx, r, ufs.NewPath("/f.txt"), []byte("hello")))
	data, err := ufs.Cat(ctx, inner, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = ufs.Cat(ctx, r, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestReadWriteCacheUpdatingStagesFullContent(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	r := NewReadWriteCache(inner, memory.New())
	require.NoError(t, ufs.Put(ctx, inner, ufs.NewPath("/f.txt"), []byte("hello")))

	h, err := r.Open(ctx, ufs.NewPath("/f.txt"), ufs.OpenMode{Read: true, Updating: true}, nil)
	require.NoError(t, err)
	_, err = r.Seek(ctx, h, 0, ufs.SeekEnd)
	require.NoError(t, err)
	_, err = r.Write(ctx, h, []byte(" world"))
	require.NoError(t, err)
	require.NoError(t, r.Close(ctx, h))

	data, err := ufs.Cat(ctx, inner, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}
