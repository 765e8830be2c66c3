package atomic

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestBridgeRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := FromAtomic(newFakeAtomic())
	p := ufs.NewPath("/obj")

	require.NoError(t, ufs.Put(ctx, s, p, []byte("payload")))
	data, err := ufs.Cat(ctx, s, p)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestBridgeSeekOnWriteHandleUnsupported(t *testing.T) {
	ctx := context.Background()
	s := FromAtomic(newFakeAtomic())
	p := ufs.NewPath("/obj")

	h, err := s.Open(ctx, p, ufs.OpenMode{Write: true}, nil)
	require.NoError(t, err)
	_, err = s.Seek(ctx, h, 0, ufs.SeekStart)
	require.ErrorIs(t, err, ufs.ErrUnsupported)
}

func TestBridgeAppendPrefixesExisting(t *testing.T) {
	ctx := context.Background()
	s := FromAtomic(newFakeAtomic())
	p := ufs.NewPath("/obj")

	require.NoError(t, ufs.Put(ctx, s, p, []byte("abc")))
	h, err := s.Open(ctx, p, ufs.OpenMode{Append: true}, nil)
	require.NoError(t, err)
	_, err = s.Write(ctx, h, []byte("def"))
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx, h))

	data, err := ufs.Cat(ctx, s, p)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(data))
}
