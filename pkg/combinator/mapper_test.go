package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestMapperRoutesByLongestPrefix(t *testing.T) {
	ctx := context.Background()
	a, b := memory.New(), memory.New()
	m := NewMapper(map[ufs.Path]ufs.Store{
		ufs.NewPath("/a"): a,
		ufs.NewPath("/b"): b,
	})

	require.NoError(t, ufs.Put(ctx, m, ufs.NewPath("/a/one.txt"), []byte("1")))
	require.NoError(t, ufs.Put(ctx, m, ufs.NewPath("/b/two.txt"), []byte("2")))

	data, err := ufs.Cat(ctx, a, ufs.NewPath("/one.txt"))
	require.NoError(t, err)
	require.Equal(t, "1", string(data))

	data, err = ufs.Cat(ctx, b, ufs.NewPath("/two.txt"))
	require.NoError(t, err)
	require.Equal(t, "2", string(data))
}

func TestMapperUnmappedPathFails(t *testing.T) {
	ctx := context.Background()
	m := NewMapper(map[ufs.Path]ufs.Store{ufs.NewPath("/a"): memory.New()})
	_, err := m.Info(ctx, ufs.NewPath("/elsewhere/x"))
	require.Error(t, err)
}
