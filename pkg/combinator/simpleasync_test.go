package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestSimpleAsyncForwardsSynchronously(t *testing.T) {
	ctx := context.Background()
	a := NewSimpleAsync(memory.New())

	res := <-a.Mkdir(ctx, ufs.NewPath("/d"))
	require.NoError(t, res.Err)

	openRes := <-a.Open(ctx, ufs.NewPath("/d/f.txt"), ufs.OpenMode{Write: true}, nil)
	require.NoError(t, openRes.Err)
	h := openRes.Value

	wRes := <-a.Write(ctx, h, []byte("hi"))
	require.NoError(t, wRes.Err)
	require.Equal(t, 2, wRes.Value)

	require.NoError(t, (<-a.Close(ctx, h)).Err)

	lsRes := <-a.Ls(ctx, ufs.NewPath("/d"))
	require.NoError(t, lsRes.Err)
	require.Contains(t, lsRes.Value, "f.txt")
}
