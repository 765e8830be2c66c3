package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestSyncToAsyncRunsOnWorker(t *testing.T) {
	ctx := context.Background()
	a := NewSyncToAsync(memory.New())

	openRes := <-a.Open(ctx, ufs.NewPath("/f.txt"), ufs.OpenMode{Write: true}, nil)
	require.NoError(t, openRes.Err)
	h := openRes.Value

	require.NoError(t, (<-a.Write(ctx, h, []byte("hello"))).Err)
	require.NoError(t, (<-a.Close(ctx, h)).Err)

	lsRes := <-a.Ls(ctx, ufs.Root)
	require.NoError(t, lsRes.Err)
	require.Contains(t, lsRes.Value, "f.txt")

	require.NoError(t, (<-a.Stop(ctx)).Err)

	// a subsequent call after Stop should spin up a fresh worker
	infoRes := <-a.Info(ctx, ufs.NewPath("/f.txt"))
	require.NoError(t, infoRes.Err)
	require.Equal(t, int64(5), infoRes.Value.Size)
}

func TestSyncToAsyncViaRoundtrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	a := NewSyncToAsync(inner)
	sync := NewAsyncToSync(a)

	require.NoError(t, ufs.Put(ctx, sync, ufs.NewPath("/g.txt"), []byte("world")))
	data, err := ufs.Cat(ctx, sync, ufs.NewPath("/g.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(data))
}
