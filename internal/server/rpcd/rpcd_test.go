package rpcd

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/combinator"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

func TestListenServeRoundtrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("hello")))

	srv, err := Listen(ctx, "127.0.0.1:0", store, nil, nil)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	client := combinator.NewSocketClient(srv.Addr())
	require.NoError(t, client.Start(ctx))
	defer client.Stop(ctx)

	data, err := ufs.Cat(ctx, client, ufs.NewPath("/a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestListenTracksActiveConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	collector := metrics.NewCollector()

	srv, err := Listen(ctx, "127.0.0.1:0", store, nil, collector)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	client := combinator.NewSocketClient(srv.Addr())
	require.NoError(t, client.Start(ctx))

	time.Sleep(10 * time.Millisecond)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), `ufs_active_connections{component="rpc"} 1`)

	require.NoError(t, client.Stop(ctx))
}
