package combinator

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestSocketClientServerRoundtrip(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := NewSocketServer(backend, nil)
	go server.Serve(ctx, ln)

	client := NewSocketClient(ln.Addr().String())
	require.NoError(t, client.Start(ctx))
	defer client.Stop(ctx)

	require.NoError(t, ufs.Put(ctx, client, ufs.NewPath("/f.txt"), []byte("over the wire")))

	data, err := ufs.Cat(ctx, client, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "over the wire", string(data))

	names, err := client.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Contains(t, names, "f.txt")

	info, err := client.Info(ctx, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, int64(len("over the wire")), info.Size)
}

func TestSocketClientConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := NewSocketServer(backend, nil)
	go server.Serve(ctx, ln)

	client := NewSocketClient(ln.Addr().String())
	require.NoError(t, client.Start(ctx))
	defer client.Stop(ctx)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			path := ufs.NewPath("/" + string(rune('a'+i)) + ".txt")
			done <- ufs.Put(ctx, client, path, []byte("x"))
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	names, err := client.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Len(t, names, 4)
}

// TestSocketClientPreservesErrorTaxonomy proves a ufs.ErrNotFound raised
// inside the server's backend still satisfies errors.Is on the client
// side of a SocketServer/SocketClient round trip, instead of flattening
// into an untyped string-built error (spec §6/§7).
func TestSocketClientPreservesErrorTaxonomy(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := NewSocketServer(backend, nil)
	go server.Serve(ctx, ln)

	client := NewSocketClient(ln.Addr().String())
	require.NoError(t, client.Start(ctx))
	defer client.Stop(ctx)

	_, err = client.Info(ctx, ufs.NewPath("/missing.txt"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ufs.ErrNotFound))

	var pe *ufs.PathError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "info", pe.Op)
	require.Equal(t, "/missing.txt", pe.Path)
}
