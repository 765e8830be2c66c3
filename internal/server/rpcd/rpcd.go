// Package rpcd is the socket-serving half of access/server.py's `__main__`
// entrypoint: listen on a TCP address and serve a Store to any
// combinator.SocketClient that connects, using the same msgpack
// request/response protocol combinator.SocketServer already implements.
// cmd/ufsworker is the stdio-serving twin of this package — same
// combinator.ServeConn dispatch loop, different transport.
//
// Grounded on access/server.py's ufs_via_socket/serve_ufs_via_socket and
// utils/socket.py's autosocket: Python reserves a port by binding, closing,
// and rebinding it later (autosocket), which is only needed because
// asyncio's start_server takes a host/port pair rather than a live
// listener; Go's net.Listen already returns a bound, ready-to-Accept
// listener in one call, so Listen below skips the bind-close-rebind dance
// entirely and just reports the resolved address net.Listen gives back.
package rpcd

import (
	"context"
	"net"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/combinator"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"
)

// Server listens for SocketClient connections and dispatches them against
// a single Store.
type Server struct {
	store   ufs.Store
	ss      *combinator.SocketServer
	ln      net.Listener
	metrics *metrics.Collector
}

// Listen binds addr (host:port, port 0 for an OS-assigned port, mirroring
// autosocket's own port-0 default) and starts the backing store, returning
// a Server ready to Serve. collector may be nil, in which case no metrics
// are recorded.
func Listen(ctx context.Context, addr string, store ufs.Store, log *utils.StructuredLogger, collector *metrics.Collector) (*Server, error) {
	if err := store.Start(ctx); err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		store.Stop(ctx)
		return nil, err
	}
	return &Server{
		store:   store,
		ss:      combinator.NewSocketServer(store, log),
		ln:      ln,
		metrics: collector,
	}, nil
}

// Addr returns the address this server actually bound, mirroring
// serve_ufs_via_socket's yielded "host:port".
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve accepts and dispatches connections until the listener is closed or
// ctx is canceled, mirroring ufs_via_socket's serve_forever. Every accepted
// connection is wrapped so the active-connections gauge tracks it for its
// whole lifetime.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		s.metrics.ConnOpened("rpc")
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.metrics.ConnClosed("rpc")
	s.ss.ServeOne(ctx, conn)
}

// Close stops accepting connections and tears down the backing store.
func (s *Server) Close(ctx context.Context) error {
	err := s.ln.Close()
	if stopErr := s.store.Stop(ctx); err == nil {
		err = stopErr
	}
	return err
}
