package combinator

import (
	"context"
	"net"

	"github.com/MaayanLab/ufs/internal/wire"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"
)

// SocketServer exposes a Store over a plain TCP listener using the
// msgpack request/response framing in internal/wire. Grounded on
// _examples/original_source/ufs/access/server.py: one connection is
// handled by reading frames serially and writing a response per frame
// before reading the next — no per-connection request pipelining on the
// server side, mirroring `async for msg in reader` there.
type SocketServer struct {
	inner ufs.Store
	log   *utils.StructuredLogger
	ln    net.Listener
}

// NewSocketServer wraps inner for serving; call Serve with a listener
// (typically net.Listen("tcp", addr)) to start accepting connections.
func NewSocketServer(inner ufs.Store, log *utils.StructuredLogger) *SocketServer {
	if log == nil {
		log, _ = utils.NewStructuredLogger(nil)
	}
	return &SocketServer{inner: inner, log: log.WithComponent("ufs.SocketServer")}
}

// Serve accepts connections on ln until it returns an error (including
// on ln.Close from another goroutine, the usual Go shutdown idiom).
func (s *SocketServer) Serve(ctx context.Context, ln net.Listener) error {
	s.ln = ln
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.ServeOne(ctx, conn)
	}
}

// ServeOne dispatches a single already-accepted connection and closes it
// when ServeConn returns. Exported so callers that need per-connection
// hooks (internal/server/rpcd's active-connections gauge, for instance)
// can run their own accept loop around it instead of Serve's.
func (s *SocketServer) ServeOne(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	ServeConn(ctx, s.inner, wire.NewConn(nc))
}

// ServeConn reads requests off conn and writes back responses until the
// connection errors, a zero-op request arrives (the protocol's
// shutdown marker, mirroring `if op is None: break` in
// access/server.py). ctx is passed to every dispatched call; ServeConn
// does not watch it, so canceling ctx does not end the loop. Shared by SocketServer (over
// TCP) and cmd/ufsworker (over stdio pipes) so both transports dispatch
// identically.
func ServeConn(ctx context.Context, inner ufs.Store, conn *wire.Conn) {
	for {
		req, err := conn.ReadRequest()
		if err != nil {
			return
		}
		if req.Op == "" {
			return
		}
		resp := Dispatch(ctx, inner, req)
		if err := conn.WriteResponse(resp); err != nil {
			return
		}
	}
}

// Dispatch executes one request against inner and builds the matching
// response frame.
func Dispatch(ctx context.Context, inner ufs.Store, req wire.Request) wire.Response {
	resp := wire.Response{ID: req.ID}
	args := req.Args

	switch req.Op {
	case "ls":
		names, err := inner.Ls(ctx, ufs.NewPath(args[0].(string)))
		resp.Result = toStringSlice(names)
		encodeErr(&resp, err)
	case "info":
		st, err := inner.Info(ctx, ufs.NewPath(args[0].(string)))
		resp.Result = encodeStat(st)
		encodeErr(&resp, err)
	case "open":
		var sizeHint *int64
		if args[2] != nil {
			v := asInt64(args[2])
			sizeHint = &v
		}
		h, err := inner.Open(ctx, ufs.NewPath(args[0].(string)), decodeOpenMode(args[1]), sizeHint)
		resp.Result = int64(h)
		encodeErr(&resp, err)
	case "seek":
		pos, err := inner.Seek(ctx, ufs.Handle(asInt64(args[0])), asInt64(args[1]), ufs.SeekWhence(asInt64(args[2])))
		resp.Result = pos
		encodeErr(&resp, err)
	case "read":
		data, err := inner.Read(ctx, ufs.Handle(asInt64(args[0])), int(asInt64(args[1])))
		resp.Result = data
		encodeErr(&resp, err)
	case "write":
		data, _ := args[1].([]byte)
		n, err := inner.Write(ctx, ufs.Handle(asInt64(args[0])), data)
		resp.Result = int64(n)
		encodeErr(&resp, err)
	case "truncate":
		err := inner.Truncate(ctx, ufs.Handle(asInt64(args[0])), asInt64(args[1]))
		encodeErr(&resp, err)
	case "close":
		err := inner.Close(ctx, ufs.Handle(asInt64(args[0])))
		encodeErr(&resp, err)
	case "unlink":
		err := inner.Unlink(ctx, ufs.NewPath(args[0].(string)))
		encodeErr(&resp, err)
	case "mkdir":
		err := inner.Mkdir(ctx, ufs.NewPath(args[0].(string)))
		encodeErr(&resp, err)
	case "rmdir":
		err := inner.Rmdir(ctx, ufs.NewPath(args[0].(string)))
		encodeErr(&resp, err)
	case "flush":
		err := inner.Flush(ctx, ufs.Handle(asInt64(args[0])))
		encodeErr(&resp, err)
	case "start":
		encodeErr(&resp, inner.Start(ctx))
	case "stop":
		encodeErr(&resp, inner.Stop(ctx))
	default:
		resp.Err = "unsupported op: " + req.Op
	}
	return resp
}
