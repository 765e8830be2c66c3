package combinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MaayanLab/ufs/internal/wire"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// rpcForwarder is the shared request/response plumbing behind
// SocketClient and Process: once a wire.Conn is installed, forward
// multiplexes concurrent calls over it by request id and demultiplexes
// responses on a single background reader goroutine. Grounded the same
// way as SocketClient (impl/client.py's id-tagged request/response
// matching) — Process reuses it because impl/process.py's `_forward` is
// textually identical to impl/client.py's modulo the transport
// underneath (multiprocessing.Queue there, a socket or a pipe here).
type rpcForwarder struct {
	mu      sync.Mutex
	conn    *wire.Conn
	nextID  uint64
	waiters map[uint64]chan wire.Response
}

func newRPCForwarder() *rpcForwarder {
	return &rpcForwarder{waiters: make(map[uint64]chan wire.Response)}
}

func (f *rpcForwarder) setConn(conn *wire.Conn) {
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	go f.readLoop(conn)
}

func (f *rpcForwarder) readLoop(conn *wire.Conn) {
	for {
		resp, err := conn.ReadResponse()
		if err != nil {
			return
		}
		f.mu.Lock()
		ch, ok := f.waiters[resp.ID]
		delete(f.waiters, resp.ID)
		f.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (f *rpcForwarder) clearConn() {
	f.mu.Lock()
	f.conn = nil
	f.mu.Unlock()
}

func (f *rpcForwarder) forward(ctx context.Context, op string, args ...interface{}) (interface{}, error) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("ufs: rpc forwarder not connected")
	}

	id := atomic.AddUint64(&f.nextID, 1)
	ch := make(chan wire.Response, 1)
	f.mu.Lock()
	f.waiters[id] = ch
	f.mu.Unlock()

	if err := conn.WriteRequest(wire.Request{ID: id, Op: op, Args: args}); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp.Result, decodeErr(resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *rpcForwarder) ls(ctx context.Context, path ufs.Path) ([]string, error) {
	res, err := f.forward(ctx, "ls", path.String())
	if err != nil {
		return nil, err
	}
	return decodeStringSlice(res), nil
}

func (f *rpcForwarder) info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	res, err := f.forward(ctx, "info", path.String())
	if err != nil {
		return ufs.FileStat{}, err
	}
	return decodeStat(res), nil
}

func (f *rpcForwarder) open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	var hint interface{}
	if sizeHint != nil {
		hint = *sizeHint
	}
	res, err := f.forward(ctx, "open", path.String(), encodeOpenMode(mode), hint)
	if err != nil {
		return 0, err
	}
	return ufs.Handle(asInt64(res)), nil
}

func (f *rpcForwarder) seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	res, err := f.forward(ctx, "seek", int64(h), pos, int64(whence))
	if err != nil {
		return 0, err
	}
	return asInt64(res), nil
}

func (f *rpcForwarder) read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	res, err := f.forward(ctx, "read", int64(h), int64(amnt))
	if err != nil {
		return nil, err
	}
	data, _ := res.([]byte)
	return data, nil
}

func (f *rpcForwarder) write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	res, err := f.forward(ctx, "write", int64(h), data)
	if err != nil {
		return 0, err
	}
	return int(asInt64(res)), nil
}

func (f *rpcForwarder) truncate(ctx context.Context, h ufs.Handle, length int64) error {
	_, err := f.forward(ctx, "truncate", int64(h), length)
	return err
}

func (f *rpcForwarder) close(ctx context.Context, h ufs.Handle) error {
	_, err := f.forward(ctx, "close", int64(h))
	return err
}

func (f *rpcForwarder) unlink(ctx context.Context, path ufs.Path) error {
	_, err := f.forward(ctx, "unlink", path.String())
	return err
}

func (f *rpcForwarder) mkdir(ctx context.Context, path ufs.Path) error {
	_, err := f.forward(ctx, "mkdir", path.String())
	return err
}

func (f *rpcForwarder) rmdir(ctx context.Context, path ufs.Path) error {
	_, err := f.forward(ctx, "rmdir", path.String())
	return err
}

func (f *rpcForwarder) flush(ctx context.Context, h ufs.Handle) error {
	_, err := f.forward(ctx, "flush", int64(h))
	return err
}
