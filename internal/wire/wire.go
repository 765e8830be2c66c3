// Package wire implements the msgpack-framed request/response protocol
// used by pkg/combinator.SocketClient/SocketServer and cmd/ufsworker.
// Grounded on _examples/original_source/ufs/impl/client.py and
// access/server.py: each request carries (id, op, args), with no kwargs
// field since the Go Store surface has no kwargs, and
// each response is a tuple of (id, result, error message, error kind,
// error op, error path). The id lets a single connection multiplex many
// concurrent calls, matching the Python client's out-of-order requeue
// loop in _forward. The error kind/op/path fields exist so a UFS
// taxonomy error (ufs.ErrNotFound and friends) survives the socket or
// process boundary as the same taxonomy kind on the other side instead
// of flattening into an untyped string — see spec §6/§7 and
// pkg/combinator's encodeErr/decodeErr, which populate and consume them.
package wire

import (
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-msgpack/codec"
)

// Request is one call frame sent from a client to a server.
type Request struct {
	ID   uint64        `codec:"id"`
	Op   string        `codec:"op"`
	Args []interface{} `codec:"args"`
}

// Response is one reply frame sent from a server back to a client.
// Err is empty on success. Kind, when non-empty, names one of the UFS
// taxonomy sentinels (e.g. "not_found") that Err was built from, letting
// the client reconstruct a sentinel-wrapped error instead of a bare
// string; Op and Path carry the *ufs.PathError fields the same way. A
// non-taxonomy error (a decode failure, an unsupported op, ...) leaves
// Kind empty and is reconstructed as a plain error from Err.
type Response struct {
	ID     uint64      `codec:"id"`
	Result interface{} `codec:"result"`
	Err    string      `codec:"err"`
	Kind   string      `codec:"kind"`
	Op     string      `codec:"op"`
	Path   string      `codec:"path"`
}

func handle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	return h
}

// Conn is a msgpack-framed duplex connection. Writes are serialized with
// a mutex since multiple goroutines may send requests (client side) or
// responses (server side, one per in-flight request) concurrently; reads
// are expected to happen from a single dedicated goroutine per Conn.
type Conn struct {
	wmu sync.Mutex
	enc *codec.Encoder
	dec *codec.Decoder
}

// NewConn wraps rw (typically a net.Conn or a pipe) in a msgpack codec.
func NewConn(rw io.ReadWriter) *Conn {
	h := handle()
	return &Conn{
		enc: codec.NewEncoder(rw, h),
		dec: codec.NewDecoder(rw, h),
	}
}

func (c *Conn) WriteRequest(req Request) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.enc.Encode(&req)
}

func (c *Conn) ReadRequest() (Request, error) {
	var req Request
	if err := c.dec.Decode(&req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (c *Conn) WriteResponse(resp Response) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.enc.Encode(&resp)
}

func (c *Conn) ReadResponse() (Response, error) {
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// AsError turns a non-empty Response.Err string into a plain Go error,
// discarding Kind/Op/Path. It's the fallback for a caller with no UFS
// taxonomy to rebuild into (cmd/ufsworker's own diagnostics, tests);
// pkg/combinator callers use the taxonomy-aware decodeErr instead so a
// Kind survives the round trip as the matching ufs.Err* sentinel.
func (r Response) AsError() error {
	if r.Err == "" {
		return nil
	}
	return fmt.Errorf("%s", r.Err)
}
