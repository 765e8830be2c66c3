package combinator

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"sync"

	"github.com/MaayanLab/ufs/internal/wire"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Process runs a Store in a child OS process and forwards every call to
// it over its stdin/stdout pipes, framed with the same msgpack protocol
// SocketClient/SocketServer use over TCP. Grounded on impl/process.py,
// whose `Process` class spawns a `multiprocessing` worker and forwards
// calls over a pair of OS queues; Go has no portable cross-process queue
// primitive, so the natural idiomatic substitute — the one the rest of
// this module's corpus reaches for when it needs a child process
// (moby-moby's extensive os/exec use) — is a subprocess with piped
// stdio, carrying the same wire.Request/wire.Response frames already
// defined for the socket transport.
//
// The child process must be cmd/ufsworker (or any binary implementing
// its UFS_SPEC/stdio contract); Command lets callers point at a
// specific built binary instead of assuming one is on PATH.
type Process struct {
	command string
	descr   ufs.Descriptor
	fwd     *rpcForwarder

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

var _ ufs.Store = (*Process)(nil)

type pipeRW struct {
	io.Writer
	io.Reader
}

// NewProcess spawns command (default "ufsworker" if empty) as a child
// process hosting the Store described by descr.
func NewProcess(command string, descr ufs.Descriptor) *Process {
	if command == "" {
		command = "ufsworker"
	}
	return &Process{command: command, descr: descr, fwd: newRPCForwarder()}
}

func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return nil
	}

	spec, err := json.Marshal(p.descr)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.command)
	cmd.Env = append(cmd.Environ(), "UFS_SPEC="+string(spec))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	p.cmd, p.stdin, p.stdout = cmd, stdin, stdout
	p.fwd.setConn(wire.NewConn(pipeRW{Writer: stdin, Reader: stdout}))
	return nil
}

func (p *Process) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	p.fwd.clearConn()
	p.stdin.Close()
	err := p.cmd.Wait()
	p.cmd, p.stdin, p.stdout = nil, nil, nil
	return err
}

func (p *Process) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	return p.fwd.ls(ctx, path)
}

func (p *Process) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return p.fwd.info(ctx, path)
}

func (p *Process) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	return p.fwd.open(ctx, path, mode, sizeHint)
}

func (p *Process) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	return p.fwd.seek(ctx, h, pos, whence)
}

func (p *Process) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	return p.fwd.read(ctx, h, amnt)
}

func (p *Process) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	return p.fwd.write(ctx, h, data)
}

func (p *Process) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	return p.fwd.truncate(ctx, h, length)
}

func (p *Process) Close(ctx context.Context, h ufs.Handle) error {
	return p.fwd.close(ctx, h)
}

func (p *Process) Unlink(ctx context.Context, path ufs.Path) error {
	return p.fwd.unlink(ctx, path)
}

func (p *Process) Mkdir(ctx context.Context, path ufs.Path) error {
	return p.fwd.mkdir(ctx, path)
}

func (p *Process) Rmdir(ctx context.Context, path ufs.Path) error {
	return p.fwd.rmdir(ctx, path)
}

func (p *Process) Flush(ctx context.Context, h ufs.Handle) error {
	return p.fwd.flush(ctx, h)
}
