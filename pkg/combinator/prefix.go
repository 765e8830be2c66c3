// Package combinator implements the structural, behavioral, and execution
// combinators that compose Stores together: Prefix, Mapper,
// TemporaryDirectory (structural); Overlay, Logger, DirCache, WriteCache,
// ReadWriteCache (behavioral); SyncToAsync, AsyncToSync, SimpleAsync,
// Process, SocketClient, SocketServer (execution).
package combinator

import (
	"context"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Prefix rewrites every path through inner by prepending root, so inner is
// only ever addressed below root — the rest of the module (and any caller)
// sees an unprefixed view. Grounded on impl/prefix.py.
type Prefix struct {
	inner ufs.Store
	root  ufs.Path
}

var _ ufs.Store = (*Prefix)(nil)

// NewPrefix scopes inner under root.
func NewPrefix(inner ufs.Store, root ufs.Path) *Prefix {
	return &Prefix{inner: inner, root: root}
}

func (p *Prefix) rewrite(path ufs.Path) ufs.Path {
	rel, ok := path.RelativeTo(ufs.Root)
	if !ok || rel == "" {
		return p.root
	}
	return p.root.Join(rel)
}

func (p *Prefix) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	return p.inner.Ls(ctx, p.rewrite(path))
}
func (p *Prefix) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return p.inner.Info(ctx, p.rewrite(path))
}
func (p *Prefix) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	return p.inner.Open(ctx, p.rewrite(path), mode, sizeHint)
}
func (p *Prefix) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	return p.inner.Seek(ctx, h, pos, whence)
}
func (p *Prefix) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	return p.inner.Read(ctx, h, amnt)
}
func (p *Prefix) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	return p.inner.Write(ctx, h, data)
}
func (p *Prefix) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	return p.inner.Truncate(ctx, h, length)
}
func (p *Prefix) Close(ctx context.Context, h ufs.Handle) error { return p.inner.Close(ctx, h) }
func (p *Prefix) Unlink(ctx context.Context, path ufs.Path) error {
	return p.inner.Unlink(ctx, p.rewrite(path))
}
func (p *Prefix) Mkdir(ctx context.Context, path ufs.Path) error {
	return p.inner.Mkdir(ctx, p.rewrite(path))
}
func (p *Prefix) Rmdir(ctx context.Context, path ufs.Path) error {
	return p.inner.Rmdir(ctx, p.rewrite(path))
}
func (p *Prefix) Flush(ctx context.Context, h ufs.Handle) error { return p.inner.Flush(ctx, h) }
func (p *Prefix) Start(ctx context.Context) error               { return p.inner.Start(ctx) }
func (p *Prefix) Stop(ctx context.Context) error                { return p.inner.Stop(ctx) }

// Describe implements ufs.Describable when inner does.
func (p *Prefix) Describe() ufs.Descriptor {
	params := map[string]any{"prefix": p.root.String()}
	if d, ok := p.inner.(ufs.Describable); ok {
		params["ufs"] = d.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.Prefix", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.Prefix", func(params map[string]any) (ufs.Store, error) {
		root, _ := params["prefix"].(string)
		inner, err := ufs.FromDescriptor(params["ufs"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		return NewPrefix(inner, ufs.NewPath(root)), nil
	})
}
