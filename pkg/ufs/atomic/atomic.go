// Package atomic bridges whole-file-only backends (anything that can only
// Cat an entire object or Put an entire object, with no partial read/write
// primitive — HTTP, FTP, S3, DRS) onto the full seekable Store surface.
//
// A read-mode Open buffers the entire object into memory once and serves
// Seek/Read against that buffer (a "buffered read view"). A write-mode
// Open accumulates writes into an in-memory buffer and performs exactly
// one Put on Close (there is no producer-thread pipe here, unlike the
// Python original's fsspec-backed implementations that can stream a
// write — Go's bytes.Buffer plus a single Close-time Put is simpler and
// sufficient for every leaf backend this module ships, since none of them
// exposes a true streaming PUT primitive worth the extra goroutine).
package atomic

import (
	"bytes"
	"context"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Store is the minimal surface a whole-file backend must implement to be
// wrapped into a full ufs.Store by FromAtomic.
type Store interface {
	Ls(ctx context.Context, path ufs.Path) ([]string, error)
	Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error)
	Cat(ctx context.Context, path ufs.Path) ([]byte, error)
	Put(ctx context.Context, path ufs.Path, data []byte) error
	Unlink(ctx context.Context, path ufs.Path) error
	Mkdir(ctx context.Context, path ufs.Path) error
	Rmdir(ctx context.Context, path ufs.Path) error
}

type descriptor struct {
	path   ufs.Path
	reader *bytes.Reader
	writer *bytes.Buffer
}

// bridge adapts a Store into a full ufs.Store.
type bridge struct {
	inner   Store
	handles *ufs.HandleTable[*descriptor]
}

var _ ufs.Store = (*bridge)(nil)

// FromAtomic wraps inner into a full seekable ufs.Store.
func FromAtomic(inner Store) ufs.Store {
	return &bridge{inner: inner, handles: ufs.NewHandleTable[*descriptor]()}
}

func (b *bridge) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	return b.inner.Ls(ctx, path)
}

func (b *bridge) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return b.inner.Info(ctx, path)
}

func (b *bridge) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, _ *int64) (ufs.Handle, error) {
	d := &descriptor{path: path}
	if mode.Write || mode.Append {
		buf := bytes.NewBuffer(nil)
		if mode.Append {
			if existing, err := b.inner.Cat(ctx, path); err == nil {
				buf.Write(existing)
			}
		}
		d.writer = buf
	} else {
		data, err := b.inner.Cat(ctx, path)
		if err != nil {
			return 0, err
		}
		d.reader = bytes.NewReader(data)
	}
	return b.handles.Alloc(d), nil
}

func (b *bridge) Seek(_ context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	d, ok := b.handles.Get(h)
	if !ok {
		return 0, ufs.NotFound("seek", ufs.Root)
	}
	if d.reader == nil {
		return 0, ufs.Unsupported("seek", d.path)
	}
	return d.reader.Seek(pos, int(whence))
}

func (b *bridge) Read(_ context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	d, ok := b.handles.Get(h)
	if !ok {
		return nil, ufs.NotFound("read", ufs.Root)
	}
	if d.reader == nil {
		return nil, ufs.Unsupported("read", d.path)
	}
	buf := make([]byte, amnt)
	n, err := d.reader.Read(buf)
	if n == 0 && err != nil {
		return []byte{}, nil
	}
	return buf[:n], nil
}

func (b *bridge) Write(_ context.Context, h ufs.Handle, data []byte) (int, error) {
	d, ok := b.handles.Get(h)
	if !ok {
		return 0, ufs.NotFound("write", ufs.Root)
	}
	if d.writer == nil {
		return 0, ufs.Unsupported("write", d.path)
	}
	return d.writer.Write(data)
}

func (b *bridge) Truncate(_ context.Context, h ufs.Handle, length int64) error {
	d, ok := b.handles.Get(h)
	if !ok {
		return ufs.NotFound("truncate", ufs.Root)
	}
	if d.writer == nil {
		return ufs.Unsupported("truncate", d.path)
	}
	buf := d.writer.Bytes()
	if int64(len(buf)) > length {
		buf = buf[:length]
	} else {
		buf = append(buf, make([]byte, length-int64(len(buf)))...)
	}
	d.writer = bytes.NewBuffer(buf)
	return nil
}

func (b *bridge) Close(ctx context.Context, h ufs.Handle) error {
	d, ok := b.handles.Release(h)
	if !ok {
		return ufs.NotFound("close", ufs.Root)
	}
	if d.writer != nil {
		return b.inner.Put(ctx, d.path, d.writer.Bytes())
	}
	return nil
}

func (b *bridge) Unlink(ctx context.Context, path ufs.Path) error { return b.inner.Unlink(ctx, path) }
func (b *bridge) Mkdir(ctx context.Context, path ufs.Path) error  { return b.inner.Mkdir(ctx, path) }
func (b *bridge) Rmdir(ctx context.Context, path ufs.Path) error  { return b.inner.Rmdir(ctx, path) }
func (b *bridge) Flush(context.Context, ufs.Handle) error         { return nil }
func (b *bridge) Start(context.Context) error                    { return nil }
func (b *bridge) Stop(context.Context) error                     { return nil }
