package combinator

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

type writecacheHandle struct {
	store ufs.Store // either w.inner or w.cache
	h     ufs.Handle
	path  ufs.Path
}

// Writecache buffers every open that writes (write-only, append or
// updating mode) through a scratch Store — typically memory.New() or a
// TemporaryDirectory — because inner doesn't support seeking, and copies
// the scratch file to inner on Close. Only plain read-only opens pass
// straight through to inner.
// Grounded on impl/writecache.py.
type Writecache struct {
	inner ufs.Store
	cache ufs.Store

	mu      sync.Mutex
	next    int
	handles map[ufs.Handle]*writecacheHandle
}

var _ ufs.Store = (*Writecache)(nil)

// NewWritecache wraps inner, using cache as scratch space for opens that
// need random access.
func NewWritecache(inner, cache ufs.Store) *Writecache {
	return &Writecache{
		inner:   inner,
		cache:   cache,
		next:    5,
		handles: make(map[ufs.Handle]*writecacheHandle),
	}
}

func (w *Writecache) scratchPath(id int) ufs.Path {
	return ufs.NewPath(fmt.Sprintf("/%d", id))
}

func (w *Writecache) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	names, err := w.inner.Ls(ctx, path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	out := append([]string(nil), names...)
	for _, n := range names {
		seen[n] = struct{}{}
	}
	w.mu.Lock()
	for _, wh := range w.handles {
		if wh.store != w.cache {
			continue
		}
		if wh.path.Parent() != path {
			continue
		}
		n := wh.path.Name()
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	w.mu.Unlock()
	return out, nil
}

func (w *Writecache) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	w.mu.Lock()
	for id, wh := range w.handles {
		if wh.store == w.cache && wh.path == path {
			w.mu.Unlock()
			return w.cache.Info(ctx, w.scratchPath(int(id)))
		}
	}
	w.mu.Unlock()
	return w.inner.Info(ctx, path)
}

func (w *Writecache) allocID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	return id
}

func (w *Writecache) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	id := w.allocID()
	scratch := w.scratchPath(id)

	if mode.Read && !mode.Updating {
		fr, err := w.inner.Open(ctx, path, mode, sizeHint)
		if err != nil {
			return 0, err
		}
		return w.register(ufs.Handle(id), w.inner, fr, path), nil
	}

	if mode.Read || mode.Append {
		fr, err := w.inner.Open(ctx, path, ufs.OpenMode{Read: true}, nil)
		if err != nil {
			return 0, err
		}
		fw, err := w.cache.Open(ctx, scratch, ufs.OpenMode{Write: true, Updating: true}, sizeHint)
		if err != nil {
			w.inner.Close(ctx, fr)
			return 0, err
		}
		for {
			buf, rerr := w.inner.Read(ctx, fr, ufs.ChunkSize)
			if len(buf) > 0 {
				if _, werr := w.cache.Write(ctx, fw, buf); werr != nil {
					w.inner.Close(ctx, fr)
					w.cache.Close(ctx, fw)
					return 0, werr
				}
			}
			if rerr == io.EOF || len(buf) == 0 {
				break
			}
			if rerr != nil {
				w.inner.Close(ctx, fr)
				w.cache.Close(ctx, fw)
				return 0, rerr
			}
		}
		w.inner.Close(ctx, fr)
		if mode.Read {
			if _, err := w.cache.Seek(ctx, fw, 0, ufs.SeekStart); err != nil {
				w.cache.Close(ctx, fw)
				return 0, err
			}
		}
		return w.register(ufs.Handle(id), w.cache, fw, path), nil
	}

	fw, err := w.cache.Open(ctx, scratch, ufs.OpenMode{Write: true, Updating: true}, sizeHint)
	if err != nil {
		return 0, err
	}
	return w.register(ufs.Handle(id), w.cache, fw, path), nil
}

func (w *Writecache) register(id ufs.Handle, store ufs.Store, h ufs.Handle, path ufs.Path) ufs.Handle {
	w.mu.Lock()
	w.handles[id] = &writecacheHandle{store: store, h: h, path: path}
	w.mu.Unlock()
	return id
}

func (w *Writecache) get(id ufs.Handle) (*writecacheHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	wh, ok := w.handles[id]
	if !ok {
		return nil, ufs.NotFound("handle", ufs.Root)
	}
	return wh, nil
}

func (w *Writecache) Seek(ctx context.Context, id ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	wh, err := w.get(id)
	if err != nil {
		return 0, err
	}
	return wh.store.Seek(ctx, wh.h, pos, whence)
}

func (w *Writecache) Read(ctx context.Context, id ufs.Handle, amnt int) ([]byte, error) {
	wh, err := w.get(id)
	if err != nil {
		return nil, err
	}
	return wh.store.Read(ctx, wh.h, amnt)
}

func (w *Writecache) Write(ctx context.Context, id ufs.Handle, data []byte) (int, error) {
	wh, err := w.get(id)
	if err != nil {
		return 0, err
	}
	return wh.store.Write(ctx, wh.h, data)
}

func (w *Writecache) Truncate(ctx context.Context, id ufs.Handle, length int64) error {
	wh, err := w.get(id)
	if err != nil {
		return err
	}
	return wh.store.Truncate(ctx, wh.h, length)
}

func (w *Writecache) Flush(ctx context.Context, id ufs.Handle) error {
	wh, err := w.get(id)
	if err != nil {
		return err
	}
	return wh.store.Flush(ctx, wh.h)
}

func (w *Writecache) Close(ctx context.Context, id ufs.Handle) error {
	w.mu.Lock()
	wh, ok := w.handles[id]
	delete(w.handles, id)
	w.mu.Unlock()
	if !ok {
		return ufs.NotFound("close", ufs.Root)
	}

	if wh.store != w.cache {
		return w.inner.Close(ctx, wh.h)
	}

	fw, err := w.inner.Open(ctx, wh.path, ufs.OpenMode{Write: true}, nil)
	if err != nil {
		return err
	}
	if _, err := w.cache.Seek(ctx, wh.h, 0, ufs.SeekStart); err != nil {
		w.inner.Close(ctx, fw)
		return err
	}
	for {
		buf, rerr := w.cache.Read(ctx, wh.h, ufs.ChunkSize)
		if len(buf) > 0 {
			if _, werr := w.inner.Write(ctx, fw, buf); werr != nil {
				w.inner.Close(ctx, fw)
				return werr
			}
		}
		if rerr == io.EOF || len(buf) == 0 {
			break
		}
		if rerr != nil {
			w.inner.Close(ctx, fw)
			return rerr
		}
	}
	if err := w.cache.Close(ctx, wh.h); err != nil {
		w.inner.Close(ctx, fw)
		return err
	}
	if err := w.cache.Unlink(ctx, w.scratchPath(int(id))); err != nil {
		w.inner.Close(ctx, fw)
		return err
	}
	return w.inner.Close(ctx, fw)
}

func (w *Writecache) Unlink(ctx context.Context, path ufs.Path) error {
	return w.inner.Unlink(ctx, path)
}

func (w *Writecache) Mkdir(ctx context.Context, path ufs.Path) error {
	return w.inner.Mkdir(ctx, path)
}

func (w *Writecache) Rmdir(ctx context.Context, path ufs.Path) error {
	return w.inner.Rmdir(ctx, path)
}

func (w *Writecache) Start(ctx context.Context) error {
	if err := w.inner.Start(ctx); err != nil {
		return err
	}
	return w.cache.Start(ctx)
}

func (w *Writecache) Stop(ctx context.Context) error {
	if err := w.cache.Stop(ctx); err != nil {
		return err
	}
	return w.inner.Stop(ctx)
}

// Describe implements ufs.Describable when both inner and cache do.
func (w *Writecache) Describe() ufs.Descriptor {
	params := map[string]any{}
	if d, ok := w.inner.(ufs.Describable); ok {
		params["ufs"] = d.Describe()
	}
	if d, ok := w.cache.(ufs.Describable); ok {
		params["cache"] = d.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.Writecache", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.Writecache", func(params map[string]any) (ufs.Store, error) {
		inner, err := ufs.FromDescriptor(params["ufs"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		cache, err := ufs.FromDescriptor(params["cache"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		return NewWritecache(inner, cache), nil
	})
}
