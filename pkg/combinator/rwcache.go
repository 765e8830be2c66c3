package combinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

type rwcacheHandle struct {
	h    ufs.Handle
	path ufs.Path
}

// ReadWriteCache stages every open through cache, regardless of mode:
// read opens first Cat the whole file from inner into a scratch slot,
// writes always accumulate in the scratch slot and are Put back to inner
// whole on Close. Grounded on impl/rwcache.py — the one-size-fits-all
// counterpart to Writecache, for backends that only expose Cat/Put (no
// streaming read at all), typically paired with atomic.FromAtomic
// backends or a pkg/ufs/atomic bridge underneath inner.
type ReadWriteCache struct {
	inner ufs.Store
	cache ufs.Store

	mu      sync.Mutex
	next    int
	handles map[ufs.Handle]*rwcacheHandle
}

var _ ufs.Store = (*ReadWriteCache)(nil)

// NewReadWriteCache wraps inner, using cache as scratch space for every
// open.
func NewReadWriteCache(inner, cache ufs.Store) *ReadWriteCache {
	return &ReadWriteCache{
		inner:   inner,
		cache:   cache,
		next:    5,
		handles: make(map[ufs.Handle]*rwcacheHandle),
	}
}

func (r *ReadWriteCache) scratchPath(id int) ufs.Path {
	return ufs.NewPath(fmt.Sprintf("/%d", id))
}

func (r *ReadWriteCache) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	names, err := r.inner.Ls(ctx, path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	out := append([]string(nil), names...)
	for _, n := range names {
		seen[n] = struct{}{}
	}
	r.mu.Lock()
	for _, rh := range r.handles {
		if rh.path.Parent() != path {
			continue
		}
		n := rh.path.Name()
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	r.mu.Unlock()
	return out, nil
}

func (r *ReadWriteCache) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	r.mu.Lock()
	for id, rh := range r.handles {
		if rh.path == path {
			r.mu.Unlock()
			return r.cache.Info(ctx, r.scratchPath(int(id)))
		}
	}
	r.mu.Unlock()
	return r.inner.Info(ctx, path)
}

func (r *ReadWriteCache) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.mu.Unlock()
	scratch := r.scratchPath(id)

	if !mode.Write {
		data, err := ufs.Cat(ctx, r.inner, path)
		if err != nil {
			return 0, err
		}
		if err := ufs.Put(ctx, r.cache, scratch, data); err != nil {
			return 0, err
		}
	}

	h, err := r.cache.Open(ctx, scratch, mode, sizeHint)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.handles[ufs.Handle(id)] = &rwcacheHandle{h: h, path: path}
	r.mu.Unlock()
	return ufs.Handle(id), nil
}

func (r *ReadWriteCache) get(id ufs.Handle) (*rwcacheHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh, ok := r.handles[id]
	if !ok {
		return nil, ufs.NotFound("handle", ufs.Root)
	}
	return rh, nil
}

func (r *ReadWriteCache) Seek(ctx context.Context, id ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	rh, err := r.get(id)
	if err != nil {
		return 0, err
	}
	return r.cache.Seek(ctx, rh.h, pos, whence)
}

func (r *ReadWriteCache) Read(ctx context.Context, id ufs.Handle, amnt int) ([]byte, error) {
	rh, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return r.cache.Read(ctx, rh.h, amnt)
}

func (r *ReadWriteCache) Write(ctx context.Context, id ufs.Handle, data []byte) (int, error) {
	rh, err := r.get(id)
	if err != nil {
		return 0, err
	}
	return r.cache.Write(ctx, rh.h, data)
}

func (r *ReadWriteCache) Truncate(ctx context.Context, id ufs.Handle, length int64) error {
	rh, err := r.get(id)
	if err != nil {
		return err
	}
	return r.cache.Truncate(ctx, rh.h, length)
}

func (r *ReadWriteCache) Flush(ctx context.Context, id ufs.Handle) error {
	rh, err := r.get(id)
	if err != nil {
		return err
	}
	return r.cache.Flush(ctx, rh.h)
}

func (r *ReadWriteCache) Close(ctx context.Context, id ufs.Handle) error {
	r.mu.Lock()
	rh, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return ufs.NotFound("close", ufs.Root)
	}

	scratch := r.scratchPath(int(id))
	if err := r.cache.Close(ctx, rh.h); err != nil {
		return err
	}
	data, err := ufs.Cat(ctx, r.cache, scratch)
	if err != nil {
		return err
	}
	if err := ufs.Put(ctx, r.inner, rh.path, data); err != nil {
		return err
	}
	return r.cache.Unlink(ctx, scratch)
}

func (r *ReadWriteCache) Unlink(ctx context.Context, path ufs.Path) error {
	return r.inner.Unlink(ctx, path)
}

func (r *ReadWriteCache) Mkdir(ctx context.Context, path ufs.Path) error {
	return r.inner.Mkdir(ctx, path)
}

func (r *ReadWriteCache) Rmdir(ctx context.Context, path ufs.Path) error {
	return r.inner.Rmdir(ctx, path)
}

func (r *ReadWriteCache) Start(ctx context.Context) error {
	if err := r.inner.Start(ctx); err != nil {
		return err
	}
	return r.cache.Start(ctx)
}

func (r *ReadWriteCache) Stop(ctx context.Context) error {
	if err := r.cache.Stop(ctx); err != nil {
		return err
	}
	return r.inner.Stop(ctx)
}

// Describe implements ufs.Describable when both inner and cache do.
func (r *ReadWriteCache) Describe() ufs.Descriptor {
	params := map[string]any{}
	if d, ok := r.inner.(ufs.Describable); ok {
		params["ufs"] = d.Describe()
	}
	if d, ok := r.cache.(ufs.Describable); ok {
		params["cache"] = d.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.ReadWriteCache", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.ReadWriteCache", func(params map[string]any) (ufs.Store, error) {
		inner, err := ufs.FromDescriptor(params["ufs"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		cache, err := ufs.FromDescriptor(params["cache"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		return NewReadWriteCache(inner, cache), nil
	})
}
