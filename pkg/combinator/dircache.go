package combinator

import (
	"context"
	"sync"
	"time"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// DirCache memoizes Ls and Info results for ttl, invalidating the
// relevant entries on every mutation (open, close, unlink, mkdir, rmdir).
// Grounded on impl/dircache.py; useful in front of a backend where ls/info
// are expensive round trips (httpstore, s3store, drsstore).
type DirCache struct {
	inner     ufs.Store
	ttl       time.Duration
	lsCache   *ttlCache[[]string]
	infoCache *ttlCache[ufs.FileStat]

	mu  sync.Mutex
	fds map[ufs.Handle]ufs.Path
}

var _ ufs.Store = (*DirCache)(nil)

// NewDirCache wraps inner, caching ls/info results for ttl (default a
// minute if ttl <= 0, matching impl/dircache.py's default).
func NewDirCache(inner ufs.Store, ttl time.Duration) *DirCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	d := &DirCache{inner: inner, ttl: ttl, fds: make(map[ufs.Handle]ufs.Path)}
	d.lsCache = newTTLCache(ttl, func(key string) ([]string, error) {
		return inner.Ls(context.Background(), ufs.NewPath(key))
	})
	d.infoCache = newTTLCache(ttl, func(key string) (ufs.FileStat, error) {
		return inner.Info(context.Background(), ufs.NewPath(key))
	})
	return d
}

func (d *DirCache) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	return d.lsCache.Call(path.String())
}

func (d *DirCache) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return d.infoCache.Call(path.String())
}

func (d *DirCache) invalidate(path ufs.Path) {
	d.infoCache.Discard(path.String())
	d.lsCache.Discard(path.Parent().String())
}

func (d *DirCache) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	d.invalidate(path)
	h, err := d.inner.Open(ctx, path, mode, sizeHint)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	d.fds[h] = path
	d.mu.Unlock()
	return h, nil
}

func (d *DirCache) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	return d.inner.Seek(ctx, h, pos, whence)
}

func (d *DirCache) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	return d.inner.Read(ctx, h, amnt)
}

func (d *DirCache) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	return d.inner.Write(ctx, h, data)
}

func (d *DirCache) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	return d.inner.Truncate(ctx, h, length)
}

func (d *DirCache) Close(ctx context.Context, h ufs.Handle) error {
	d.mu.Lock()
	path, ok := d.fds[h]
	delete(d.fds, h)
	d.mu.Unlock()
	if ok {
		d.invalidate(path)
	}
	return d.inner.Close(ctx, h)
}

func (d *DirCache) Unlink(ctx context.Context, path ufs.Path) error {
	d.invalidate(path)
	return d.inner.Unlink(ctx, path)
}

func (d *DirCache) Mkdir(ctx context.Context, path ufs.Path) error {
	d.infoCache.Discard(path.String())
	d.lsCache.Discard(path.String())
	d.lsCache.Discard(path.Parent().String())
	return d.inner.Mkdir(ctx, path)
}

func (d *DirCache) Rmdir(ctx context.Context, path ufs.Path) error {
	d.infoCache.Discard(path.String())
	d.lsCache.Discard(path.String())
	d.lsCache.Discard(path.Parent().String())
	return d.inner.Rmdir(ctx, path)
}

func (d *DirCache) Flush(ctx context.Context, h ufs.Handle) error {
	return d.inner.Flush(ctx, h)
}

func (d *DirCache) Start(ctx context.Context) error { return d.inner.Start(ctx) }
func (d *DirCache) Stop(ctx context.Context) error  { return d.inner.Stop(ctx) }

// Describe implements ufs.Describable when inner does.
func (d *DirCache) Describe() ufs.Descriptor {
	params := map[string]any{"ttl": d.ttl.Seconds()}
	if desc, ok := d.inner.(ufs.Describable); ok {
		params["ufs"] = desc.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.DirCache", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.DirCache", func(params map[string]any) (ufs.Store, error) {
		inner, err := ufs.FromDescriptor(params["ufs"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		ttl := time.Minute
		if secs, ok := params["ttl"].(float64); ok {
			ttl = time.Duration(secs * float64(time.Second))
		}
		return NewDirCache(inner, ttl), nil
	})
}
