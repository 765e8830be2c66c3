package combinator

import (
	"context"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// AsyncToSync adapts an AsyncStore back to a blocking Store by simply
// waiting on the channel each call returns. Grounded on impl/sync.py's
// `Sync` class, which forwards every call into a dedicated event-loop
// thread and blocks the caller on the matching response queue get — the
// channel receive here plays the same role without needing a second
// thread, since the channel IS the synchronization point.
type AsyncToSync struct {
	inner ufs.AsyncStore
}

var _ ufs.Store = (*AsyncToSync)(nil)

func NewAsyncToSync(inner ufs.AsyncStore) *AsyncToSync {
	return &AsyncToSync{inner: inner}
}

func await[T any](ctx context.Context, ch <-chan ufs.Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (s *AsyncToSync) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	return await(ctx, s.inner.Ls(ctx, path))
}

func (s *AsyncToSync) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return await(ctx, s.inner.Info(ctx, path))
}

func (s *AsyncToSync) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	return await(ctx, s.inner.Open(ctx, path, mode, sizeHint))
}

func (s *AsyncToSync) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	return await(ctx, s.inner.Seek(ctx, h, pos, whence))
}

func (s *AsyncToSync) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	return await(ctx, s.inner.Read(ctx, h, amnt))
}

func (s *AsyncToSync) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	return await(ctx, s.inner.Write(ctx, h, data))
}

func (s *AsyncToSync) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	_, err := await(ctx, s.inner.Truncate(ctx, h, length))
	return err
}

func (s *AsyncToSync) Close(ctx context.Context, h ufs.Handle) error {
	_, err := await(ctx, s.inner.Close(ctx, h))
	return err
}

func (s *AsyncToSync) Unlink(ctx context.Context, path ufs.Path) error {
	_, err := await(ctx, s.inner.Unlink(ctx, path))
	return err
}

func (s *AsyncToSync) Mkdir(ctx context.Context, path ufs.Path) error {
	_, err := await(ctx, s.inner.Mkdir(ctx, path))
	return err
}

func (s *AsyncToSync) Rmdir(ctx context.Context, path ufs.Path) error {
	_, err := await(ctx, s.inner.Rmdir(ctx, path))
	return err
}

func (s *AsyncToSync) Flush(ctx context.Context, h ufs.Handle) error {
	_, err := await(ctx, s.inner.Flush(ctx, h))
	return err
}

func (s *AsyncToSync) Start(ctx context.Context) error {
	_, err := await(ctx, s.inner.Start(ctx))
	return err
}

func (s *AsyncToSync) Stop(ctx context.Context) error {
	_, err := await(ctx, s.inner.Stop(ctx))
	return err
}
