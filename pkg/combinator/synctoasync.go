package combinator

import (
	"context"
	"sync"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// SyncToAsync adapts a Store to AsyncStore by running every call on a
// single dedicated background goroutine, one at a time, so a blocking
// inner implementation never stalls its caller's goroutine. Grounded on
// impl/asyn.py's `ufs_thread`: a single worker thread drains a queue of
// (op, args) jobs and posts results back, and every public method is
// just "enqueue a job, return a future for it" — `_forward` there,
// `submitAsync` here.
type SyncToAsync struct {
	inner ufs.Store

	mu      sync.Mutex
	started bool
	jobs    chan func()
}

var _ ufs.AsyncStore = (*SyncToAsync)(nil)

func NewSyncToAsync(inner ufs.Store) *SyncToAsync {
	return &SyncToAsync{inner: inner, jobs: make(chan func())}
}

func (s *SyncToAsync) ensureWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go func() {
		for job := range s.jobs {
			job()
		}
	}()
}

func submitAsync[T any](s *SyncToAsync, fn func() (T, error)) <-chan ufs.Result[T] {
	s.ensureWorker()
	ch := make(chan ufs.Result[T], 1)
	s.jobs <- func() {
		v, err := fn()
		ch <- ufs.Result[T]{Value: v, Err: err}
		close(ch)
	}
	return ch
}

func submitAsyncVoid(s *SyncToAsync, fn func() error) <-chan ufs.Result[struct{}] {
	return submitAsync(s, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

func (s *SyncToAsync) Ls(ctx context.Context, path ufs.Path) <-chan ufs.Result[[]string] {
	return submitAsync(s, func() ([]string, error) { return s.inner.Ls(ctx, path) })
}

func (s *SyncToAsync) Info(ctx context.Context, path ufs.Path) <-chan ufs.Result[ufs.FileStat] {
	return submitAsync(s, func() (ufs.FileStat, error) { return s.inner.Info(ctx, path) })
}

func (s *SyncToAsync) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) <-chan ufs.Result[ufs.Handle] {
	return submitAsync(s, func() (ufs.Handle, error) { return s.inner.Open(ctx, path, mode, sizeHint) })
}

func (s *SyncToAsync) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) <-chan ufs.Result[int64] {
	return submitAsync(s, func() (int64, error) { return s.inner.Seek(ctx, h, pos, whence) })
}

func (s *SyncToAsync) Read(ctx context.Context, h ufs.Handle, amnt int) <-chan ufs.Result[[]byte] {
	return submitAsync(s, func() ([]byte, error) { return s.inner.Read(ctx, h, amnt) })
}

func (s *SyncToAsync) Write(ctx context.Context, h ufs.Handle, data []byte) <-chan ufs.Result[int] {
	return submitAsync(s, func() (int, error) { return s.inner.Write(ctx, h, data) })
}

func (s *SyncToAsync) Truncate(ctx context.Context, h ufs.Handle, length int64) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Truncate(ctx, h, length) })
}

func (s *SyncToAsync) Close(ctx context.Context, h ufs.Handle) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Close(ctx, h) })
}

func (s *SyncToAsync) Unlink(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Unlink(ctx, path) })
}

func (s *SyncToAsync) Mkdir(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Mkdir(ctx, path) })
}

func (s *SyncToAsync) Rmdir(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Rmdir(ctx, path) })
}

func (s *SyncToAsync) Flush(ctx context.Context, h ufs.Handle) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Flush(ctx, h) })
}

func (s *SyncToAsync) Start(ctx context.Context) <-chan ufs.Result[struct{}] {
	return submitAsyncVoid(s, func() error { return s.inner.Start(ctx) })
}

// Stop runs inner.Stop on the worker and then retires the worker
// goroutine, so a later Start spins up a fresh one. Written by hand
// rather than via submitAsyncVoid because the job itself needs to close
// the jobs channel from inside the worker goroutine once it's the last
// job processed — tacking that onto a second reader of the same
// completion channel would race the caller for the one buffered value.
func (s *SyncToAsync) Stop(ctx context.Context) <-chan ufs.Result[struct{}] {
	s.ensureWorker()
	ch := make(chan ufs.Result[struct{}], 1)

	s.mu.Lock()
	jobs := s.jobs
	s.mu.Unlock()

	jobs <- func() {
		err := s.inner.Stop(ctx)

		s.mu.Lock()
		close(jobs)
		s.started = false
		s.jobs = make(chan func())
		s.mu.Unlock()

		ch <- ufs.Result[struct{}]{Err: err}
		close(ch)
	}
	return ch
}
