package combinator

import (
	"context"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// SimpleAsync adapts a Store to AsyncStore by calling straight through
// and returning an already-resolved channel — appropriate when inner
// never actually blocks (Memory, and anything else where "async" is
// purely a type-system formality). Grounded on
// impl/simpleasyn.py, whose docstring says exactly this: "Applicable
// when no blocking is involved so there is no need to dispatch to
// another thread."
type SimpleAsync struct {
	inner ufs.Store
}

var _ ufs.AsyncStore = (*SimpleAsync)(nil)

func NewSimpleAsync(inner ufs.Store) *SimpleAsync {
	return &SimpleAsync{inner: inner}
}

func (s *SimpleAsync) Ls(ctx context.Context, path ufs.Path) <-chan ufs.Result[[]string] {
	v, err := s.inner.Ls(ctx, path)
	return ufs.Resolved(ufs.Result[[]string]{Value: v, Err: err})
}

func (s *SimpleAsync) Info(ctx context.Context, path ufs.Path) <-chan ufs.Result[ufs.FileStat] {
	v, err := s.inner.Info(ctx, path)
	return ufs.Resolved(ufs.Result[ufs.FileStat]{Value: v, Err: err})
}

func (s *SimpleAsync) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) <-chan ufs.Result[ufs.Handle] {
	v, err := s.inner.Open(ctx, path, mode, sizeHint)
	return ufs.Resolved(ufs.Result[ufs.Handle]{Value: v, Err: err})
}

func (s *SimpleAsync) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) <-chan ufs.Result[int64] {
	v, err := s.inner.Seek(ctx, h, pos, whence)
	return ufs.Resolved(ufs.Result[int64]{Value: v, Err: err})
}

func (s *SimpleAsync) Read(ctx context.Context, h ufs.Handle, amnt int) <-chan ufs.Result[[]byte] {
	v, err := s.inner.Read(ctx, h, amnt)
	return ufs.Resolved(ufs.Result[[]byte]{Value: v, Err: err})
}

func (s *SimpleAsync) Write(ctx context.Context, h ufs.Handle, data []byte) <-chan ufs.Result[int] {
	v, err := s.inner.Write(ctx, h, data)
	return ufs.Resolved(ufs.Result[int]{Value: v, Err: err})
}

func (s *SimpleAsync) Truncate(ctx context.Context, h ufs.Handle, length int64) <-chan ufs.Result[struct{}] {
	err := s.inner.Truncate(ctx, h, length)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Close(ctx context.Context, h ufs.Handle) <-chan ufs.Result[struct{}] {
	err := s.inner.Close(ctx, h)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Unlink(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	err := s.inner.Unlink(ctx, path)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Mkdir(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	err := s.inner.Mkdir(ctx, path)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Rmdir(ctx context.Context, path ufs.Path) <-chan ufs.Result[struct{}] {
	err := s.inner.Rmdir(ctx, path)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Flush(ctx context.Context, h ufs.Handle) <-chan ufs.Result[struct{}] {
	err := s.inner.Flush(ctx, h)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Start(ctx context.Context) <-chan ufs.Result[struct{}] {
	err := s.inner.Start(ctx)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}

func (s *SimpleAsync) Stop(ctx context.Context) <-chan ufs.Result[struct{}] {
	err := s.inner.Stop(ctx)
	return ufs.Resolved(ufs.Result[struct{}]{Err: err})
}
