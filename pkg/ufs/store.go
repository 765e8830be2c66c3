package ufs

import "context"

// Store is the synchronous UFS contract every leaf backend, combinator,
// and adapter in this module ultimately implements or wraps. Ls, Info,
// Open, Seek, Read, Write, Truncate, Close, and Unlink are essential:
// conforming implementations must do real work for all of them. Mkdir,
// Rmdir, Flush, Start, and Stop are optional and may be no-ops for
// backends with no notion of directories, buffering, or lifecycle.
//
// ctx governs cancellation of the call itself; a Store is free to ignore
// ctx entirely for backends with no blocking I/O (Memory), and must honor
// it for anything that crosses a process or network boundary.
type Store interface {
	Ls(ctx context.Context, path Path) ([]string, error)
	Info(ctx context.Context, path Path) (FileStat, error)
	Open(ctx context.Context, path Path, mode OpenMode, sizeHint *int64) (Handle, error)
	Seek(ctx context.Context, h Handle, pos int64, whence SeekWhence) (int64, error)
	Read(ctx context.Context, h Handle, amnt int) ([]byte, error)
	Write(ctx context.Context, h Handle, data []byte) (int, error)
	Truncate(ctx context.Context, h Handle, length int64) error
	Close(ctx context.Context, h Handle) error
	Unlink(ctx context.Context, path Path) error

	Mkdir(ctx context.Context, path Path) error
	Rmdir(ctx context.Context, path Path) error
	Flush(ctx context.Context, h Handle) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// AsyncStore is the non-blocking counterpart of Store: every method
// returns immediately having only scheduled the work, signaling completion
// by resolving the returned channel exactly once. SyncToAsync/AsyncToSync
// (pkg/combinator) bridge between the two shapes.
type AsyncStore interface {
	Ls(ctx context.Context, path Path) <-chan Result[[]string]
	Info(ctx context.Context, path Path) <-chan Result[FileStat]
	Open(ctx context.Context, path Path, mode OpenMode, sizeHint *int64) <-chan Result[Handle]
	Seek(ctx context.Context, h Handle, pos int64, whence SeekWhence) <-chan Result[int64]
	Read(ctx context.Context, h Handle, amnt int) <-chan Result[[]byte]
	Write(ctx context.Context, h Handle, data []byte) <-chan Result[int]
	Truncate(ctx context.Context, h Handle, length int64) <-chan Result[struct{}]
	Close(ctx context.Context, h Handle) <-chan Result[struct{}]
	Unlink(ctx context.Context, path Path) <-chan Result[struct{}]

	Mkdir(ctx context.Context, path Path) <-chan Result[struct{}]
	Rmdir(ctx context.Context, path Path) <-chan Result[struct{}]
	Flush(ctx context.Context, h Handle) <-chan Result[struct{}]
	Start(ctx context.Context) <-chan Result[struct{}]
	Stop(ctx context.Context) <-chan Result[struct{}]
}

// Result carries either a value or an error down a completion channel,
// mirroring the (task_id, value, error) wire tuple of the socket protocol.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Err wraps a failure.
func Err[T any](err error) Result[T] { return Result[T]{Err: err} }

// Resolved returns an already-closed, already-resolved channel — used by
// AsyncStore adapters around inherently synchronous backends (e.g.
// SimpleAsync) that have no real asynchrony to offer.
func Resolved[T any](r Result[T]) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	ch <- r
	close(ch)
	return ch
}
