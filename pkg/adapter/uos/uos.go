// Package uos implements an os-package-like interface over a ufs.Store:
// open/read/write/close by file descriptor, stat, mkdir, rename, and the
// rest of the os-module surface a UFS-backed filesystem can support.
//
// Grounded on access/os.py's UOS, including its open-flag-to-OpenMode
// mapping. UFS has no uid/gid/mode of its own; Stat here returns the
// store's ufs.FileStat as is, and the fixed placeholder permission bits
// UOS.stat synthesizes are filled in by the mount drivers
// (internal/mount/fuse, internal/mount/cgofuse) instead.
package uos

import (
	"context"
	"os"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// UOS wraps a Store with os-module-shaped methods.
type UOS struct {
	store ufs.Store
}

// New returns a UOS backed by store.
func New(store ufs.Store) UOS { return UOS{store: store} }

// Access reports whether path exists, mirroring os.access with a single
// existence check (UFS carries no permission bits to test against mode).
func (u UOS) Access(ctx context.Context, path ufs.Path, mode int) bool {
	_, err := u.store.Info(ctx, path)
	return err == nil
}

// Open opens path according to the os.O_* flags, translating them into a
// ufs.OpenMode exactly as UOS.open does: O_TRUNC forces "wb", O_APPEND
// picks "ab"/"ab+" depending on O_RDWR, O_RDWR alone is "rb+", O_WRONLY is
// "wb", and anything else is the read-only default.
func (u UOS) Open(ctx context.Context, path ufs.Path, flags int, sizeHint *int64) (ufs.Handle, error) {
	var mode ufs.OpenMode
	switch {
	case flags&os.O_TRUNC != 0:
		mode = ufs.OpenMode{Write: true}
	case flags&os.O_APPEND != 0:
		mode = ufs.OpenMode{Append: true, Updating: flags&os.O_RDWR != 0}
	case flags&os.O_RDWR != 0:
		mode = ufs.OpenMode{Read: true, Updating: true}
	case flags&os.O_WRONLY != 0:
		mode = ufs.OpenMode{Write: true}
	default:
		mode = ufs.OpenMode{Read: true}
	}
	return u.store.Open(ctx, path, mode, sizeHint)
}

// Fsync flushes h, mirroring UOS.fsync/fdatasync (UFS makes no distinction
// between the two).
func (u UOS) Fsync(ctx context.Context, h ufs.Handle) error {
	return u.store.Flush(ctx, h)
}

// Stat returns the store's Info for path unchanged. UFS has no
// uid/gid/mode of its own, so the result carries only type, size and
// times.
func (u UOS) Stat(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	return u.store.Info(ctx, path)
}

// Mkdir creates the directory at path.
func (u UOS) Mkdir(ctx context.Context, path ufs.Path) error {
	return u.store.Mkdir(ctx, path)
}

// Lseek repositions h, mirroring UOS.lseek.
func (u UOS) Lseek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	return u.store.Seek(ctx, h, pos, whence)
}

// Read reads up to amnt bytes from h.
func (u UOS) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	return u.store.Read(ctx, h, amnt)
}

// Listdir lists path's immediate children, mirroring os.listdir.
func (u UOS) Listdir(ctx context.Context, path ufs.Path) ([]string, error) {
	return u.store.Ls(ctx, path)
}

// Close releases h.
func (u UOS) Close(ctx context.Context, h ufs.Handle) error {
	return u.store.Close(ctx, h)
}

// Rename moves src to dst.
func (u UOS) Rename(ctx context.Context, src, dst ufs.Path) error {
	return ufs.Rename(ctx, u.store, src, dst)
}

// Rmdir removes the directory at path.
func (u UOS) Rmdir(ctx context.Context, path ufs.Path) error {
	return u.store.Rmdir(ctx, path)
}

// Unlink removes the file at path.
func (u UOS) Unlink(ctx context.Context, path ufs.Path) error {
	return u.store.Unlink(ctx, path)
}

// Write writes data to h.
func (u UOS) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	return u.store.Write(ctx, h, data)
}

// TruncateHandle truncates the already-open handle h to length. It and
// TruncatePath together mirror UOS.truncate's dual path-or-fd signature,
// exposed as two methods instead of Python's isinstance check.
func (u UOS) TruncateHandle(ctx context.Context, h ufs.Handle, length int64) error {
	return u.store.Truncate(ctx, h, length)
}

// TruncatePath opens path for read-write, truncates it to length, and
// closes it again, mirroring UOS.truncate's path branch.
func (u UOS) TruncatePath(ctx context.Context, path ufs.Path, length int64) error {
	h, err := u.store.Open(ctx, path, ufs.OpenMode{Read: true, Updating: true}, nil)
	if err != nil {
		return err
	}
	if err := u.store.Truncate(ctx, h, length); err != nil {
		u.store.Close(ctx, h)
		return err
	}
	return u.store.Close(ctx, h)
}
