//go:build cgofuse

// Package cgofuse mounts a ufs.Store using github.com/winfsp/cgofuse, the
// cross-platform (Linux/macOS/Windows, via WinFsp on Windows) alternative to
// internal/mount/fuse's hanwen/go-fuse binding. Built behind the `cgofuse`
// build tag exactly the way scttfrdmn-objectfs's own internal/fuse package
// gates cgofuse_filesystem.go/cgofuse_mount.go, since cgofuse requires cgo
// and a platform FUSE/WinFsp install the default build should not demand.
//
// Grounded on access/fuse.py's FUSEOps for the operation set and readonly
// behavior, and on scttfrdmn-objectfs's internal/fuse/cgofuse_filesystem.go
// for the winfsp/cgofuse FileSystemBase shape (errc-returning methods,
// Stat_t field population, NewFileSystemHost/Mount/Unmount lifecycle).
package cgofuse

import (
	"context"
	"os"

	winfsp "github.com/winfsp/cgofuse/fuse"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

const (
	modeFile = winfsp.S_IFREG | 0644
	modeDir  = winfsp.S_IFDIR | 0755
)

// FS implements winfsp/cgofuse's FileSystemBase over a ufs.Store.
type FS struct {
	winfsp.FileSystemBase
	store    ufs.Store
	readonly bool
}

// New returns an FS over store.
func New(store ufs.Store, readonly bool) *FS {
	return &FS{store: store, readonly: readonly}
}

func errc(err error) int {
	switch {
	case err == nil:
		return 0
	case isTaxonomy(err, ufs.ErrNotFound):
		return -winfsp.ENOENT
	case isTaxonomy(err, ufs.ErrAlreadyExists):
		return -winfsp.EEXIST
	case isTaxonomy(err, ufs.ErrNotADirectory):
		return -winfsp.ENOTDIR
	case isTaxonomy(err, ufs.ErrIsADirectory):
		return -winfsp.EISDIR
	case isTaxonomy(err, ufs.ErrNotEmpty):
		return -winfsp.ENOTEMPTY
	case isTaxonomy(err, ufs.ErrPermissionDenied):
		return -winfsp.EPERM
	case isTaxonomy(err, ufs.ErrUnsupported):
		return -winfsp.ENOTSUP
	default:
		return -winfsp.EROFS
	}
}

func isTaxonomy(err error, sentinel error) bool {
	pe, ok := err.(*ufs.PathError)
	return ok && pe.Unwrap() == sentinel
}

func (f *FS) fillStat(stat *winfsp.Stat_t, st ufs.FileStat) {
	if st.IsDir() {
		stat.Mode = modeDir
	} else {
		stat.Mode = modeFile
		stat.Size = st.Size
	}
	stat.Uid = uint32(os.Getuid())
	stat.Gid = uint32(os.Getgid())
	if !st.Mtime.IsZero() {
		stat.Mtim.Sec = st.Mtime.Unix()
	}
}

func (f *FS) Getattr(path string, stat *winfsp.Stat_t, fh uint64) int {
	st, err := f.store.Info(context.Background(), ufs.NewPath(path))
	if err != nil {
		return errc(err)
	}
	f.fillStat(stat, st)
	return 0
}

func (f *FS) Open(path string, flags int) (int, uint64) {
	if f.readonly && flags&(os.O_WRONLY|os.O_RDWR) != 0 {
		return -winfsp.EROFS, 0
	}
	mode := openModeFromFlags(flags)
	h, err := f.store.Open(context.Background(), ufs.NewPath(path), mode, nil)
	if err != nil {
		return errc(err), 0
	}
	return 0, uint64(h)
}

func (f *FS) Create(path string, flags int, mode uint32) (int, uint64) {
	if f.readonly {
		return -winfsp.EROFS, 0
	}
	h, err := f.store.Open(context.Background(), ufs.NewPath(path), ufs.OpenMode{Write: true}, nil)
	if err != nil {
		return errc(err), 0
	}
	return 0, uint64(h)
}

func (f *FS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	ctx := context.Background()
	h := ufs.Handle(fh)
	if _, err := f.store.Seek(ctx, h, ofst, ufs.SeekStart); err != nil {
		return errc(err)
	}
	data, err := f.store.Read(ctx, h, len(buff))
	if err != nil {
		return errc(err)
	}
	copy(buff, data)
	return len(data)
}

func (f *FS) Write(path string, buff []byte, ofst int64, fh uint64) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	ctx := context.Background()
	h := ufs.Handle(fh)
	if _, err := f.store.Seek(ctx, h, ofst, ufs.SeekStart); err != nil {
		return errc(err)
	}
	n, err := f.store.Write(ctx, h, buff)
	if err != nil {
		return errc(err)
	}
	return n
}

func (f *FS) Release(path string, fh uint64) int {
	return errc(f.store.Close(context.Background(), ufs.Handle(fh)))
}

func (f *FS) Flush(path string, fh uint64) int {
	return errc(f.store.Flush(context.Background(), ufs.Handle(fh)))
}

func (f *FS) Truncate(path string, size int64, fh uint64) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	ctx := context.Background()
	if fh != ^uint64(0) {
		return errc(f.store.Truncate(ctx, ufs.Handle(fh), size))
	}
	h, err := f.store.Open(ctx, ufs.NewPath(path), ufs.OpenMode{Read: true, Updating: true}, nil)
	if err != nil {
		return errc(err)
	}
	defer f.store.Close(ctx, h)
	return errc(f.store.Truncate(ctx, h, size))
}

func (f *FS) Readdir(path string, fill func(name string, stat *winfsp.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	names, err := f.store.Ls(context.Background(), ufs.NewPath(path))
	if err != nil {
		return errc(err)
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	for _, name := range names {
		if !fill(name, nil, 0) {
			break
		}
	}
	return 0
}

func (f *FS) Mkdir(path string, mode uint32) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	return errc(f.store.Mkdir(context.Background(), ufs.NewPath(path)))
}

func (f *FS) Rmdir(path string) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	return errc(f.store.Rmdir(context.Background(), ufs.NewPath(path)))
}

func (f *FS) Unlink(path string) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	return errc(f.store.Unlink(context.Background(), ufs.NewPath(path)))
}

func (f *FS) Rename(oldpath string, newpath string) int {
	if f.readonly {
		return -winfsp.EROFS
	}
	return errc(ufs.Rename(context.Background(), f.store, ufs.NewPath(oldpath), ufs.NewPath(newpath)))
}

func (f *FS) Statfs(path string, stat *winfsp.Statfs_t) int {
	stat.Bsize = 512
	stat.Blocks = 4096
	stat.Bavail = 2048
	stat.Bfree = 2048
	return 0
}

// openModeFromFlags mirrors UOS.open's os.O_*-to-OpenMode translation
// (internal/mount/fuse keeps the canonical comment; cgofuse hands raw
// platform flags through the same os.O_* constants).
func openModeFromFlags(flags int) ufs.OpenMode {
	switch {
	case flags&os.O_TRUNC != 0:
		return ufs.OpenMode{Write: true}
	case flags&os.O_APPEND != 0:
		return ufs.OpenMode{Append: true, Updating: flags&os.O_RDWR != 0}
	case flags&os.O_RDWR != 0:
		return ufs.OpenMode{Read: true, Updating: true}
	case flags&os.O_WRONLY != 0:
		return ufs.OpenMode{Write: true}
	default:
		return ufs.OpenMode{Read: true}
	}
}

// Server is the running cgofuse mount.
type Server struct {
	host *winfsp.FileSystemHost
}

// Mount starts host.Mount for store at mountDir on its own goroutine and
// returns at once, the same way the teacher's Mount backgrounds
// host.Mount. The result of host.Mount is not reported back: a mount that
// fails still returns a Server and a nil error.
func Mount(_ context.Context, store ufs.Store, mountDir string, readonly bool) (*Server, error) {
	fsys := New(store, readonly)
	host := winfsp.NewFileSystemHost(fsys)
	s := &Server{host: host}
	go host.Mount(mountDir, []string{"-o", "fsname=ufs"})
	return s, nil
}

// Unmount tears down the mount.
func (s *Server) Unmount() bool { return s.host.Unmount() }
