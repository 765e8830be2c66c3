// Package fuse mounts a ufs.Store as a real FUSE filesystem using
// github.com/hanwen/go-fuse/v2, the default mount backend on platforms with
// a native FUSE kernel driver (Linux, and macOS with macFUSE installed).
//
// Grounded on access/fuse.py's FUSEOps (the pyfuse Operations adapter over
// UOS) for the operation set and its readonly/error-translation behavior,
// and on scttfrdmn-objectfs's internal/fuse (filesystem.go, mount.go) for
// the Go-idiomatic shape: an fs.Inode-embedding Node type, a FileHandle
// implementing the per-open-file methods, and an fs.Mount-based
// MountManager. Where the teacher talks to an S3 backend/cache/write-buffer
// directly, this version talks to a ufs.Store through adapter/uos.UOS,
// since UFS already gives it the open/read/write/seek/stat surface UOS
// wraps.
//
// UFS carries no uid/gid/mode/symlink/device model (spec Non-goal), so this
// mirrors access/os.py's UOS.stat: every file reports S_IFREG|0644, every
// directory S_IFDIR|0755, and ownership is the process's own uid/gid rather
// than anything stored in the backend.
package fuse

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/MaayanLab/ufs/pkg/adapter/uos"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

const (
	modeFile = syscall.S_IFREG | 0644
	modeDir  = syscall.S_IFDIR | 0755
)

// ufsUID/ufsGID own every reported inode, mirroring UOS.stat's os.environ
// UID/GID override defaulting to the running process's own identity.
var (
	ufsUID = os.Getuid()
	ufsGID = os.Getgid()
)

// FS wraps a ufs.Store for mounting. readonly rejects every mutating
// operation with EROFS before it reaches the store, mirroring FUSEOps's own
// readonly guard on each mutating method.
type FS struct {
	store    ufs.Store
	os       uos.UOS
	readonly bool
}

// New returns an FS over store. When readonly is true every write, create,
// delete, or rename call fails with EROFS.
func New(store ufs.Store, readonly bool) *FS {
	return &FS{store: store, os: uos.New(store), readonly: readonly}
}

// Root returns the inode embedder for the filesystem root, for use with
// fs.Mount.
func (f *FS) Root() fs.InodeEmbedder {
	return &Node{fs: f, path: ufs.Root}
}

// Node is a single file or directory inode backed by a path in the store.
type Node struct {
	fs.Inode
	fs   *FS
	path ufs.Path
}

var (
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeAccesser  = (*Node)(nil)
	_ fs.NodeStatfser  = (*Node)(nil)
)

// translateErrno maps the UFS error taxonomy onto POSIX errno the way
// access/fuse.py's fuseerror() context manager maps OSError.errno:
// PermissionDenied is EPERM, Unsupported is ENOTSUP, and anything
// uncategorized falls back to EROFS.
func translateErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ufs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ufs.ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, ufs.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ufs.ErrIsADirectory):
		return syscall.EISDIR
	case errors.Is(err, ufs.ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, ufs.ErrPermissionDenied):
		return syscall.EPERM
	case errors.Is(err, ufs.ErrUnsupported):
		return syscall.ENOTSUP
	default:
		return syscall.EROFS
	}
}

func fillAttr(out *fuse.Attr, st ufs.FileStat, childCount int) {
	if st.IsDir() {
		out.Mode = modeDir
		out.Nlink = uint32(2 + childCount)
	} else {
		out.Mode = modeFile
		out.Size = uint64(st.Size)
		out.Nlink = 1
	}
	out.Owner = fuse.Owner{Uid: uint32(ufsUID), Gid: uint32(ufsGID)}
	mtime := st.Mtime
	if mtime.IsZero() {
		mtime = time.Now()
	}
	out.SetTimes(nil, &mtime, &mtime)
}

func (n *Node) statAttr(ctx context.Context, out *fuse.Attr) syscall.Errno {
	st, err := n.fs.store.Info(ctx, n.path)
	if err != nil {
		return translateErrno(err)
	}
	childCount := 0
	if st.IsDir() {
		if names, err := n.fs.store.Ls(ctx, n.path); err == nil {
			childCount = len(names)
		}
	}
	fillAttr(out, st, childCount)
	return 0
}

func (n *Node) Getattr(ctx context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	return n.statAttr(ctx, &out.Attr)
}

func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	if n.fs.readonly && mask&uint32(syscall.W_OK) != 0 {
		return syscall.EROFS
	}
	if !n.fs.os.Access(ctx, n.path, int(mask)) {
		return syscall.EACCES
	}
	return 0
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := n.path.Join(name)
	st, err := n.fs.store.Info(ctx, childPath)
	if err != nil {
		return nil, translateErrno(err)
	}
	childCount := 0
	mode := uint32(modeFile)
	if st.IsDir() {
		mode = modeDir
		if names, err := n.fs.store.Ls(ctx, childPath); err == nil {
			childCount = len(names)
		}
	}
	fillAttr(&out.Attr, st, childCount)
	child := n.NewInode(ctx, &Node{fs: n.fs, path: childPath}, fs.StableAttr{Mode: mode})
	return child, 0
}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.fs.store.Ls(ctx, n.path)
	if err != nil {
		return nil, translateErrno(err)
	}
	entries := make([]fuse.DirEntry, len(names))
	for i, name := range names {
		entries[i] = fuse.DirEntry{Name: name}
	}
	return fs.NewListDirStream(entries), 0
}

func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.fs.readonly && flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	h, err := n.fs.os.Open(ctx, n.path, int(flags), nil)
	if err != nil {
		return nil, 0, translateErrno(err)
	}
	return &FileHandle{fs: n.fs, handle: h}, 0, 0
}

func (n *Node) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	if n.fs.readonly {
		return nil, nil, 0, syscall.EROFS
	}
	childPath := n.path.Join(name)
	h, err := n.fs.store.Open(ctx, childPath, ufs.OpenMode{Write: true}, nil)
	if err != nil {
		return nil, nil, 0, translateErrno(err)
	}
	fillAttr(&out.Attr, ufs.FileStat{Type: ufs.TypeFile}, 0)
	child := n.NewInode(ctx, &Node{fs: n.fs, path: childPath}, fs.StableAttr{Mode: modeFile})
	return child, &FileHandle{fs: n.fs, handle: h}, 0, 0
}

func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.fs.readonly {
		return nil, syscall.EROFS
	}
	childPath := n.path.Join(name)
	if err := n.fs.store.Mkdir(ctx, childPath); err != nil {
		return nil, translateErrno(err)
	}
	fillAttr(&out.Attr, ufs.FileStat{Type: ufs.TypeDirectory}, 0)
	child := n.NewInode(ctx, &Node{fs: n.fs, path: childPath}, fs.StableAttr{Mode: modeDir})
	return child, 0
}

func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	if n.fs.readonly {
		return syscall.EROFS
	}
	return translateErrno(n.fs.store.Rmdir(ctx, n.path.Join(name)))
}

func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	if n.fs.readonly {
		return syscall.EROFS
	}
	return translateErrno(n.fs.store.Unlink(ctx, n.path.Join(name)))
}

func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if n.fs.readonly {
		return syscall.EROFS
	}
	destParent, ok := newParent.(*Node)
	if !ok {
		return syscall.EINVAL
	}
	src := n.path.Join(name)
	dst := destParent.path.Join(newName)
	return translateErrno(ufs.Rename(ctx, n.fs.store, src, dst))
}

// Setattr handles truncate (the only attribute change a UFS-backed file
// supports); chmod/chown/utimens all fall outside UFS's model, so they are
// accepted as no-ops rather than rejected, matching most read-write FUSE
// filesystems that ignore permission bits they don't actually track.
func (n *Node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if n.fs.readonly {
			return syscall.EROFS
		}
		var err error
		if h, ok := fh.(*FileHandle); ok {
			err = n.fs.store.Truncate(ctx, h.handle, int64(size))
		} else {
			err = n.fs.os.TruncatePath(ctx, n.path, int64(size))
		}
		if err != nil {
			return translateErrno(err)
		}
	}
	return n.statAttr(ctx, &out.Attr)
}

func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	// Fixed placeholder values, mirroring FUSEOps.statfs's hardcoded dict
	// (UFS has no real block-device geometry to report).
	out.Bsize = 512
	out.Blocks = 4096
	out.Bavail = 2048
	out.Bfree = 2048
	return 0
}

// FileHandle is a single open file descriptor against the store.
type FileHandle struct {
	fs     *FS
	handle ufs.Handle
}

var (
	_ fs.FileReader   = (*FileHandle)(nil)
	_ fs.FileWriter   = (*FileHandle)(nil)
	_ fs.FileFlusher  = (*FileHandle)(nil)
	_ fs.FileFsyncer  = (*FileHandle)(nil)
	_ fs.FileReleaser = (*FileHandle)(nil)
)

func (h *FileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if _, err := h.fs.store.Seek(ctx, h.handle, off, ufs.SeekStart); err != nil {
		return nil, translateErrno(err)
	}
	data, err := h.fs.store.Read(ctx, h.handle, len(dest))
	if err != nil {
		return nil, translateErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

func (h *FileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	if h.fs.readonly {
		return 0, syscall.EROFS
	}
	if _, err := h.fs.store.Seek(ctx, h.handle, off, ufs.SeekStart); err != nil {
		return 0, translateErrno(err)
	}
	n, err := h.fs.store.Write(ctx, h.handle, data)
	if err != nil {
		return 0, translateErrno(err)
	}
	return uint32(n), 0
}

func (h *FileHandle) Flush(ctx context.Context) syscall.Errno {
	return translateErrno(h.fs.store.Flush(ctx, h.handle))
}

// Fsync makes no distinction between a full sync and a data-only sync,
// mirroring UOS.fsync/fdatasync sharing one underlying Flush.
func (h *FileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return translateErrno(h.fs.store.Flush(ctx, h.handle))
}

func (h *FileHandle) Release(ctx context.Context) syscall.Errno {
	return translateErrno(h.fs.store.Close(ctx, h.handle))
}

// Server is the running mount; Wait blocks until the filesystem is
// unmounted (by Unmount or externally via `umount`/`fusermount -u`).
type Server struct {
	server *fuse.Server
}

// Mount mounts store at mountDir and starts serving requests in the
// background, mirroring FUSEOps.fuse/fuse_mount's role of standing up a
// FUSE() loop over a UFS-derived Operations object.
func Mount(_ context.Context, store ufs.Store, mountDir string, readonly bool) (*Server, error) {
	root := New(store, readonly)
	server, err := fs.Mount(mountDir, root.Root(), &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     "ufs",
			Name:       "ufs",
			AllowOther: false,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Server{server: server}, nil
}

// Wait blocks until the mount is torn down.
func (s *Server) Wait() { s.server.Wait() }

// Unmount tears down the mount.
func (s *Server) Unmount() error { return s.server.Unmount() }
