// Package upath implements a pathlib.Path-like interface over a ufs.Store:
// a UPath is a (Store, Path) pair that knows how to navigate, stat, and
// open itself, carrying the store along instead of requiring callers to
// thread it through every call site.
//
// Grounded on access/pathlib.py's UPath/UPathOpener/UPathBinaryOpener.
package upath

import (
	"context"
	"errors"
	"io"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// UPath pairs a Store with a Path, offering pathlib-style navigation and
// file access. The zero value is not usable; construct with New.
type UPath struct {
	store ufs.Store
	path  ufs.Path
}

// New returns a UPath rooted at path on store.
func New(store ufs.Store, path ufs.Path) UPath {
	return UPath{store: store, path: path}
}

// Path returns the underlying ufs.Path.
func (u UPath) Path() ufs.Path { return u.path }

// Store returns the underlying ufs.Store.
func (u UPath) Store() ufs.Store { return u.store }

// Name returns the final path component, or "" for the root.
func (u UPath) Name() string { return u.path.Name() }

// Parent returns the UPath for this path's parent directory.
func (u UPath) Parent() UPath { return UPath{u.store, u.path.Parent()} }

// Join returns the UPath for subpath resolved against this one, mirroring
// UPath.__truediv__.
func (u UPath) Join(subpath string) UPath { return UPath{u.store, u.path.Join(subpath)} }

func (u UPath) String() string { return u.path.String() }

// Exists reports whether the path currently resolves to a file or directory.
func (u UPath) Exists(ctx context.Context) bool {
	_, err := u.store.Info(ctx, u.path)
	return err == nil
}

// IsFile reports whether the path resolves to a regular file.
func (u UPath) IsFile(ctx context.Context) bool {
	info, err := u.store.Info(ctx, u.path)
	return err == nil && !info.IsDir()
}

// IsDir reports whether the path resolves to a directory.
func (u UPath) IsDir(ctx context.Context) bool {
	info, err := u.store.Info(ctx, u.path)
	return err == nil && info.IsDir()
}

// Info returns the path's metadata, forwarding the store's error as-is.
func (u UPath) Info(ctx context.Context) (ufs.FileStat, error) {
	return u.store.Info(ctx, u.path)
}

// Unlink removes the file at this path.
func (u UPath) Unlink(ctx context.Context) error {
	return u.store.Unlink(ctx, u.path)
}

// Mkdir creates the directory at this path. If parents is true, missing
// ancestors are created first. If existOk is true, an already-existing
// directory is not an error, mirroring UPath.mkdir's exist_ok.
func (u UPath) Mkdir(ctx context.Context, parents, existOk bool) error {
	if parents {
		parent := u.Parent()
		if !parent.IsDir(ctx) && parent.path != u.path {
			if err := parent.Mkdir(ctx, true, true); err != nil {
				return err
			}
		}
	}
	err := u.store.Mkdir(ctx, u.path)
	if err != nil && existOk && errors.Is(err, ufs.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Rmdir removes the (empty) directory at this path.
func (u UPath) Rmdir(ctx context.Context) error {
	return u.store.Rmdir(ctx, u.path)
}

// Rename moves this path to other. A leading "/" in other makes it
// absolute; otherwise it is resolved against this path's parent, mirroring
// UPath.rename.
func (u UPath) Rename(ctx context.Context, other string) error {
	var dst ufs.Path
	if len(other) > 0 && other[0] == '/' {
		dst = ufs.NewPath(other)
	} else {
		dst = u.path.Parent().Join(other)
	}
	return ufs.Rename(ctx, u.store, u.path, dst)
}

// Iterdir lists the immediate children of this directory as UPaths.
func (u UPath) Iterdir(ctx context.Context) ([]UPath, error) {
	names, err := u.store.Ls(ctx, u.path)
	if err != nil {
		return nil, err
	}
	out := make([]UPath, len(names))
	for i, name := range names {
		out[i] = u.Join(name)
	}
	return out, nil
}

// ReadBytes reads the entire file's contents.
func (u UPath) ReadBytes(ctx context.Context) ([]byte, error) {
	return ufs.Cat(ctx, u.store, u.path)
}

// WriteBytes writes the entire file's contents, creating or truncating it.
func (u UPath) WriteBytes(ctx context.Context, data []byte) error {
	return ufs.Put(ctx, u.store, u.path, data)
}

// ReadText reads the entire file's contents as UTF-8 text.
func (u UPath) ReadText(ctx context.Context) (string, error) {
	b, err := u.ReadBytes(ctx)
	return string(b), err
}

// WriteText writes text to the file as UTF-8, creating or truncating it.
func (u UPath) WriteText(ctx context.Context, text string) error {
	return u.WriteBytes(ctx, []byte(text))
}

// Opener is an open file handle on a UPath: a seekable byte stream that
// must be closed, mirroring UPathBinaryOpener.
type Opener struct {
	ctx   context.Context
	store ufs.Store
	h     ufs.Handle
}

var _ io.ReadWriteCloser = (*Opener)(nil)
var _ io.Seeker = (*Opener)(nil)

// Open opens this path with mode, passing sizeHint along to the store (used
// by backends that benefit from knowing the final size up front, e.g. a
// multipart upload).
func (u UPath) Open(ctx context.Context, mode ufs.OpenMode, sizeHint *int64) (*Opener, error) {
	h, err := u.store.Open(ctx, u.path, mode, sizeHint)
	if err != nil {
		return nil, err
	}
	return &Opener{ctx: ctx, store: u.store, h: h}, nil
}

func (o *Opener) Read(p []byte) (int, error) {
	buf, err := o.store.Read(o.ctx, o.h, len(p))
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, io.EOF
	}
	copy(p, buf)
	return len(buf), nil
}

func (o *Opener) Write(p []byte) (int, error) {
	return o.store.Write(o.ctx, o.h, p)
}

func (o *Opener) Seek(offset int64, whence int) (int64, error) {
	return o.store.Seek(o.ctx, o.h, offset, ufs.SeekWhence(whence))
}

// Close releases the underlying handle.
func (o *Opener) Close() error {
	return o.store.Close(o.ctx, o.h)
}
