// Package local implements ufs.Store over the real host filesystem. Paths
// are used verbatim as OS paths, so a Local store is almost always wrapped
// in a combinator.Prefix to scope it under some root directory — Local
// itself has no notion of a root (grounded on the Python original, which
// never roots Local on its own either).
package local

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Store operates directly on the real filesystem.
type Store struct {
	handles *ufs.HandleTable[*os.File]
}

var _ ufs.Store = (*Store)(nil)

// New creates a Local store.
func New() *Store {
	return &Store{handles: ufs.NewHandleTable[*os.File]()}
}

func translate(op string, path ufs.Path, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return ufs.NotFound(op, path)
	case os.IsExist(err):
		return ufs.AlreadyExists(op, path)
	case os.IsPermission(err):
		return ufs.PermissionDenied(op, path)
	default:
		return ufs.Io(op, path, err)
	}
}

func (s *Store) Ls(_ context.Context, path ufs.Path) ([]string, error) {
	entries, err := os.ReadDir(path.String())
	if err != nil {
		return nil, translate("ls", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *Store) Info(_ context.Context, path ufs.Path) (ufs.FileStat, error) {
	fi, err := os.Stat(path.String())
	if err != nil {
		return ufs.FileStat{}, translate("info", path, err)
	}
	typ := ufs.TypeFile
	if fi.IsDir() {
		typ = ufs.TypeDirectory
	}
	stat := ufs.FileStat{Type: typ, Size: fi.Size(), Mtime: fi.ModTime()}
	if sys := statTimes(fi); sys != nil {
		stat.Atime, stat.Ctime = sys[0], sys[1]
	}
	return stat, nil
}

func (s *Store) Open(_ context.Context, path ufs.Path, mode ufs.OpenMode, _ *int64) (ufs.Handle, error) {
	flag := 0
	switch {
	case mode.Append:
		flag = os.O_CREATE | os.O_APPEND
	case mode.Write:
		flag = os.O_CREATE | os.O_TRUNC
	}
	if mode.Updating {
		flag |= os.O_RDWR
	} else if mode.Write || mode.Append {
		flag |= os.O_WRONLY
	} else {
		flag |= os.O_RDONLY
	}
	f, err := os.OpenFile(path.String(), flag, 0644)
	if err != nil {
		return 0, translate("open", path, err)
	}
	return s.handles.Alloc(f), nil
}

func (s *Store) file(op string, h ufs.Handle) (*os.File, error) {
	f, ok := s.handles.Get(h)
	if !ok {
		return nil, badFd(op, h)
	}
	return f, nil
}

// badFd builds the Io error for a reused or already-closed handle, per
// spec.md §4.2 (Io(badfd), not NotFound: the handle, not a path, is what's
// invalid).
func badFd(op string, h ufs.Handle) error {
	return ufs.Io(op, ufs.NewPath(fmt.Sprintf("<handle %d>", h)), fmt.Errorf("bad file descriptor"))
}

func (s *Store) Seek(_ context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	f, err := s.file("seek", h)
	if err != nil {
		return 0, err
	}
	n, err := f.Seek(pos, int(whence))
	return n, translate("seek", ufs.Root, err)
}

func (s *Store) Read(_ context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	f, err := s.file("read", h)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, amnt)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, translate("read", ufs.Root, err)
	}
	return buf[:n], nil
}

func (s *Store) Write(_ context.Context, h ufs.Handle, data []byte) (int, error) {
	f, err := s.file("write", h)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(data)
	return n, translate("write", ufs.Root, err)
}

func (s *Store) Truncate(_ context.Context, h ufs.Handle, length int64) error {
	f, err := s.file("truncate", h)
	if err != nil {
		return err
	}
	return translate("truncate", ufs.Root, f.Truncate(length))
}

func (s *Store) Close(_ context.Context, h ufs.Handle) error {
	f, ok := s.handles.Release(h)
	if !ok {
		return badFd("close", h)
	}
	return translate("close", ufs.Root, f.Close())
}

func (s *Store) Unlink(_ context.Context, path ufs.Path) error {
	return translate("unlink", path, os.Remove(path.String()))
}

func (s *Store) Mkdir(_ context.Context, path ufs.Path) error {
	return translate("mkdir", path, os.Mkdir(path.String(), 0755))
}

func (s *Store) Rmdir(_ context.Context, path ufs.Path) error {
	entries, err := os.ReadDir(path.String())
	if err != nil {
		return translate("rmdir", path, err)
	}
	if len(entries) > 0 {
		return ufs.NotEmpty("rmdir", path)
	}
	return translate("rmdir", path, os.Remove(path.String()))
}

func (s *Store) Flush(_ context.Context, h ufs.Handle) error {
	f, err := s.file("flush", h)
	if err != nil {
		return err
	}
	return translate("flush", ufs.Root, f.Sync())
}

func (s *Store) Start(context.Context) error { return nil }
func (s *Store) Stop(context.Context) error  { return nil }

// Describe implements ufs.Describable.
func (s *Store) Describe() ufs.Descriptor {
	return ufs.Descriptor{Cls: "local.Store"}
}

func init() {
	ufs.RegisterDescriptor("local.Store", func(map[string]any) (ufs.Store, error) {
		return New(), nil
	})
}
