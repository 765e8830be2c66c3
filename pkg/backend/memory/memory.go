// Package memory implements an in-memory ufs.Store, useful for tests and
// as scratch storage for the atomic bridge and the caching combinators.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

type inode struct {
	stat    ufs.FileStat
	content []byte
}

// descriptor is a single open handle's private read-write-seek buffer.
// Every mode combination (rb, wb, ab, rb+, ab+) is modeled as the same
// []byte+offset pair, seeded differently at Open time, since Memory (like
// the Python original) fully supports seeking regardless of open mode.
type descriptor struct {
	path     ufs.Path
	data     []byte
	pos      int64
	writable bool
}

// Store is an in-memory filesystem: every inode lives in a map keyed by
// path, directories track their children explicitly, grounded on the
// Python original's Memory backend (a dict of inodes plus a parallel dict
// of directory child-name sets).
type Store struct {
	mu      sync.Mutex
	inodes  map[ufs.Path]*inode
	dirs    map[ufs.Path]map[string]struct{}
	handles *ufs.HandleTable[*descriptor]
}

var _ ufs.Store = (*Store)(nil)

// New creates an empty in-memory store with just the root directory.
func New() *Store {
	return &Store{
		inodes: map[ufs.Path]*inode{
			ufs.Root: {stat: ufs.FileStat{Type: ufs.TypeDirectory}},
		},
		dirs:    map[ufs.Path]map[string]struct{}{ufs.Root: {}},
		handles: ufs.NewHandleTable[*descriptor](),
	}
}

func (s *Store) Ls(_ context.Context, path ufs.Path) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	children, ok := s.dirs[path]
	if !ok {
		return nil, ufs.NotFound("ls", path)
	}
	out := make([]string, 0, len(children))
	for name := range children {
		out = append(out, name)
	}
	return out, nil
}

func (s *Store) Info(_ context.Context, path ufs.Path) (ufs.FileStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.inodes[path]
	if !ok {
		return ufs.FileStat{}, ufs.NotFound("info", path)
	}
	return n.stat, nil
}

func (s *Store) Open(_ context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.inodes[path]
	if !mode.Write && !mode.Append && !exists {
		return 0, ufs.NotFound("open", path)
	}
	if exists && n.stat.IsDir() {
		return 0, ufs.IsADirectory("open", path)
	}
	if _, ok := s.dirs[path.Parent()]; !ok {
		return 0, ufs.NotFound("open", path.Parent())
	}
	if !exists {
		now := time.Now()
		n = &inode{stat: ufs.FileStat{Type: ufs.TypeFile, Atime: now, Ctime: now, Mtime: now}}
		s.inodes[path] = n
		s.dirs[path.Parent()][path.Name()] = struct{}{}
	}

	writable := mode.Write || mode.Append || mode.Updating
	d := &descriptor{path: path, writable: writable}
	if mode.Write {
		d.data = nil // truncate
	} else {
		d.data = append([]byte(nil), n.content...)
	}
	if mode.Append {
		d.pos = int64(len(d.data))
	}
	h := s.handles.Alloc(d)
	return h, nil
}

func (s *Store) Seek(_ context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handles.Get(h)
	if !ok {
		return 0, badFd("seek", h)
	}
	var base int64
	switch whence {
	case ufs.SeekStart:
		base = 0
	case ufs.SeekCurrent:
		base = d.pos
	case ufs.SeekEnd:
		base = int64(len(d.data))
	}
	d.pos = base + pos
	return d.pos, nil
}

func (s *Store) Read(_ context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handles.Get(h)
	if !ok {
		return nil, badFd("read", h)
	}
	if d.pos >= int64(len(d.data)) {
		return []byte{}, nil
	}
	end := d.pos + int64(amnt)
	if end > int64(len(d.data)) {
		end = int64(len(d.data))
	}
	out := append([]byte(nil), d.data[d.pos:end]...)
	d.pos = end
	return out, nil
}

func (s *Store) Write(_ context.Context, h ufs.Handle, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handles.Get(h)
	if !ok {
		return 0, badFd("write", h)
	}
	if !d.writable {
		return 0, ufs.Unsupported("write", d.path)
	}
	end := d.pos + int64(len(data))
	if end > int64(len(d.data)) {
		d.data = append(d.data, make([]byte, end-int64(len(d.data)))...)
	}
	copy(d.data[d.pos:end], data)
	d.pos = end
	s.inodes[d.path].stat.Size = int64(len(d.data))
	return len(data), nil
}

func (s *Store) Truncate(_ context.Context, h ufs.Handle, length int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handles.Get(h)
	if !ok {
		return badFd("truncate", h)
	}
	if !d.writable {
		return ufs.Unsupported("truncate", d.path)
	}
	if length <= int64(len(d.data)) {
		d.data = d.data[:length]
	} else {
		d.data = append(d.data, make([]byte, length-int64(len(d.data)))...)
	}
	s.inodes[d.path].stat.Size = length
	return nil
}

func (s *Store) Close(_ context.Context, h ufs.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handles.Release(h)
	if !ok {
		return badFd("close", h)
	}
	if d.writable {
		n := s.inodes[d.path]
		n.content = d.data
		n.stat.Size = int64(len(n.content))
		n.stat.Mtime = time.Now()
	}
	return nil
}

func (s *Store) Unlink(_ context.Context, path ufs.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.inodes[path]
	if !ok {
		return ufs.NotFound("unlink", path)
	}
	if n.stat.IsDir() {
		return ufs.IsADirectory("unlink", path)
	}
	delete(s.dirs[path.Parent()], path.Name())
	delete(s.inodes, path)
	return nil
}

func (s *Store) Mkdir(_ context.Context, path ufs.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inodes[path]; ok {
		return ufs.AlreadyExists("mkdir", path)
	}
	if _, ok := s.dirs[path.Parent()]; !ok {
		return ufs.NotFound("mkdir", path.Parent())
	}
	s.inodes[path] = &inode{stat: ufs.FileStat{Type: ufs.TypeDirectory}}
	s.dirs[path] = map[string]struct{}{}
	s.dirs[path.Parent()][path.Name()] = struct{}{}
	return nil
}

func (s *Store) Rmdir(_ context.Context, path ufs.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inodes[path]; !ok {
		return ufs.NotFound("rmdir", path)
	}
	children, ok := s.dirs[path]
	if !ok {
		return ufs.NotADirectory("rmdir", path)
	}
	if len(children) > 0 {
		return ufs.NotEmpty("rmdir", path)
	}
	delete(s.dirs[path.Parent()], path.Name())
	delete(s.dirs, path)
	delete(s.inodes, path)
	return nil
}

func (s *Store) Flush(context.Context, ufs.Handle) error { return nil }
func (s *Store) Start(context.Context) error             { return nil }
func (s *Store) Stop(context.Context) error              { return nil }

// badFd builds the Io error for a reused or already-closed handle, per
// spec.md §4.2 (Io(badfd), not NotFound: the handle, not a path, is what's
// invalid).
func badFd(op string, h ufs.Handle) error {
	return ufs.Io(op, ufs.NewPath(fmt.Sprintf("<handle %d>", h)), fmt.Errorf("bad file descriptor"))
}

// Describe implements ufs.Describable.
func (s *Store) Describe() ufs.Descriptor {
	return ufs.Descriptor{Cls: "memory.Store"}
}

func init() {
	ufs.RegisterDescriptor("memory.Store", func(map[string]any) (ufs.Store, error) {
		return New(), nil
	})
}
