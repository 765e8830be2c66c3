package ufs

import "sync"

// Handle is an opaque open-file reference, small integers starting at 5 so
// they never collide with the conventional stdin/stdout/stderr 0/1/2 of a
// process that might be juggling both kinds of descriptor (relevant once a
// Store is mounted via FUSE in a subprocess that also owns real fds).
type Handle int

// OpenMode is the set of flags a Store.Open call can combine, mirroring the
// five Python modes the original restricts itself to: rb={Read}, wb={Write}
// (create/truncate), ab={Append}, rb+={Read,Updating} (read-write, no
// truncate, must already exist), ab+={Append,Updating} (read-write,
// created if missing, writes go to the end). Updating never combines with
// Write: there is no "wb+" in this contract.
type OpenMode struct {
	Read     bool
	Write    bool
	Append   bool
	Updating bool
}

// SeekWhence mirrors io.Seeker's whence constants (0=start, 1=current,
// 2=end), kept as a distinct type so Store.Seek signatures stay readable at
// call sites that forward os.Seek-shaped whence integers.
type SeekWhence int

const (
	SeekStart   SeekWhence = 0
	SeekCurrent SeekWhence = 1
	SeekEnd     SeekWhence = 2
)

// HandleTable allocates and tracks open handles for a single Store
// instance. It is not safe for concurrent allocation and release under two
// different Stores sharing one table; each Store owns exactly one.
type HandleTable[T any] struct {
	mu      sync.Mutex
	next    int
	entries map[Handle]T
}

// NewHandleTable creates a table whose first allocated handle is 5.
func NewHandleTable[T any]() *HandleTable[T] {
	return &HandleTable[T]{next: 5, entries: make(map[Handle]T)}
}

// Alloc reserves a new handle bound to value and returns it.
func (t *HandleTable[T]) Alloc(value T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := Handle(t.next)
	t.next++
	t.entries[h] = value
	return h
}

// Get returns the value bound to h, or false if h is not open.
func (t *HandleTable[T]) Get(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	return v, ok
}

// Set overwrites the value bound to an already-open handle.
func (t *HandleTable[T]) Set(h Handle, value T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[h] = value
}

// Release forgets h, returning its last value and whether it was open.
func (t *HandleTable[T]) Release(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	delete(t.entries, h)
	return v, ok
}

// Len reports the number of currently open handles.
func (t *HandleTable[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
