package atomic

import (
	"context"
	"sync"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// fakeAtomic is a minimal in-memory Store used only to exercise the bridge.
type fakeAtomic struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeAtomic() *fakeAtomic { return &fakeAtomic{data: map[string][]byte{}} }

func (f *fakeAtomic) Ls(context.Context, ufs.Path) ([]string, error) { return nil, nil }
func (f *fakeAtomic) Info(_ context.Context, path ufs.Path) (ufs.FileStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[path.String()]
	if !ok {
		return ufs.FileStat{}, ufs.NotFound("info", path)
	}
	return ufs.FileStat{Type: ufs.TypeFile, Size: int64(len(d))}, nil
}
func (f *fakeAtomic) Cat(_ context.Context, path ufs.Path) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[path.String()]
	if !ok {
		return nil, ufs.NotFound("cat", path)
	}
	cp := make([]byte, len(d))
	copy(cp, d)
	return cp, nil
}
func (f *fakeAtomic) Put(_ context.Context, path ufs.Path, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[path.String()] = append([]byte(nil), data...)
	return nil
}
func (f *fakeAtomic) Unlink(_ context.Context, path ufs.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, path.String())
	return nil
}
func (f *fakeAtomic) Mkdir(context.Context, ufs.Path) error { return nil }
func (f *fakeAtomic) Rmdir(context.Context, ufs.Path) error { return nil }
