package combinator

import (
	"context"

	"github.com/MaayanLab/ufs/pkg/combinator/prefixtree"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

type mapperHandle struct {
	store ufs.Store
	h     ufs.Handle
}

// Mapper routes every path to one of several sub-stores by longest
// matching mapped prefix, rewriting the path to be relative to that
// prefix before forwarding. Grounded on impl/mapper.py; the routing trie
// itself lives in pkg/combinator/prefixtree, ported from
// utils/prefix_tree.py.
type Mapper struct {
	pathmap map[ufs.Path]ufs.Store
	tree    *prefixtree.Node
	handles *ufs.HandleTable[*mapperHandle]
}

var _ ufs.Store = (*Mapper)(nil)

// NewMapper builds a Mapper from a set of mount-point -> Store bindings.
func NewMapper(pathmap map[ufs.Path]ufs.Store) *Mapper {
	paths := make([]ufs.Path, 0, len(pathmap))
	for p := range pathmap {
		paths = append(paths, p)
	}
	return &Mapper{
		pathmap: pathmap,
		tree:    prefixtree.Build(paths),
		handles: ufs.NewHandleTable[*mapperHandle](),
	}
}

func (m *Mapper) match(path ufs.Path) (ufs.Store, ufs.Path, error) {
	prefix, subpath, ok := prefixtree.Search(m.tree, path)
	if !ok {
		return nil, ufs.Root, ufs.NotFound("mapper", path)
	}
	store, ok := m.pathmap[prefix]
	if !ok {
		return nil, ufs.Root, ufs.NotFound("mapper", path)
	}
	return store, subpath, nil
}

func (m *Mapper) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	prefix, subpath, treeNames, treeOk := prefixtree.List(m.tree, path)
	var storeNames []string
	var storeErr error
	if store, ok := m.pathmap[prefix]; ok {
		storeNames, storeErr = store.Ls(ctx, subpath)
	} else {
		storeErr = ufs.NotFound("ls", path)
	}
	if !treeOk && storeErr != nil {
		return nil, ufs.NotFound("ls", path)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, n := range storeNames {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range treeNames {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Mapper) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	store, subpath, err := m.match(path)
	if err != nil {
		return ufs.FileStat{}, err
	}
	return store.Info(ctx, subpath)
}

func (m *Mapper) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	store, subpath, err := m.match(path)
	if err != nil {
		return 0, err
	}
	h, err := store.Open(ctx, subpath, mode, sizeHint)
	if err != nil {
		return 0, err
	}
	return m.handles.Alloc(&mapperHandle{store: store, h: h}), nil
}

func (m *Mapper) get(h ufs.Handle) (*mapperHandle, error) {
	mh, ok := m.handles.Get(h)
	if !ok {
		return nil, ufs.NotFound("handle", ufs.Root)
	}
	return mh, nil
}

func (m *Mapper) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	mh, err := m.get(h)
	if err != nil {
		return 0, err
	}
	return mh.store.Seek(ctx, mh.h, pos, whence)
}

func (m *Mapper) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	mh, err := m.get(h)
	if err != nil {
		return nil, err
	}
	return mh.store.Read(ctx, mh.h, amnt)
}

func (m *Mapper) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	mh, err := m.get(h)
	if err != nil {
		return 0, err
	}
	return mh.store.Write(ctx, mh.h, data)
}

func (m *Mapper) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	mh, err := m.get(h)
	if err != nil {
		return err
	}
	return mh.store.Truncate(ctx, mh.h, length)
}

func (m *Mapper) Flush(ctx context.Context, h ufs.Handle) error {
	mh, err := m.get(h)
	if err != nil {
		return err
	}
	return mh.store.Flush(ctx, mh.h)
}

func (m *Mapper) Close(ctx context.Context, h ufs.Handle) error {
	mh, ok := m.handles.Release(h)
	if !ok {
		return ufs.NotFound("close", ufs.Root)
	}
	return mh.store.Close(ctx, mh.h)
}

func (m *Mapper) Unlink(ctx context.Context, path ufs.Path) error {
	store, subpath, err := m.match(path)
	if err != nil {
		return err
	}
	return store.Unlink(ctx, subpath)
}

func (m *Mapper) Mkdir(ctx context.Context, path ufs.Path) error {
	store, subpath, err := m.match(path)
	if err != nil {
		return err
	}
	return store.Mkdir(ctx, subpath)
}

func (m *Mapper) Rmdir(ctx context.Context, path ufs.Path) error {
	store, subpath, err := m.match(path)
	if err != nil {
		return err
	}
	return store.Rmdir(ctx, subpath)
}

func (m *Mapper) Start(ctx context.Context) error {
	for _, store := range m.pathmap {
		if err := store.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) Stop(ctx context.Context) error {
	for _, store := range m.pathmap {
		if err := store.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Describe implements ufs.Describable when every mapped store does.
func (m *Mapper) Describe() ufs.Descriptor {
	pathmap := map[string]any{}
	for p, store := range m.pathmap {
		if d, ok := store.(ufs.Describable); ok {
			pathmap[p.String()] = d.Describe()
		}
	}
	return ufs.Descriptor{Cls: "combinator.Mapper", Params: map[string]any{"pathmap": pathmap}}
}

func init() {
	ufs.RegisterDescriptor("combinator.Mapper", func(params map[string]any) (ufs.Store, error) {
		raw, _ := params["pathmap"].(map[string]any)
		pathmap := make(map[ufs.Path]ufs.Store, len(raw))
		for k, v := range raw {
			store, err := ufs.FromDescriptor(v.(ufs.Descriptor))
			if err != nil {
				return nil, err
			}
			pathmap[ufs.NewPath(k)] = store
		}
		return NewMapper(pathmap), nil
	})
}
