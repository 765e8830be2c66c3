// Package umap presents a ufs.Store subtree as a nested string-keyed map:
// files read back as strings, directories read back as nested UMaps, and
// assigning a string or a nested map writes through to the store.
//
// Grounded on access/map.py's UMap, an fsspec-style MutableMapping wrapper
// around UPath. Key names are percent-escaped with net/url (PathEscape/
// PathUnescape) exactly as UMap quotes/unquotes keys with urllib.parse,
// safe='' so "/" in a key never collides with a path separator.
package umap

import (
	"context"
	"net/url"

	"github.com/MaayanLab/ufs/pkg/adapter/upath"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// UMap is a string-keyed view over a directory in a ufs.Store.
type UMap struct {
	path upath.UPath
}

// New returns a UMap rooted at path on store.
func New(store ufs.Store, path ufs.Path) UMap {
	return UMap{path: upath.New(store, path)}
}

func escape(key string) string { return url.PathEscape(key) }

func unescape(name string) string {
	v, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return v
}

// Get returns the value at key: a string if it names a file, a UMap if it
// names a directory, and ufs.ErrNotFound if key is absent.
func (m UMap) Get(ctx context.Context, key string) (interface{}, error) {
	child := m.path.Join(escape(key))
	if child.IsFile(ctx) {
		return child.ReadText(ctx)
	}
	if child.IsDir(ctx) {
		return UMap{path: child}, nil
	}
	return nil, ufs.NotFound("get", child.Path())
}

// Set assigns value at key. value must be a string (written as a file's
// text content) or a map[string]interface{} (written recursively as a
// directory), mirroring UMap.__setitem__'s str/Mapping dispatch. Any
// existing entry at key, file or directory, is removed first.
func (m UMap) Set(ctx context.Context, key string, value interface{}) error {
	child := m.path.Join(escape(key))
	if child.Exists(ctx) {
		if child.IsFile(ctx) {
			if err := child.Unlink(ctx); err != nil {
				return err
			}
		} else if err := rmtree(ctx, child); err != nil {
			return err
		}
	}
	switch v := value.(type) {
	case string:
		return child.WriteText(ctx, v)
	case map[string]interface{}:
		if err := child.Mkdir(ctx, false, false); err != nil {
			return err
		}
		sub := UMap{path: child}
		for k, sv := range v {
			if err := sub.Set(ctx, k, sv); err != nil {
				return err
			}
		}
		return nil
	default:
		return ufs.Unsupported("set", child.Path())
	}
}

// Delete removes key, file or directory.
func (m UMap) Delete(ctx context.Context, key string) error {
	child := m.path.Join(escape(key))
	if child.IsFile(ctx) {
		return child.Unlink(ctx)
	}
	if child.IsDir(ctx) {
		return rmtree(ctx, child)
	}
	return ufs.NotFound("delete", child.Path())
}

// Keys returns the unescaped names of this map's immediate entries.
func (m UMap) Keys(ctx context.Context) ([]string, error) {
	children, err := m.path.Iterdir(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = unescape(c.Name())
	}
	return out, nil
}

// Contains reports whether key is present.
func (m UMap) Contains(ctx context.Context, key string) bool {
	return m.path.Join(escape(key)).Exists(ctx)
}

// Len returns the number of immediate entries.
func (m UMap) Len(ctx context.Context) (int, error) {
	keys, err := m.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func rmtree(ctx context.Context, p upath.UPath) error {
	children, err := p.Iterdir(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.IsFile(ctx) {
			if err := c.Unlink(ctx); err != nil {
				return err
			}
		} else if c.IsDir(ctx) {
			if err := rmtree(ctx, c); err != nil {
				return err
			}
		}
	}
	return p.Rmdir(ctx)
}
