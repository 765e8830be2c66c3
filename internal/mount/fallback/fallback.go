// Package fallback provides a no-FUSE-required stand-in for mounting a
// ufs.Store: it copies the whole tree out to a real local directory, lets
// the caller use that directory with any ordinary tool, and on Close
// replicates whatever changed back into the store before cleaning up.
//
// Grounded on access/ffuse.py's ffuse_mount: "start: copy files to the
// mount directory; stop: replicate any changes to the mount directory to
// the ufs and cleanup". Built entirely out of pkg/shutil (CopyTree/Walk/
// Rmtree), pkg/backend/local, and pkg/combinator's Prefix — the same
// composition access/ffuse.py itself uses (Prefix(Local(), mount_dir)) —
// so, like pkg/shutil itself, this package has no transport or encoding
// surface of its own to exercise a third-party library with; it is pure
// orchestration over stores that are already backed by real libraries
// further down.
package fallback

import (
	"context"
	"fmt"
	"os"

	"github.com/MaayanLab/ufs/pkg/backend/local"
	"github.com/MaayanLab/ufs/pkg/combinator"
	"github.com/MaayanLab/ufs/pkg/shutil"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Mount is a live fallback mount: MountDir names the real directory a
// caller can read and write through any ordinary tool while it is open.
type Mount struct {
	store      ufs.Store
	mountStore ufs.Store
	MountDir   string
	ownsDir    bool
	readonly   bool
	before     []shutil.Entry
}

// New copies store's entire tree into mountDir (a freshly made temporary
// directory if mountDir is ""), mirroring ffuse_mount's startup copytree.
// When readonly is false, the mount directory's listing right after the
// copy-in is recorded so
// Close can detect deletions on teardown the same way ffuse_mount diffs
// `before`/`after` walks.
func New(ctx context.Context, store ufs.Store, mountDir string, readonly bool) (*Mount, error) {
	ownsDir := mountDir == ""
	if ownsDir {
		dir, err := os.MkdirTemp("", "ufs-fallback-")
		if err != nil {
			return nil, fmt.Errorf("fallback: creating mount directory: %w", err)
		}
		mountDir = dir
	}

	mountStore := combinator.NewPrefix(local.New(), ufs.NewPath(mountDir))
	if err := shutil.CopyTree(ctx, store, ufs.Root, mountStore, ufs.Root, true); err != nil {
		return nil, fmt.Errorf("fallback: copying tree into mount directory: %w", err)
	}

	m := &Mount{
		store:      store,
		mountStore: mountStore,
		MountDir:   mountDir,
		ownsDir:    ownsDir,
		readonly:   readonly,
	}
	if !readonly {
		before, err := shutil.Walk(ctx, mountStore, ufs.Root, false)
		if err != nil {
			return nil, fmt.Errorf("fallback: walking mount directory: %w", err)
		}
		m.before = before
	}
	return m, nil
}

// Close replicates any changes made under MountDir back into the backing
// store (unless readonly), then removes the mount directory's contents and,
// if Mount created it, the directory itself.
func (m *Mount) Close(ctx context.Context) error {
	if !m.readonly {
		after, err := shutil.Walk(ctx, m.mountStore, ufs.Root, false)
		if err != nil {
			return fmt.Errorf("fallback: walking mount directory: %w", err)
		}
		afterPaths := make(map[ufs.Path]struct{}, len(after))
		for _, e := range after {
			afterPaths[e.Path] = struct{}{}
		}
		for _, e := range m.before {
			if _, stillThere := afterPaths[e.Path]; stillThere {
				continue
			}
			var err error
			if e.Stat.IsDir() {
				err = m.store.Rmdir(ctx, e.Path)
			} else {
				err = m.store.Unlink(ctx, e.Path)
			}
			if err != nil {
				return fmt.Errorf("fallback: replicating deletion of %s: %w", e.Path.String(), err)
			}
		}
		if err := shutil.CopyTree(ctx, m.mountStore, ufs.Root, m.store, ufs.Root, true); err != nil {
			return fmt.Errorf("fallback: copying changes back: %w", err)
		}
	}
	names, err := m.mountStore.Ls(ctx, ufs.Root)
	if err != nil {
		return fmt.Errorf("fallback: clearing mount directory: %w", err)
	}
	for _, name := range names {
		if err := shutil.Rmtree(ctx, m.mountStore, ufs.Root.Join(name)); err != nil {
			return fmt.Errorf("fallback: clearing mount directory: %w", err)
		}
	}
	if m.ownsDir {
		return os.Remove(m.MountDir)
	}
	return nil
}
