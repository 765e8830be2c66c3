package combinator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/MaayanLab/ufs/pkg/backend/local"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// TemporaryDirectory is a Prefix(Local(), <scratch dir>) that creates its
// scratch directory on Start and removes it on Stop — but only if it was
// the one that created it: passing an already-existing Dir in means Stop
// leaves it alone, mirroring impl/tempdir.py's `_outer` flag (a caller
// that supplies its own directory owns its lifecycle).
type TemporaryDirectory struct {
	*Prefix
	dir     ufs.Path
	ownsDir bool
}

var _ ufs.Store = (*TemporaryDirectory)(nil)

// NewTemporaryDirectory creates scratch space under base (typically
// "/tmp"). If dir is the zero Path, a random subdirectory name is
// generated and owned (removed on Stop); otherwise dir is used as given
// and left alone on Stop.
func NewTemporaryDirectory(base ufs.Path, dir ufs.Path) *TemporaryDirectory {
	owns := dir.IsRoot() || dir == ufs.Root
	if owns {
		dir = base.Join(fmt.Sprintf("ufs-%x", rand.Uint64()))
	} else {
		dir = base.Join(dir.String())
	}
	return &TemporaryDirectory{
		Prefix:  NewPrefix(local.New(), dir),
		dir:     dir,
		ownsDir: owns,
	}
}

func (t *TemporaryDirectory) Start(ctx context.Context) error {
	if err := t.Prefix.inner.Mkdir(ctx, t.dir); err != nil {
		// tolerate a directory the caller already created for us
		if t.ownsDir {
			return err
		}
	}
	return nil
}

func (t *TemporaryDirectory) Stop(ctx context.Context) error {
	if !t.ownsDir {
		return nil
	}
	return rmtreeRaw(ctx, t.Prefix.inner, t.dir)
}

// rmtreeRaw removes path and everything below it on the underlying store,
// used internally by TemporaryDirectory.Stop; pkg/shutil.Rmtree is the
// exported, store-agnostic equivalent for callers outside this package.
func rmtreeRaw(ctx context.Context, s ufs.Store, path ufs.Path) error {
	info, err := s.Info(ctx, path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return s.Unlink(ctx, path)
	}
	names, err := s.Ls(ctx, path)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := rmtreeRaw(ctx, s, path.Join(name)); err != nil {
			return err
		}
	}
	return s.Rmdir(ctx, path)
}
