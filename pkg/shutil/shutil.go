// Package shutil implements shutil-style high level file operations
// against one or two ufs.Store instances: recursive walk, copy, move, and
// remove, built purely on top of the Store contract so they work
// identically across every backend and combinator.
//
// Grounded on access/shutil.py. The async_* variants have no counterpart
// here: Go callers that want concurrency use goroutines over the
// synchronous Store directly, or drive an AsyncStore through
// combinator.AsyncToSync first, rather than a parallel async API surface.
package shutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Entry pairs a path with its metadata, yielded by Walk.
type Entry struct {
	Path ufs.Path
	Stat ufs.FileStat
}

// Walk recursively visits path and everything below it on s. If dirFirst
// is true, a directory is yielded before its children (pre-order);
// otherwise after (post-order, the shape Rmtree needs so children are
// unlinked before their parent is rmdir'd). Matches walk's dirfirst=True/
// False traversal order exactly, including visiting an empty directory
// once regardless of dirFirst.
func Walk(ctx context.Context, s ufs.Store, path ufs.Path, dirFirst bool) ([]Entry, error) {
	info, err := s.Info(ctx, path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []Entry{{path, info}}, nil
	}

	var out []Entry
	type item struct {
		path  ufs.Path
		empty bool
	}
	var stack []item
	if dirFirst {
		out = append(out, Entry{path, info})
	} else {
		stack = append(stack, item{path, true})
	}
	names, err := s.Ls(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		stack = append(stack, item{path.Join(name), false})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, err := s.Info(ctx, it.path)
		if err != nil {
			return nil, err
		}
		if !i.IsDir() {
			out = append(out, Entry{it.path, i})
			continue
		}
		if it.empty {
			out = append(out, Entry{it.path, i})
			continue
		}
		if dirFirst {
			out = append(out, Entry{it.path, i})
		} else {
			stack = append(stack, item{it.path, true})
		}
		children, err := s.Ls(ctx, it.path)
		if err != nil {
			return nil, err
		}
		for _, name := range children {
			stack = append(stack, item{it.path.Join(name), false})
		}
	}
	return out, nil
}

// CopyFile copies a single file from srcPath on src to dstPath on dst,
// taking the same-store shortcut (ufs.Copy) when src and dst are the same
// Store, and ufs.CopyAcross's stream otherwise.
func CopyFile(ctx context.Context, src ufs.Store, srcPath ufs.Path, dst ufs.Store, dstPath ufs.Path) error {
	if isSameStore(src, dst) {
		return ufs.Copy(ctx, src, srcPath, dstPath)
	}
	return ufs.CopyAcross(ctx, src, srcPath, dst, dstPath)
}

// MoveFile moves a single file, using a same-store rename when possible
// and refusing to move a path into itself.
func MoveFile(ctx context.Context, src ufs.Store, srcPath ufs.Path, dst ufs.Store, dstPath ufs.Path) error {
	if isSameStore(src, dst) {
		if movesIntoItself(srcPath, dstPath) {
			return fmt.Errorf("can't move path into itself: %s -> %s", srcPath, dstPath)
		}
		return ufs.Rename(ctx, src, srcPath, dstPath)
	}
	if err := CopyFile(ctx, src, srcPath, dst, dstPath); err != nil {
		return err
	}
	return src.Unlink(ctx, srcPath)
}

// CopyTree recursively copies everything under srcPath to dstPath,
// creating directories as it goes. existOk controls whether an
// already-existing destination directory is tolerated, mirroring
// copytree's exists_ok.
func CopyTree(ctx context.Context, src ufs.Store, srcPath ufs.Path, dst ufs.Store, dstPath ufs.Path, existOk bool) error {
	entries, err := Walk(ctx, src, srcPath, true)
	if err != nil {
		return err
	}
	for _, e := range entries {
		rel, ok := e.Path.RelativeTo(srcPath)
		if !ok {
			continue
		}
		target := dstPath
		if rel != "" {
			target = dstPath.Join(rel)
		}
		if e.Stat.IsDir() {
			if err := dst.Mkdir(ctx, target); err != nil {
				if !existOk || !isAlreadyExists(err) {
					return err
				}
			}
		} else {
			if err := CopyFile(ctx, src, e.Path, dst, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// Copy copies srcPath to dstPath: a directory destination means "copy
// into", a file or missing destination means "copy as", and a directory
// source recurses via CopyTree, mirroring copy's dispatch.
func Copy(ctx context.Context, src ufs.Store, srcPath ufs.Path, dst ufs.Store, dstPath ufs.Path) error {
	srcInfo, err := src.Info(ctx, srcPath)
	if err != nil {
		return err
	}
	if dstInfo, err := dst.Info(ctx, dstPath); err == nil && dstInfo.IsDir() {
		dstPath = dstPath.Join(srcPath.Name())
	}
	if srcInfo.IsDir() {
		return CopyTree(ctx, src, srcPath, dst, dstPath, false)
	}
	return CopyFile(ctx, src, srcPath, dst, dstPath)
}

// Rmtree removes path and everything below it on s, unlinking files and
// rmdir-ing directories in post-order (children before parents).
func Rmtree(ctx context.Context, s ufs.Store, path ufs.Path) error {
	entries, err := Walk(ctx, s, path, false)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Stat.IsDir() {
			if err := s.Rmdir(ctx, e.Path); err != nil {
				return err
			}
		} else {
			if err := s.Unlink(ctx, e.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Move moves srcPath to dstPath, refusing to move a same-store path into
// itself, then Copy followed by Rmtree of the source.
func Move(ctx context.Context, src ufs.Store, srcPath ufs.Path, dst ufs.Store, dstPath ufs.Path) error {
	if isSameStore(src, dst) && movesIntoItself(srcPath, dstPath) {
		return fmt.Errorf("can't move path into itself: %s -> %s", srcPath, dstPath)
	}
	if err := Copy(ctx, src, srcPath, dst, dstPath); err != nil {
		return err
	}
	return Rmtree(ctx, src, srcPath)
}

func isSameStore(a, b ufs.Store) bool {
	return fmt.Sprintf("%p", a) == fmt.Sprintf("%p", b)
}

func movesIntoItself(src, dst ufs.Path) bool {
	_, ok := dst.RelativeTo(src)
	return ok
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, ufs.ErrAlreadyExists)
}
