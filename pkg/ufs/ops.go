package ufs

import "context"

// ChunkSize is the buffer size used by the derived Copy/Cat/Put helpers
// when streaming through a Store that has no whole-object shortcut.
const ChunkSize = 5 * 1024

// Copy implements the fallback Store.Copy every backend gets for free:
// open src for reading, open dst for writing (passing src's size as a
// hint), and stream ChunkSize-sized reads into writes until src is
// exhausted. Backends that can do better (e.g. an atomic backend with a
// native copy primitive) should not use this helper.
func Copy(ctx context.Context, s Store, src, dst Path) error {
	info, err := s.Info(ctx, src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return IsADirectory("copy", src)
	}
	srcFd, err := s.Open(ctx, src, OpenMode{Read: true}, nil)
	if err != nil {
		return err
	}
	defer s.Close(ctx, srcFd)
	size := info.Size
	dstFd, err := s.Open(ctx, dst, OpenMode{Write: true}, &size)
	if err != nil {
		return err
	}
	for {
		buf, err := s.Read(ctx, srcFd, ChunkSize)
		if err != nil {
			s.Close(ctx, dstFd)
			return err
		}
		if len(buf) == 0 {
			break
		}
		if _, err := s.Write(ctx, dstFd, buf); err != nil {
			s.Close(ctx, dstFd)
			return err
		}
	}
	return s.Close(ctx, dstFd)
}

// CopyAcross streams a file from one Store to a path on a different Store,
// the cross-store counterpart of Copy used by combinators (Overlay copy-up,
// Mapper cross-backend copy) and by pkg/shutil.CopyFile.
func CopyAcross(ctx context.Context, src Store, srcPath Path, dst Store, dstPath Path) error {
	info, err := src.Info(ctx, srcPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return IsADirectory("copy", srcPath)
	}
	srcFd, err := src.Open(ctx, srcPath, OpenMode{Read: true}, nil)
	if err != nil {
		return err
	}
	defer src.Close(ctx, srcFd)
	size := info.Size
	dstFd, err := dst.Open(ctx, dstPath, OpenMode{Write: true}, &size)
	if err != nil {
		return err
	}
	for {
		buf, err := src.Read(ctx, srcFd, ChunkSize)
		if err != nil {
			dst.Close(ctx, dstFd)
			return err
		}
		if len(buf) == 0 {
			break
		}
		if _, err := dst.Write(ctx, dstFd, buf); err != nil {
			dst.Close(ctx, dstFd)
			return err
		}
	}
	return dst.Close(ctx, dstFd)
}

// Rename implements the fallback Store.Rename every backend gets for
// free: Copy then Unlink the source. Backends with a native atomic rename
// should not use this helper.
func Rename(ctx context.Context, s Store, src, dst Path) error {
	if err := Copy(ctx, s, src, dst); err != nil {
		return err
	}
	return s.Unlink(ctx, src)
}

// Cat reads an entire file's contents in one call, streaming ChunkSize
// reads through Open/Read/Close.
func Cat(ctx context.Context, s Store, path Path) ([]byte, error) {
	fd, err := s.Open(ctx, path, OpenMode{Read: true}, nil)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx, fd)
	var out []byte
	for {
		buf, err := s.Read(ctx, fd, ChunkSize)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			break
		}
		out = append(out, buf...)
	}
	return out, nil
}

// Put writes an entire file's contents in one call via Open/Write/Close,
// passing len(data) as the size hint.
func Put(ctx context.Context, s Store, path Path, data []byte) error {
	size := int64(len(data))
	fd, err := s.Open(ctx, path, OpenMode{Write: true}, &size)
	if err != nil {
		return err
	}
	if _, err := s.Write(ctx, fd, data); err != nil {
		s.Close(ctx, fd)
		return err
	}
	return s.Close(ctx, fd)
}
