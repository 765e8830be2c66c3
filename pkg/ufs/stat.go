package ufs

import "time"

// EntryType distinguishes files from directories. UFS has no notion of
// symlinks, devices, or other POSIX special types (spec Non-goal).
type EntryType int

const (
	TypeFile EntryType = iota
	TypeDirectory
)

func (t EntryType) String() string {
	if t == TypeDirectory {
		return "directory"
	}
	return "file"
}

// FileStat is the metadata returned by Store.Info. Atime/Ctime/Mtime are
// optional: backends that cannot cheaply provide one leave it as the zero
// Time, and callers must treat a zero Time as "unknown", not "epoch".
type FileStat struct {
	Type  EntryType
	Size  int64
	Atime time.Time
	Ctime time.Time
	Mtime time.Time
}

// IsDir reports whether the stat describes a directory.
func (s FileStat) IsDir() bool { return s.Type == TypeDirectory }
