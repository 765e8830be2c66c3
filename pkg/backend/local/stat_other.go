//go:build !linux && !darwin

package local

import (
	"os"
	"time"
)

// statTimes has no portable fallback for atime/ctime; callers already
// treat a zero Time as "unknown" per ufs.FileStat's contract.
func statTimes(os.FileInfo) []time.Time {
	return nil
}
