//go:build cgofuse

package cgofuse

import (
	"os"
	"testing"

	winfsp "github.com/winfsp/cgofuse/fuse"
	"github.com/stretchr/testify/require"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

func TestErrcTranslation(t *testing.T) {
	require.Equal(t, 0, errc(nil))
	require.Equal(t, -winfsp.ENOENT, errc(ufs.NotFound("info", ufs.Root)))
	require.Equal(t, -winfsp.EEXIST, errc(ufs.AlreadyExists("mkdir", ufs.Root)))
	require.Equal(t, -winfsp.ENOTSUP, errc(ufs.Unsupported("put", ufs.Root)))
}

func TestOpenModeFromFlags(t *testing.T) {
	require.Equal(t, ufs.OpenMode{Write: true}, openModeFromFlags(os.O_WRONLY|os.O_CREAT|os.O_TRUNC))
	require.Equal(t, ufs.OpenMode{Read: true, Updating: true}, openModeFromFlags(os.O_RDWR))
	require.Equal(t, ufs.OpenMode{Read: true}, openModeFromFlags(os.O_RDONLY))
}

func TestFillStat(t *testing.T) {
	fsys := New(nil, false)
	var stat winfsp.Stat_t
	fsys.fillStat(&stat, ufs.FileStat{Type: ufs.TypeDirectory})
	require.Equal(t, uint32(modeDir), stat.Mode)

	fsys.fillStat(&stat, ufs.FileStat{Type: ufs.TypeFile, Size: 42})
	require.Equal(t, uint32(modeFile), stat.Mode)
	require.Equal(t, int64(42), stat.Size)
}
