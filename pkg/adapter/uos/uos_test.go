package uos

import (
	"context"
	"os"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestUOSOpenFlagTranslation(t *testing.T) {
	ctx := context.Background()
	u := New(memory.New())

	h, err := u.Open(ctx, ufs.NewPath("/a.txt"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, nil)
	require.NoError(t, err)
	_, err = u.Write(ctx, h, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, u.Close(ctx, h))

	h2, err := u.Open(ctx, ufs.NewPath("/a.txt"), os.O_RDONLY, nil)
	require.NoError(t, err)
	data, err := u.Read(ctx, h2, 1024)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
	require.NoError(t, u.Close(ctx, h2))
}

func TestUOSMkdirListdirStat(t *testing.T) {
	ctx := context.Background()
	u := New(memory.New())

	require.NoError(t, u.Mkdir(ctx, ufs.NewPath("/d")))
	h, err := u.Open(ctx, ufs.NewPath("/d/f.txt"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, nil)
	require.NoError(t, err)
	_, err = u.Write(ctx, h, []byte("xy"))
	require.NoError(t, err)
	require.NoError(t, u.Close(ctx, h))

	names, err := u.Listdir(ctx, ufs.NewPath("/d"))
	require.NoError(t, err)
	require.Contains(t, names, "f.txt")

	info, err := u.Stat(ctx, ufs.NewPath("/d/f.txt"))
	require.NoError(t, err)
	require.Equal(t, int64(2), info.Size)
	require.True(t, u.Access(ctx, ufs.NewPath("/d/f.txt"), 0))
	require.False(t, u.Access(ctx, ufs.NewPath("/nope"), 0))
}

func TestUOSTruncatePathAndHandle(t *testing.T) {
	ctx := context.Background()
	u := New(memory.New())

	h, err := u.Open(ctx, ufs.NewPath("/t.txt"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, nil)
	require.NoError(t, err)
	_, err = u.Write(ctx, h, []byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, u.Close(ctx, h))

	require.NoError(t, u.TruncatePath(ctx, ufs.NewPath("/t.txt"), 4))
	info, err := u.Stat(ctx, ufs.NewPath("/t.txt"))
	require.NoError(t, err)
	require.Equal(t, int64(4), info.Size)
}

func TestUOSRenameRmdirUnlink(t *testing.T) {
	ctx := context.Background()
	u := New(memory.New())

	require.NoError(t, u.Mkdir(ctx, ufs.NewPath("/d")))
	h, err := u.Open(ctx, ufs.NewPath("/src.txt"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, nil)
	require.NoError(t, err)
	require.NoError(t, u.Close(ctx, h))

	require.NoError(t, u.Rename(ctx, ufs.NewPath("/src.txt"), ufs.NewPath("/dst.txt")))
	require.NoError(t, u.Unlink(ctx, ufs.NewPath("/dst.txt")))
	require.NoError(t, u.Rmdir(ctx, ufs.NewPath("/d")))
}
