package fallback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

func TestMountCopiesOutAndSyncsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Mkdir(ctx, ufs.NewPath("/dir")))
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/dir/a.txt"), []byte("hello")))

	mnt, err := New(ctx, store, "", false)
	require.NoError(t, err)
	defer os.RemoveAll(mnt.MountDir)

	data, err := os.ReadFile(filepath.Join(mnt.MountDir, "dir", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(mnt.MountDir, "dir", "b.txt"), []byte("new"), 0644))
	require.NoError(t, os.Remove(filepath.Join(mnt.MountDir, "dir", "a.txt")))

	require.NoError(t, mnt.Close(ctx))

	_, err = store.Info(ctx, ufs.NewPath("/dir/a.txt"))
	require.Error(t, err)
	got, err := ufs.Cat(ctx, store, ufs.NewPath("/dir/b.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))

	_, statErr := os.Stat(mnt.MountDir)
	require.True(t, os.IsNotExist(statErr))
}

func TestMountReadonlyDoesNotSyncBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("hello")))

	mnt, err := New(ctx, store, "", true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(mnt.MountDir, "a.txt")))
	require.NoError(t, mnt.Close(ctx))

	_, err = store.Info(ctx, ufs.NewPath("/a.txt"))
	require.NoError(t, err)
}

func TestMountExistingDirectoryIsNotRemovedByClose(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("x")))

	dir, err := os.MkdirTemp("", "ufs-fallback-external-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	mnt, err := New(ctx, store, dir, false)
	require.NoError(t, err)
	require.NoError(t, mnt.Close(ctx))

	_, statErr := os.Stat(dir)
	require.NoError(t, statErr)
}
