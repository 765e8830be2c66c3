package s3store

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	bucket, key, ok := splitPath(ufs.NewPath("/mybucket/a/b.txt"))
	require.True(t, ok)
	require.Equal(t, "mybucket", bucket)
	require.Equal(t, "a/b.txt", key)

	bucket, key, ok = splitPath(ufs.NewPath("/mybucket"))
	require.True(t, ok)
	require.Equal(t, "mybucket", bucket)
	require.Equal(t, "", key)

	_, _, ok = splitPath(ufs.Root)
	require.False(t, ok)
}

func TestDescriptorRoundtripsThroughRegistry(t *testing.T) {
	store, err := New(context.Background(), Config{
		AccessKey:       "AKIA",
		SecretAccessKey: "secret",
		EndpointURL:     "http://localhost:9000",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	descr := store.(ufs.Describable).Describe()
	require.Equal(t, "s3store.Store", descr.Cls)

	rebuilt, err := ufs.FromDescriptor(descr)
	require.NoError(t, err)
	require.Equal(t, descr, rebuilt.(ufs.Describable).Describe())
}
