package prefixtree

import (
	"testing"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestSearchLongestMatchWins(t *testing.T) {
	root := Build([]ufs.Path{ufs.NewPath("/a"), ufs.NewPath("/a/b")})

	prefix, sub, ok := Search(root, ufs.NewPath("/a/b/c"))
	require.True(t, ok)
	require.Equal(t, "/a/b", prefix.String())
	require.Equal(t, "/c", sub.String())

	prefix, sub, ok = Search(root, ufs.NewPath("/a/x"))
	require.True(t, ok)
	require.Equal(t, "/a", prefix.String())
	require.Equal(t, "/x", sub.String())

	_, _, ok = Search(root, ufs.NewPath("/z"))
	require.False(t, ok)
}
