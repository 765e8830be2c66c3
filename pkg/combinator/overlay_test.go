package combinator

import (
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestOverlayReadsLowerWhenUpperMissing(t *testing.T) {
	ctx := context.Background()
	lower, upper := memory.New(), memory.New()
	require.NoError(t, ufs.Put(ctx, lower, ufs.NewPath("/a.txt"), []byte("from-lower")))

	o := NewOverlay(lower, upper)
	data, err := ufs.Cat(ctx, o, ufs.NewPath("/a.txt"))
	require.NoError(t, err)
	require.Equal(t, "from-lower", string(data))
}

func TestOverlayWritesGoToUpper(t *testing.T) {
	ctx := context.Background()
	lower, upper := memory.New(), memory.New()
	o := NewOverlay(lower, upper)

	require.NoError(t, ufs.Put(ctx, o, ufs.NewPath("/b.txt"), []byte("x")))

	_, err := lower.Info(ctx, ufs.NewPath("/b.txt"))
	require.Error(t, err, "write must not land on lower")
	_, err = upper.Info(ctx, ufs.NewPath("/b.txt"))
	require.NoError(t, err)
}

func TestOverlayLsUnionsBoth(t *testing.T) {
	ctx := context.Background()
	lower, upper := memory.New(), memory.New()
	require.NoError(t, ufs.Put(ctx, lower, ufs.NewPath("/l.txt"), []byte("l")))
	require.NoError(t, ufs.Put(ctx, upper, ufs.NewPath("/u.txt"), []byte("u")))

	o := NewOverlay(lower, upper)
	names, err := o.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"l.txt", "u.txt"}, names)
}

func TestOverlayUnlinkOfLowerOnlyFailsNotFound(t *testing.T) {
	ctx := context.Background()
	lower, upper := memory.New(), memory.New()
	require.NoError(t, ufs.Put(ctx, lower, ufs.NewPath("/only-lower.txt"), []byte("l")))

	o := NewOverlay(lower, upper)
	err := o.Unlink(ctx, ufs.NewPath("/only-lower.txt"))
	require.Error(t, err, "unlink of a lower-only path must fail, not whiteout")

	// the lower file is still there and still visible through the overlay
	data, catErr := ufs.Cat(ctx, o, ufs.NewPath("/only-lower.txt"))
	require.NoError(t, catErr)
	require.Equal(t, "l", string(data))
}

func TestOverlayCopyUpOnUpdatingOpen(t *testing.T) {
	ctx := context.Background()
	lower, upper := memory.New(), memory.New()
	require.NoError(t, ufs.Put(ctx, lower, ufs.NewPath("/rw.txt"), []byte("hello")))

	o := NewOverlay(lower, upper)
	h, err := o.Open(ctx, ufs.NewPath("/rw.txt"), ufs.OpenMode{Read: true, Updating: true}, nil)
	require.NoError(t, err)
	require.NoError(t, o.Close(ctx, h))

	_, err = upper.Info(ctx, ufs.NewPath("/rw.txt"))
	require.NoError(t, err, "updating open of a lower-only path must copy up")
}
