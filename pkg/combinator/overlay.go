package combinator

import (
	"context"
	"errors"

	"github.com/MaayanLab/ufs/pkg/ufs"
)

type overlayHandle struct {
	provider ufs.Store
	h        ufs.Handle
}

// Overlay composes two Stores OverlayFS-style: lower is read from when
// upper lacks the path, but all writes, unlinks, mkdirs, and rmdirs go to
// upper only. Opening an existing lower-only path in an updating ("+")
// mode triggers a copy-up into upper first. Grounded on impl/overlay.py.
//
// Unlink of a lower-only path is pass-through: Overlay.Unlink only ever
// calls upper.Unlink, which fails NotFound for a path that was never
// written to upper — the lower file remains visible afterward. This is
// the Python original's actual (if perhaps accidental) behavior, not a
// whiteout scheme, and SPEC_FULL.md pins it as the resolution of the
// "Overlay unlink of lower-only path" open question.
type Overlay struct {
	lower, upper ufs.Store
	handles      *ufs.HandleTable[*overlayHandle]
}

var _ ufs.Store = (*Overlay)(nil)

// NewOverlay builds an Overlay reading lower as fallback, writing upper.
func NewOverlay(lower, upper ufs.Store) *Overlay {
	return &Overlay{lower: lower, upper: upper, handles: ufs.NewHandleTable[*overlayHandle]()}
}

func (o *Overlay) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	upperNames, upperErr := o.upper.Ls(ctx, path)
	lowerNames, lowerErr := o.lower.Ls(ctx, path)
	if upperErr != nil && lowerErr != nil {
		return nil, ufs.NotFound("ls", path)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, n := range upperNames {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range lowerNames {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

func (o *Overlay) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	if st, err := o.upper.Info(ctx, path); err == nil {
		return st, nil
	}
	return o.lower.Info(ctx, path)
}

func (o *Overlay) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	var provider ufs.Store
	var h ufs.Handle
	var err error
	switch {
	case mode.Read && !mode.Write && !mode.Append && !mode.Updating:
		provider = o.upper
		h, err = o.upper.Open(ctx, path, mode, sizeHint)
		if err != nil {
			provider = o.lower
			h, err = o.lower.Open(ctx, path, mode, sizeHint)
		}
	case mode.Updating:
		provider = o.upper
		h, err = o.upper.Open(ctx, path, mode, sizeHint)
		if err != nil {
			if cpErr := ufs.CopyAcross(ctx, o.lower, path, o.upper, path); cpErr != nil {
				return 0, cpErr
			}
			h, err = o.upper.Open(ctx, path, mode, sizeHint)
		}
	default:
		provider = o.upper
		h, err = o.upper.Open(ctx, path, mode, sizeHint)
	}
	if err != nil {
		return 0, err
	}
	return o.handles.Alloc(&overlayHandle{provider: provider, h: h}), nil
}

func (o *Overlay) get(h ufs.Handle) (*overlayHandle, error) {
	oh, ok := o.handles.Get(h)
	if !ok {
		return nil, ufs.NotFound("handle", ufs.Root)
	}
	return oh, nil
}

func (o *Overlay) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	oh, err := o.get(h)
	if err != nil {
		return 0, err
	}
	return oh.provider.Seek(ctx, oh.h, pos, whence)
}

func (o *Overlay) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	oh, err := o.get(h)
	if err != nil {
		return nil, err
	}
	return oh.provider.Read(ctx, oh.h, amnt)
}

func (o *Overlay) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	oh, err := o.get(h)
	if err != nil {
		return 0, err
	}
	if oh.provider != o.upper {
		return 0, errors.New("ufs: overlay write handle must be upper")
	}
	return oh.provider.Write(ctx, oh.h, data)
}

func (o *Overlay) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	oh, err := o.get(h)
	if err != nil {
		return err
	}
	return oh.provider.Truncate(ctx, oh.h, length)
}

func (o *Overlay) Close(ctx context.Context, h ufs.Handle) error {
	oh, ok := o.handles.Release(h)
	if !ok {
		return ufs.NotFound("close", ufs.Root)
	}
	return oh.provider.Close(ctx, oh.h)
}

func (o *Overlay) Unlink(ctx context.Context, path ufs.Path) error { return o.upper.Unlink(ctx, path) }
func (o *Overlay) Mkdir(ctx context.Context, path ufs.Path) error  { return o.upper.Mkdir(ctx, path) }
func (o *Overlay) Rmdir(ctx context.Context, path ufs.Path) error  { return o.upper.Rmdir(ctx, path) }

func (o *Overlay) Flush(ctx context.Context, h ufs.Handle) error {
	oh, err := o.get(h)
	if err != nil {
		return err
	}
	return oh.provider.Flush(ctx, oh.h)
}

func (o *Overlay) Start(ctx context.Context) error {
	if err := o.lower.Start(ctx); err != nil {
		return err
	}
	return o.upper.Start(ctx)
}

func (o *Overlay) Stop(ctx context.Context) error {
	if err := o.upper.Stop(ctx); err != nil {
		return err
	}
	return o.lower.Stop(ctx)
}

// Describe implements ufs.Describable when both sides do.
func (o *Overlay) Describe() ufs.Descriptor {
	params := map[string]any{}
	if d, ok := o.lower.(ufs.Describable); ok {
		params["lower"] = d.Describe()
	}
	if d, ok := o.upper.(ufs.Describable); ok {
		params["upper"] = d.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.Overlay", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.Overlay", func(params map[string]any) (ufs.Store, error) {
		lower, err := ufs.FromDescriptor(params["lower"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		upper, err := ufs.FromDescriptor(params["upper"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		return NewOverlay(lower, upper), nil
	})
}
