package combinator

import (
	"bytes"
	"context"
	"testing"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestLoggerForwardsCallsUnchanged(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	l := NewLogger(inner, nil)

	require.NoError(t, ufs.Put(ctx, l, ufs.NewPath("/f.txt"), []byte("hi")))
	data, err := ufs.Cat(ctx, l, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))

	names, err := l.Ls(ctx, ufs.Root)
	require.NoError(t, err)
	require.Contains(t, names, "f.txt")
}

func TestLoggerRecordsSuccessAndFailure(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	cfg := utils.DefaultStructuredLoggerConfig()
	cfg.Output = &buf
	base, err := utils.NewStructuredLogger(cfg)
	require.NoError(t, err)

	l := NewLogger(memory.New(), base)
	require.NoError(t, ufs.Put(ctx, l, ufs.NewPath("/f.txt"), []byte("hi")))
	require.Contains(t, buf.String(), "ok")

	_, err = l.Info(ctx, ufs.NewPath("/missing"))
	require.Error(t, err)
	require.Contains(t, buf.String(), "failed")
}

func TestLoggerDescriptorRoundtrip(t *testing.T) {
	l := NewLogger(memory.New(), nil)
	d := l.Describe()
	require.Equal(t, "combinator.Logger", d.Cls)

	got, err := ufs.FromDescriptor(d)
	require.NoError(t, err)
	require.IsType(t, &Logger{}, got)
}
