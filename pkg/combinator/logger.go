package combinator

import (
	"context"
	"fmt"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"
)

// Logger is a transparent proxy that logs every call it forwards to inner
// at Warn level on success and Error level (with the failing call
// signature) on error, using the module's structured logger. Grounded on
// impl/logger.py, whose Python `_call` helper logs every op the same way
// at warning/error severity regardless of which op it is.
type Logger struct {
	inner ufs.Store
	log   *utils.StructuredLogger
}

var _ ufs.Store = (*Logger)(nil)

// NewLogger wraps inner, logging through log (or a default stdout logger
// if log is nil).
func NewLogger(inner ufs.Store, log *utils.StructuredLogger) *Logger {
	if log == nil {
		l, _ := utils.NewStructuredLogger(nil)
		log = l
	}
	return &Logger{inner: inner, log: log.WithComponent("ufs.Logger")}
}

func (l *Logger) call(op string, fields map[string]interface{}, fn func() error) error {
	err := fn()
	if err != nil {
		l.log.WithFields(fields).Error(fmt.Sprintf("%s failed", op), map[string]interface{}{"error": err.Error()})
	} else {
		l.log.WithFields(fields).Warn(fmt.Sprintf("%s ok", op))
	}
	return err
}

func (l *Logger) Ls(ctx context.Context, path ufs.Path) ([]string, error) {
	var out []string
	err := l.call("ls", map[string]interface{}{"path": path.String()}, func() error {
		var e error
		out, e = l.inner.Ls(ctx, path)
		return e
	})
	return out, err
}

func (l *Logger) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	var out ufs.FileStat
	err := l.call("info", map[string]interface{}{"path": path.String()}, func() error {
		var e error
		out, e = l.inner.Info(ctx, path)
		return e
	})
	return out, err
}

func (l *Logger) Open(ctx context.Context, path ufs.Path, mode ufs.OpenMode, sizeHint *int64) (ufs.Handle, error) {
	var out ufs.Handle
	err := l.call("open", map[string]interface{}{"path": path.String()}, func() error {
		var e error
		out, e = l.inner.Open(ctx, path, mode, sizeHint)
		return e
	})
	return out, err
}

func (l *Logger) Seek(ctx context.Context, h ufs.Handle, pos int64, whence ufs.SeekWhence) (int64, error) {
	var out int64
	err := l.call("seek", map[string]interface{}{"handle": int(h)}, func() error {
		var e error
		out, e = l.inner.Seek(ctx, h, pos, whence)
		return e
	})
	return out, err
}

func (l *Logger) Read(ctx context.Context, h ufs.Handle, amnt int) ([]byte, error) {
	var out []byte
	err := l.call("read", map[string]interface{}{"handle": int(h)}, func() error {
		var e error
		out, e = l.inner.Read(ctx, h, amnt)
		return e
	})
	return out, err
}

func (l *Logger) Write(ctx context.Context, h ufs.Handle, data []byte) (int, error) {
	var out int
	err := l.call("write", map[string]interface{}{"handle": int(h), "bytes": len(data)}, func() error {
		var e error
		out, e = l.inner.Write(ctx, h, data)
		return e
	})
	return out, err
}

func (l *Logger) Truncate(ctx context.Context, h ufs.Handle, length int64) error {
	return l.call("truncate", map[string]interface{}{"handle": int(h)}, func() error {
		return l.inner.Truncate(ctx, h, length)
	})
}

func (l *Logger) Close(ctx context.Context, h ufs.Handle) error {
	return l.call("close", map[string]interface{}{"handle": int(h)}, func() error {
		return l.inner.Close(ctx, h)
	})
}

func (l *Logger) Unlink(ctx context.Context, path ufs.Path) error {
	return l.call("unlink", map[string]interface{}{"path": path.String()}, func() error {
		return l.inner.Unlink(ctx, path)
	})
}

func (l *Logger) Mkdir(ctx context.Context, path ufs.Path) error {
	return l.call("mkdir", map[string]interface{}{"path": path.String()}, func() error {
		return l.inner.Mkdir(ctx, path)
	})
}

func (l *Logger) Rmdir(ctx context.Context, path ufs.Path) error {
	return l.call("rmdir", map[string]interface{}{"path": path.String()}, func() error {
		return l.inner.Rmdir(ctx, path)
	})
}

func (l *Logger) Flush(ctx context.Context, h ufs.Handle) error {
	return l.call("flush", map[string]interface{}{"handle": int(h)}, func() error {
		return l.inner.Flush(ctx, h)
	})
}

func (l *Logger) Start(ctx context.Context) error {
	return l.call("start", nil, func() error { return l.inner.Start(ctx) })
}

func (l *Logger) Stop(ctx context.Context) error {
	return l.call("stop", nil, func() error { return l.inner.Stop(ctx) })
}

// Describe implements ufs.Describable when inner does.
func (l *Logger) Describe() ufs.Descriptor {
	params := map[string]any{}
	if d, ok := l.inner.(ufs.Describable); ok {
		params["ufs"] = d.Describe()
	}
	return ufs.Descriptor{Cls: "combinator.Logger", Params: params}
}

func init() {
	ufs.RegisterDescriptor("combinator.Logger", func(params map[string]any) (ufs.Store, error) {
		inner, err := ufs.FromDescriptor(params["ufs"].(ufs.Descriptor))
		if err != nil {
			return nil, err
		}
		return NewLogger(inner, nil), nil
	})
}
