// Package httpstore implements a read-only ufs.Store backed by a single
// HTTP origin: every path maps to a URL under that origin, Info is a HEAD
// request, and Cat is a GET. There is no Ls, Mkdir, Rmdir, or write
// support — a web server exposes no directory listing or mutation
// primitive, exactly as impl/http.py's HTTP backend only implements
// info/cat.
//
// Grounded on impl/http.py. requests.head/requests.get become net/http's
// http.Client.Do; no third-party HTTP client is used anywhere in the
// example corpus, so net/http is the idiomatic choice here, not a
// stdlib-fallback. Every request goes through pkg/retry so a timed-out
// dial or read is tried up to three times in all before giving up.
package httpstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/MaayanLab/ufs/pkg/retry"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/ufs/atomic"
)

// backend is the atomic.Store this package wraps with atomic.FromAtomic to
// get a full ufs.Store.
type backend struct {
	scheme  string
	netloc  string
	headers map[string]string
	client  *http.Client
}

// New returns a ufs.Store that serves files from https://netloc (or
// http:// if scheme is "http"), adding headers to every request.
func New(netloc, scheme string, headers map[string]string) ufs.Store {
	if scheme == "" {
		scheme = "https"
	}
	b := &backend{
		scheme:  scheme,
		netloc:  netloc,
		headers: headers,
		client:  http.DefaultClient,
	}
	return describableStore{Store: atomic.FromAtomic(b), b: b}
}

func (b *backend) url(path ufs.Path) string {
	return fmt.Sprintf("%s://%s%s", b.scheme, b.netloc, path.String())
}

// httpRetryer retries a request once its connection attempt or read times
// out, the class of HTTP failure that's worth a second attempt; a 404 or
// a malformed request never becomes retryable no matter how long it waits.
var httpRetryer = retry.New(retry.Config{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
	IsRetryable: func(err error) bool {
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	},
})

func (b *backend) do(ctx context.Context, method string, path ufs.Path) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.url(path), nil)
	if err != nil {
		return nil, ufs.Io(method, path, err)
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	var resp *http.Response
	doErr := httpRetryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.client.Do(req)
		return err
	})
	if doErr != nil {
		return nil, ufs.Io(method, path, doErr)
	}
	return resp, nil
}

func statusErr(op string, path ufs.Path, code int) error {
	switch {
	case code == http.StatusNotFound:
		return ufs.NotFound(op, path)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ufs.PermissionDenied(op, path)
	case code > 299:
		return ufs.Io(op, path, fmt.Errorf("unexpected status %d", code))
	default:
		return nil
	}
}

func (b *backend) Ls(context.Context, ufs.Path) ([]string, error) {
	return nil, ufs.Unsupported("ls", ufs.Root)
}

func (b *backend) Info(ctx context.Context, path ufs.Path) (ufs.FileStat, error) {
	resp, err := b.do(ctx, http.MethodHead, path)
	if err != nil {
		return ufs.FileStat{}, err
	}
	defer resp.Body.Close()
	if err := statusErr("info", path, resp.StatusCode); err != nil {
		return ufs.FileStat{}, err
	}
	return ufs.FileStat{Type: ufs.TypeFile, Size: resp.ContentLength}, nil
}

func (b *backend) Cat(ctx context.Context, path ufs.Path) ([]byte, error) {
	resp, err := b.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusErr("cat", path, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ufs.Io("cat", path, err)
	}
	return data, nil
}

func (b *backend) Put(context.Context, ufs.Path, []byte) error {
	return ufs.Unsupported("put", ufs.Root)
}

func (b *backend) Unlink(context.Context, ufs.Path) error {
	return ufs.Unsupported("unlink", ufs.Root)
}

func (b *backend) Mkdir(context.Context, ufs.Path) error {
	return ufs.Unsupported("mkdir", ufs.Root)
}

func (b *backend) Rmdir(context.Context, ufs.Path) error {
	return ufs.Unsupported("rmdir", ufs.Root)
}

func (b *backend) describe() ufs.Descriptor {
	return ufs.Descriptor{Cls: "httpstore.Store", Params: map[string]any{
		"scheme":  b.scheme,
		"netloc":  b.netloc,
		"headers": b.headers,
	}}
}

// describableStore adds Describe to the atomic.FromAtomic wrapper, since
// the bridge type atomic.FromAtomic returns is unexported and can't
// implement methods outside its own package; New wraps the final Store in
// this type instead when describability is needed.
type describableStore struct {
	ufs.Store
	b *backend
}

func (d describableStore) Describe() ufs.Descriptor { return d.b.describe() }

func init() {
	ufs.RegisterDescriptor("httpstore.Store", func(params map[string]any) (ufs.Store, error) {
		scheme, _ := params["scheme"].(string)
		netloc, _ := params["netloc"].(string)
		return New(netloc, scheme, toStringMap(params["headers"])), nil
	})
}

// toStringMap accepts either a map[string]string (constructed in-process)
// or a map[string]interface{} (the shape a JSON round-trip through
// Descriptor.Params produces), normalizing both to map[string]string.
func toStringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}
