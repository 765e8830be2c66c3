package httpstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestHTTPStoreInfoAndCat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("hello from http"))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	store := New(u.Host, "http", nil)

	info, err := store.Info(ctx, ufs.NewPath("/ok.txt"))
	require.NoError(t, err)
	require.Equal(t, ufs.TypeFile, info.Type)
	require.Equal(t, int64(len("hello from http")), info.Size)

	data, err := ufs.Cat(ctx, store, ufs.NewPath("/ok.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello from http", string(data))

	_, err = store.Info(ctx, ufs.NewPath("/missing.txt"))
	require.Error(t, err)
}

func TestHTTPStoreRetriesOnTimeout(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&requests, 1)
		if n == 1 {
			time.Sleep(100 * time.Millisecond) // first attempt times out client-side
			return
		}
		w.Write([]byte("second try"))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	store := New(u.Host, "http", nil).(describableStore)
	store.b.client = &http.Client{Timeout: 20 * time.Millisecond}

	data, err := ufs.Cat(context.Background(), store, ufs.NewPath("/f.txt"))
	require.NoError(t, err)
	require.Equal(t, "second try", string(data))
	require.Equal(t, int64(2), atomic.LoadInt64(&requests))
}

func TestHTTPStoreUnsupportedOps(t *testing.T) {
	ctx := context.Background()
	store := New("example.invalid", "https", nil)

	_, err := store.Ls(ctx, ufs.Root)
	require.Error(t, err)

	err = store.Mkdir(ctx, ufs.NewPath("/d"))
	require.Error(t, err)
}
