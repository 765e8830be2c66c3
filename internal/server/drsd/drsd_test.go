package drsd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestBuildIndexHashesFilesAndDirectories(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Mkdir(ctx, ufs.NewPath("/dir")))
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/dir/a.txt"), []byte("aaa")))
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/dir/b.txt"), []byte("bbb")))

	idx, err := Build(ctx, store)
	require.NoError(t, err)

	aHash := sha256Hex([]byte("aaa"))
	bHash := sha256Hex([]byte("bbb"))
	_, ok := idx.objects[aHash]
	require.True(t, ok)
	_, ok = idx.objects[bHash]
	require.True(t, ok)

	h := sha256.New()
	h.Write([]byte(aHash))
	h.Write([]byte(bHash))
	dirHash := hex.EncodeToString(h.Sum(nil))
	dirObj, ok := idx.objects[dirHash]
	require.True(t, ok)
	require.Equal(t, "/dir", dirObj.path.String())
	require.Equal(t, []string{aHash, bHash}, idx.bundles[dirHash])
}

func TestBuildIndexSkipsEmptyDirectories(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Mkdir(ctx, ufs.NewPath("/empty")))

	idx, err := Build(ctx, store)
	require.NoError(t, err)
	require.Empty(t, idx.objects)
}

func TestServerServesObjectsAndData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("hello")))

	srv, err := Listen(ctx, "127.0.0.1:0", "http://example.test", store, nil)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	base := fmt.Sprintf("http://%s", srv.Addr())
	objectID := sha256Hex([]byte("hello"))

	resp, err := http.Get(base + "/ga4gh/drs/v1/objects/" + objectID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var obj map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obj))
	require.Equal(t, "a.txt", obj["name"])

	resp2, err := http.Get(base + "/ga4gh/drs/v1/objects/" + objectID + "/data")
	require.NoError(t, err)
	defer resp2.Body.Close()
	data, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	resp3, err := http.Get(base + "/ga4gh/drs/v1/objects/does-not-exist")
	require.NoError(t, err)
	resp3.Body.Close()
	require.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestServerRecordsMetricsByRouteTemplate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("hello")))

	collector := metrics.NewCollector()
	srv, err := Listen(ctx, "127.0.0.1:0", "http://example.test", store, collector)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	base := fmt.Sprintf("http://%s", srv.Addr())
	objectID := sha256Hex([]byte("hello"))
	resp, err := http.Get(base + "/ga4gh/drs/v1/objects/" + objectID)
	require.NoError(t, err)
	resp.Body.Close()

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), `component="drs",operation="/ga4gh/drs/v1/objects/{object_id}",status="ok"`)
}
