package blobd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func startServer(t *testing.T) (store ufs.Store, base string, cleanup func()) {
	ctx, cancel := context.WithCancel(context.Background())
	store = memory.New()

	srv, err := Listen(ctx, "127.0.0.1:0", store, nil)
	require.NoError(t, err)
	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	return store, fmt.Sprintf("http://%s", srv.Addr()), func() {
		srv.Close(ctx)
		cancel()
	}
}

// TestPostObjectDedupesIdenticalUploads proves spec §8 P9: POSTing the
// same byte stream twice returns the same opaque id both times, and the
// object is stored exactly once.
func TestPostObjectDedupesIdenticalUploads(t *testing.T) {
	store, base, cleanup := startServer(t)
	defer cleanup()

	body := []byte("identical payload")
	wantID := sha256Hex(body)

	resp1, err := http.Post(base+"/ufs/blob/v1/objects", "application/octet-stream", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp1.Body.Close()
	require.Equal(t, http.StatusOK, resp1.StatusCode)
	var id1 string
	require.NoError(t, json.NewDecoder(resp1.Body).Decode(&id1))
	require.Equal(t, wantID, id1)

	resp2, err := http.Post(base+"/ufs/blob/v1/objects", "application/octet-stream", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var id2 string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&id2))
	require.Equal(t, wantID, id2)

	names, err := store.Ls(context.Background(), ufs.Root)
	require.NoError(t, err)
	require.Len(t, names, 1)
}

func TestGetObjectReturnsUploadedBytes(t *testing.T) {
	_, base, cleanup := startServer(t)
	defer cleanup()

	body := []byte("round trip me")
	resp, err := http.Post(base+"/ufs/blob/v1/objects", "application/octet-stream", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var id string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))

	getResp, err := http.Get(base + "/ufs/blob/v1/objects/" + id)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	data, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	require.Equal(t, body, data)
}

func TestGetObjectUnknownIDIs404(t *testing.T) {
	_, base, cleanup := startServer(t)
	defer cleanup()

	resp, err := http.Get(base + "/ufs/blob/v1/objects/" + sha256Hex([]byte("never uploaded")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
