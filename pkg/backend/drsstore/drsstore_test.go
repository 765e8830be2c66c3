package drsstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

func TestFlattenBundleAndLeaf(t *testing.T) {
	size := int64(5)
	bundle := object{ID: "bundle1", Contents: []content{{Name: "child.txt", ID: "leaf1"}}}
	leaf := object{ID: "leaf1", Size: &size, AccessMethods: []accessMethod{
		{AccessURL: &accessURL{URL: "PLACEHOLDER"}},
	}}

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ga4gh/drs/v1/objects/bundle1":
			json.NewEncoder(w).Encode(bundle)
		case r.URL.Path == "/ga4gh/drs/v1/objects/leaf1":
			l := leaf
			l.AccessMethods[0].AccessURL.URL = "https://" + r.Host + "/blob"
			json.NewEncoder(w).Encode(l)
		case r.URL.Path == "/blob":
			w.Write([]byte("hello"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	b := &backend{client: srv.Client()}

	ctx := context.Background()
	info, err := b.Info(ctx, ufs.NewPath("/"+host+"/bundle1"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	names, err := b.Ls(ctx, ufs.NewPath("/"+host+"/bundle1"))
	require.NoError(t, err)
	require.Equal(t, []string{"child.txt"}, names)

	leafInfo, err := b.Info(ctx, ufs.NewPath("/"+host+"/bundle1/child.txt"))
	require.NoError(t, err)
	require.False(t, leafInfo.IsDir())
	require.Equal(t, int64(5), leafInfo.Size)

	data, err := b.Cat(ctx, ufs.NewPath("/"+host+"/bundle1/child.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestInfoNotFound(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	b := &backend{client: srv.Client()}
	_, err := b.Info(context.Background(), ufs.NewPath("/"+srv.Listener.Addr().String()+"/missing"))
	require.Error(t, err)
	require.ErrorIs(t, err, ufs.ErrNotFound)
}
