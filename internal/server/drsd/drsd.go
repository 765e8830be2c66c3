// Package drsd serves a ufs.Store as a GA4GH Data Repository Service
// (DRS) endpoint, grounded on access/drs.py's index_ufs_for_drs and
// flask_ufs_for_drs: every file is addressed by the sha256 of its
// content, every non-empty directory is addressed by the sha256 of its
// children's hashes, and the four `/ga4gh/drs/v1/...` routes expose
// object metadata, access URLs, and raw data the same way the Flask
// blueprint does.
//
// Children are sorted lexicographically by name before their hashes are
// concatenated (an explicit departure from access/drs.py's walk-insertion
// order), so a directory's object id is reproducible across independent
// listings rather than depending on traversal order.
package drsd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/shutil"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// object pairs an indexed path with the metadata Info returned for it.
type object struct {
	path ufs.Path
	stat ufs.FileStat
}

// Index is the content-addressed view of a store built by Build, mirroring
// index_ufs_for_drs's objects/bundles/sha256sums dicts.
type Index struct {
	objects map[string]object   // sha256 hex -> object
	bundles map[string][]string // object id -> ordered (sorted-by-name) child ids
}

type namedHash struct {
	name string
	hash string
}

// Build walks store and computes every file's and non-empty directory's
// content hash, mirroring index_ufs_for_drs's post-order walk (dirfirst
// =false, so a directory's children are always hashed before it is).
func Build(ctx context.Context, store ufs.Store) (*Index, error) {
	entries, err := shutil.Walk(ctx, store, ufs.Root, false)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		objects: make(map[string]object),
		bundles: make(map[string][]string),
	}
	childrenByParent := make(map[string][]namedHash)

	for _, e := range entries {
		var hash string
		if e.Stat.IsDir() {
			kids, ok := childrenByParent[e.Path.String()]
			if !ok {
				// empty directory: no bundle, no object, matching
				// index_ufs_for_drs's "don't make empty bundles".
				continue
			}
			sort.Slice(kids, func(i, j int) bool { return kids[i].name < kids[j].name })
			h := sha256.New()
			ids := make([]string, len(kids))
			for i, k := range kids {
				h.Write([]byte(k.hash))
				ids[i] = k.hash
			}
			hash = hex.EncodeToString(h.Sum(nil))
			idx.bundles[hash] = ids
		} else {
			data, err := ufs.Cat(ctx, store, e.Path)
			if err != nil {
				return nil, err
			}
			sum := sha256.Sum256(data)
			hash = hex.EncodeToString(sum[:])
		}
		idx.objects[hash] = object{path: e.Path, stat: e.Stat}
		if !e.Path.IsRoot() {
			parent := e.Path.Parent().String()
			childrenByParent[parent] = append(childrenByParent[parent], namedHash{name: e.Path.Name(), hash: hash})
		}
	}
	return idx, nil
}

// Server exposes an Index and its backing store over the GA4GH DRS v1 API.
type Server struct {
	store      ufs.Store
	index      *Index
	publicURL  string
	httpServer *http.Server
	ln         net.Listener
	metrics    *metrics.Collector
}

// Listen starts store, builds its DRS index, and binds addr. publicURL is
// the externally reachable base URL used in self_uri/access_url fields
// (mirroring access/drs.py's UFS_PUBLIC_URL). collector may be nil, in
// which case no metrics are recorded.
func Listen(ctx context.Context, addr, publicURL string, store ufs.Store, collector *metrics.Collector) (*Server, error) {
	if err := store.Start(ctx); err != nil {
		return nil, err
	}
	index, err := Build(ctx, store)
	if err != nil {
		store.Stop(ctx)
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		store.Stop(ctx)
		return nil, err
	}

	s := &Server{store: store, index: index, publicURL: publicURL, ln: ln, metrics: collector}
	router := mux.NewRouter()
	router.HandleFunc("/ga4gh/drs/v1/service-info", s.serviceInfo).Methods(http.MethodGet)
	router.HandleFunc("/ga4gh/drs/v1/objects/{object_id}", s.getObject).Methods(http.MethodGet)
	router.HandleFunc("/ga4gh/drs/v1/objects/{object_id}/access/{access_id}", s.getAccess).Methods(http.MethodGet)
	router.HandleFunc("/ga4gh/drs/v1/objects/{object_id}/data", s.getData).Methods(http.MethodGet)
	router.Use(s.instrument)
	s.httpServer = &http.Server{Handler: router}
	return s, nil
}

// instrument wraps every route with request-count and latency
// recording, keyed by the matched route template (so /objects/{id}
// doesn't explode into one label per object id).
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := mux.CurrentRoute(r)
		operation := r.URL.Path
		if route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				operation = tmpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		var err error
		if rec.status >= 400 {
			err = fmt.Errorf("http %d", rec.status)
		}
		s.metrics.Observe("drs", operation, start, "", 0, err)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve runs the HTTP server until it is shut down via Close.
func (s *Server) Serve(ctx context.Context) error {
	err := s.httpServer.Serve(s.ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts down the HTTP server and stops the backing store.
func (s *Server) Close(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if stopErr := s.store.Stop(ctx); err == nil {
		err = stopErr
	}
	return err
}

func (s *Server) serviceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":   "cloud.ufs.drs",
		"name": "UFS DRS",
		"type": map[string]string{
			"group":    "org.ga4gh",
			"artifact": "drs",
			"version":  "1.0.0",
		},
		"description":  "DRS access to a UFS-backed store.",
		"organization": map[string]string{"name": "UFS"},
		"environment":  "test",
		"version":      "1.0.0",
	})
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	objectID := mux.Vars(r)["object_id"]
	obj, ok := s.index.objects[objectID]
	if !ok {
		http.NotFound(w, r)
		return
	}

	expand := r.URL.Query().Get("expand") == "true"
	data := map[string]any{
		"id":           objectID,
		"name":         obj.path.Name(),
		"self_uri":     "drs://" + trimScheme(s.publicURL) + "/" + objectID,
		"size":         obj.stat.Size,
		"created_time": rfc3339(obj.stat.Ctime),
		"checksums":    []map[string]string{{"type": "sha-256", "checksum": objectID}},
	}
	if !obj.stat.Mtime.IsZero() {
		data["updated_time"] = rfc3339(obj.stat.Mtime)
	}

	if obj.stat.IsDir() {
		data["contents"] = s.contents(objectID, expand)
	} else {
		data["access_methods"] = []map[string]string{
			{"type": "https", "access_id": "https"},
			{"type": "https", "access_url": s.publicURL + "/ga4gh/drs/v1/objects/" + objectID + "/data"},
		}
	}
	writeJSON(w, http.StatusOK, data)
}

// contents builds the "contents" array for a directory object, recursing
// into child directories when expand is set, mirroring objects_get's
// child-expansion loop.
func (s *Server) contents(objectID string, expand bool) []map[string]any {
	childIDs := s.index.bundles[objectID]
	out := make([]map[string]any, 0, len(childIDs))
	for _, childID := range childIDs {
		child, ok := s.index.objects[childID]
		if !ok {
			continue
		}
		entry := map[string]any{"id": childID, "name": child.path.Name()}
		if expand && child.stat.IsDir() {
			entry["contents"] = s.contents(childID, true)
		}
		out = append(out, entry)
	}
	return out
}

func (s *Server) getAccess(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	objectID, accessID := vars["object_id"], vars["access_id"]
	if accessID != "https" {
		http.NotFound(w, r)
		return
	}
	if _, ok := s.index.objects[objectID]; !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.publicURL + "/ga4gh/drs/v1/objects/" + objectID + "/data",
	})
}

func (s *Server) getData(w http.ResponseWriter, r *http.Request) {
	objectID := mux.Vars(r)["object_id"]
	obj, ok := s.index.objects[objectID]
	if !ok || obj.stat.IsDir() {
		http.NotFound(w, r)
		return
	}
	data, err := ufs.Cat(r.Context(), s.store, obj.path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// rfc3339 formats t, or now if t is the zero Time (UFS leaves Ctime/Mtime
// zero when a backend can't provide one), mirroring access/drs.py's
// RFC3339 helper.
func rfc3339(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// trimScheme strips a leading scheme from publicURL so self_uri can
// rewrite it to a drs:// URI the way re.sub(r'^https', 'drs', ...) does.
func trimScheme(publicURL string) string {
	if i := strings.Index(publicURL, "://"); i >= 0 {
		return publicURL[i+3:]
	}
	return publicURL
}
