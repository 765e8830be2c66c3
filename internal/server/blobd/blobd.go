// Package blobd serves a ufs.Store as a content-addressed blob store over
// HTTP, grounded on access/blob.py's flask_ufs_for_blob: POSTing a byte
// stream writes it to a scratch file under a combinator.TemporaryDirectory
// while hashing it with sha256, then moves the scratch file to the
// sha256-hex object id iff no object with that id already exists —
// deduplicating identical uploads the same way movefile's
// "only move if the destination is absent" check does. GETting an object
// id returns its raw bytes, or 404s if no such object exists.
package blobd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/combinator"
	"github.com/MaayanLab/ufs/pkg/shutil"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// Server exposes store's content over the blob HTTP API, scratch uploads
// landing in tmpdir before being promoted to their final content address.
type Server struct {
	store      ufs.Store
	tmpdir     *combinator.TemporaryDirectory
	httpServer *http.Server
	ln         net.Listener
	metrics    *metrics.Collector
}

// Listen starts store and a scratch TemporaryDirectory, then binds addr.
// collector may be nil, in which case no metrics are recorded.
func Listen(ctx context.Context, addr string, store ufs.Store, collector *metrics.Collector) (*Server, error) {
	if err := store.Start(ctx); err != nil {
		return nil, err
	}
	tmpdir := combinator.NewTemporaryDirectory(ufs.NewPath(os.TempDir()), ufs.Path{})
	if err := tmpdir.Start(ctx); err != nil {
		store.Stop(ctx)
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		tmpdir.Stop(ctx)
		store.Stop(ctx)
		return nil, err
	}

	s := &Server{store: store, tmpdir: tmpdir, ln: ln, metrics: collector}
	router := mux.NewRouter()
	router.HandleFunc("/ufs/blob/v1/objects", s.postObject).Methods(http.MethodPost)
	router.HandleFunc("/ufs/blob/v1/objects/{object_id}", s.getObject).Methods(http.MethodGet)
	router.Use(s.instrument)
	s.httpServer = &http.Server{Handler: router}
	return s, nil
}

// instrument records request count and latency per route template,
// matching internal/server/drsd's own middleware.
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
		s.metrics.Observe("blob", operation, start, "", 0, err)
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

// Close shuts down the HTTP server and stops the scratch directory and
// backing store.
func (s *Server) Close(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if tmpErr := s.tmpdir.Stop(ctx); err == nil {
		err = tmpErr
	}
	if stopErr := s.store.Stop(ctx); err == nil {
		err = stopErr
	}
	return err
}

// postObject streams the request body to a randomly-named scratch file
// while hashing it, then promotes that file to the sha256-hex object id
// iff no object with that id exists yet, mirroring objects_post's
// hash-while-writing-then-movefile-iff-absent dance.
func (s *Server) postObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tmpName := uuid.New().String()
	tmpPath := ufs.NewPath("/" + tmpName)

	h := sha256.New()
	if err := writeHashed(ctx, s.tmpdir, tmpPath, r.Body, h); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	objectID := hex.EncodeToString(h.Sum(nil))
	finalPath := ufs.NewPath("/" + objectID)

	if _, err := s.store.Info(ctx, finalPath); err != nil {
		if moveErr := shutil.MoveFile(ctx, s.tmpdir, tmpPath, s.store, finalPath); moveErr != nil {
			http.Error(w, moveErr.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		s.tmpdir.Unlink(ctx, tmpPath)
	}

	writeJSON(w, http.StatusOK, objectID)
}

// writeHashed opens path on dst for writing and copies body into it while
// also feeding h, so the digest is computed in the same pass as the write
// instead of a second read-back.
func writeHashed(ctx context.Context, dst ufs.Store, path ufs.Path, body io.Reader, h io.Writer) error {
	handle, err := dst.Open(ctx, path, ufs.OpenMode{Write: true}, nil)
	if err != nil {
		return err
	}
	defer dst.Close(ctx, handle)

	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if _, writeErr := dst.Write(ctx, handle, buf[:n]); writeErr != nil {
				return writeErr
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// getObject returns the raw bytes of the object named by object_id, or
// 404s if no such object exists (including one that is a directory — a
// blob store has no directory concept of its own).
func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	objectID := mux.Vars(r)["object_id"]
	path := ufs.NewPath("/" + objectID)

	info, err := s.store.Info(r.Context(), path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	data, err := ufs.Cat(r.Context(), s.store, path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
