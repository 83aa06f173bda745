// Package handler provides the HTTP API over presentations, generation and
// export.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/pkg/generate"
	"github.com/joeblew999/deckgen/pkg/pipeline"
	"github.com/joeblew999/deckgen/pkg/presentation"
	"github.com/joeblew999/deckgen/pkg/store"
	"github.com/joeblew999/deckgen/runtime"
)

const Version = "0.1.0"

const maxBodyBytes = 4 << 20

// SessionFactory builds an editor session for one presentation.
type SessionFactory func() *presentation.Session

// Deps are the collaborators the API serves. Nil generators disable their
// endpoints with 503.
type Deps struct {
	Store       *store.Store
	Text        generate.TextGenerator
	TextModel   string
	Temperature float64
	Images      generate.ImageGenerator
	Writer      *generate.Writer
	Pipeline    *pipeline.Pipeline
	Sessions    SessionFactory
	Exports     runtime.Storage
	KV          runtime.KVStore
	Metrics     http.Handler
	CORSOrigin  string
	Log         logrus.FieldLogger
	Now         func() time.Time
}

// Server routes API requests.
type Server struct {
	deps Deps
	log  logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*openSession
}

type openSession struct {
	session *presentation.Session
	content string
}

func New(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	if deps.TextModel == "" {
		deps.TextModel = generate.DefaultOutlineModel
	}
	if deps.Exports == nil {
		deps.Exports = runtime.Exports()
	}
	if deps.KV == nil {
		deps.KV = runtime.KV()
	}
	return &Server{deps: deps, log: deps.Log, sessions: make(map[string]*openSession)}
}

// RegisterHandlers registers all HTTP handlers
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", s.cors(s.handleRoot))
	mux.HandleFunc("GET /health", s.cors(s.handleHealth))
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics)
	}

	mux.HandleFunc("POST /api/generate-text", s.cors(s.handleGenerateText))
	mux.HandleFunc("POST /api/generate-image", s.cors(s.handleGenerateImage))
	mux.HandleFunc("POST /api/outline", s.cors(s.handleOutline))
	mux.HandleFunc("POST /api/split", s.cors(s.handleSplit))
	mux.HandleFunc("POST /api/process", s.cors(s.handleProcess))

	mux.HandleFunc("GET /api/presentations", s.cors(s.handleListPresentations))
	mux.HandleFunc("POST /api/presentations", s.cors(s.handleCreatePresentation))
	mux.HandleFunc("GET /api/presentations/check/{id}", s.cors(s.handleCheckPresentation))
	mux.HandleFunc("GET /api/presentations/{id}", s.cors(s.handleGetPresentation))
	mux.HandleFunc("PUT /api/presentations/{id}", s.cors(s.handleUpdatePresentation))
	mux.HandleFunc("DELETE /api/presentations/{id}", s.cors(s.handleDeletePresentation))
	mux.HandleFunc("GET /api/presentations/{id}/slides/{n}", s.cors(s.handleSlideSVG))
	mux.HandleFunc("POST /api/presentations/{id}/images", s.cors(s.handleGenerateImages))
	mux.HandleFunc("POST /api/presentations/{id}/narration/{n}", s.cors(s.handleNarrate))
	mux.HandleFunc("POST /api/presentations/{id}/export", s.cors(s.handleExport))

	mux.HandleFunc("GET /status/{key}", s.cors(s.handleStatus))
	mux.HandleFunc("GET /exports/{name}", s.cors(s.handleGetExport))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHandlers(mux)
	return mux
}

// Close releases every open editor session.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for id, o := range s.sessions {
		errs = append(errs, o.session.Close())
		delete(s.sessions, id)
	}
	return errors.Join(errs...)
}

// cors wraps a handler with CORS headers
func (s *Server) cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.deps.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}
	formats := make([]string, 0)
	for _, f := range pipeline.SupportedFormats() {
		formats = append(formats, string(f))
	}
	writeJSON(w, RootResponse{
		Service: "deckgen",
		Version: Version,
		Endpoints: []string{
			"/health", "/metrics",
			"/api/generate-text", "/api/generate-image", "/api/outline", "/api/split", "/api/process",
			"/api/presentations", "/api/presentations/:id", "/api/presentations/check/:id",
			"/api/presentations/:id/slides/:n.svg", "/api/presentations/:id/images",
			"/api/presentations/:id/narration/:n", "/api/presentations/:id/export",
			"/status/:key", "/exports/:name",
		},
		Formats: formats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Version: Version})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	data, err := s.deps.KV.Get(r.Context(), "status:"+key)
	if err != nil || data == nil {
		writeJSON(w, StatusResponse{Key: key, Status: "unknown"})
		return
	}

	var status StatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		writeError(w, "Invalid status data", http.StatusInternalServerError)
		return
	}
	status.Key = key
	writeJSON(w, status)
}

func (s *Server) setStatus(ctx context.Context, key string, st StatusResponse) {
	st.Key = key
	st.UpdatedAt = s.deps.Now().UTC().Format(time.RFC3339)
	data, _ := json.Marshal(st)
	if err := s.deps.KV.Put(ctx, "status:"+key, data); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("status not recorded")
	}
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	v := NewValidator()
	v.RequireID(name)
	if !v.IsValid() {
		writeError(w, "Invalid export name", http.StatusBadRequest)
		return
	}
	reader, err := s.deps.Exports.Get(r.Context(), name)
	if err != nil {
		writeError(w, "Export not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	io.Copy(w, reader)
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	case strings.HasSuffix(name, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(name, ".dsh"):
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// decode reads a JSON body of at most maxBodyBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSONStatus(w, status, ErrorResponse{Error: message})
}

func writeInvalid(w http.ResponseWriter, v *Validator) {
	writeJSONStatus(w, http.StatusBadRequest, ErrorResponse{Error: v.Error(), Details: v.Errors()})
}
