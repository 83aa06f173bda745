package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/joeblew999/deckgen/internal/capture"
	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/pipeline"
	"github.com/joeblew999/deckgen/pkg/presentation"
	"github.com/joeblew999/deckgen/pkg/store"
)

var errNoSessions = errors.New("editor sessions are not configured")

func (s *Server) handleListPresentations(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Store.List(r.Context())
	if err != nil {
		writeError(w, fmt.Sprintf("List failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, PresentationsResponse{Presentations: list, Count: len(list)})
}

func (s *Server) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var d store.Draft
	if !decode(w, r, &d) {
		return
	}
	p, err := s.deps.Store.Create(r.Context(), d)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (s *Server) handleCheckPresentation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := s.deps.Store.Exists(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, ExistsResponse{ID: id, Exists: ok})
}

func (s *Server) handleGetPresentation(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleUpdatePresentation(w http.ResponseWriter, r *http.Request) {
	var d store.Draft
	if !decode(w, r, &d) {
		return
	}
	p, err := s.deps.Store.Update(r.Context(), r.PathValue("id"), d)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleDeletePresentation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	s.mu.Lock()
	if o, ok := s.sessions[id]; ok {
		o.session.Close()
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// handleSlideSVG draws slide n (1-based) with the presentation's generated
// images.
func (s *Server) handleSlideSVG(w http.ResponseWriter, r *http.Request) {
	n, ok := slideNumber(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}

	var svg []byte
	sess, err := s.session(r.Context(), p)
	switch {
	case err == nil:
		nodes := sess.Nodes()
		if n > len(nodes) {
			writeError(w, "Slide not found", http.StatusNotFound)
			return
		}
		surface, err := export.NewSurface(n-1, nodes[n-1].HTML(), export.DefaultWidth, export.DefaultHeight, 1)
		if err != nil {
			writeError(w, fmt.Sprintf("Failed to render slide: %v", err), http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := capture.WriteSVG(&buf, capture.Layout(surface.Root, surface.Width, surface.Height)); err != nil {
			writeError(w, fmt.Sprintf("Failed to render slide: %v", err), http.StatusInternalServerError)
			return
		}
		svg = buf.Bytes()
	case errors.Is(err, errNoSessions) && s.deps.Pipeline != nil:
		result, err := s.deps.Pipeline.Process(r.Context(), []byte(p.Content), pipeline.FormatSVG)
		if err != nil || n > len(result.Slides) {
			writeError(w, "Slide not found", http.StatusNotFound)
			return
		}
		svg = result.Slides[n-1]
	default:
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(svg)
}

func (s *Server) handleGenerateImages(w http.ResponseWriter, r *http.Request) {
	p, sess, ok := s.openPresentation(w, r)
	if !ok {
		return
	}
	n, err := sess.GenerateImages(r.Context(), nil)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if p.ThumbnailURL == "" {
		s.saveThumbnail(r.Context(), p, sess)
	}
	writeJSON(w, ImagesResponse{Generated: n, Slides: len(sess.Slides())})
}

// saveThumbnail records the first slide image as the presentation's
// thumbnail.
func (s *Server) saveThumbnail(ctx context.Context, p *store.Presentation, sess *presentation.Session) {
	assets := sess.Assets()
	first := -1
	for i := range assets {
		if first < 0 || i < first {
			first = i
		}
	}
	if first < 0 {
		return
	}
	d := store.Draft{Title: p.Title, Company: p.Company, Creator: p.Creator, Content: p.Content, ThumbnailURL: assets[first].URL}
	if _, err := s.deps.Store.Update(ctx, p.ID, d); err != nil {
		s.log.WithError(err).WithField("id", p.ID).Warn("thumbnail not saved")
	}
}

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	n, ok := slideNumber(w, r)
	if !ok {
		return
	}
	_, sess, ok := s.openPresentation(w, r)
	if !ok {
		return
	}
	text, err := sess.Narrate(r.Context(), n-1)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, NarrationResponse{Slide: n, Narration: text})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, sess, ok := s.openPresentation(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	key := "export-" + p.ID
	s.setStatus(ctx, key, StatusResponse{Status: "running"})

	res, err := sess.Export(ctx)
	if err != nil {
		s.setStatus(ctx, key, StatusResponse{Status: "failed", Error: err.Error()})
		if errors.Is(err, export.ErrUnavailable) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		s.log.WithError(err).WithField("id", p.ID).Error("export failed")
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.deps.Exports.Put(ctx, res.Name, res.Data, res.MIME); err != nil {
		s.setStatus(ctx, key, StatusResponse{Status: "failed", Error: err.Error()})
		writeError(w, fmt.Sprintf("Failed to store export: %v", err), http.StatusInternalServerError)
		return
	}
	s.setStatus(ctx, key, StatusResponse{Status: "done", Export: res.Name})

	writeJSON(w, ExportResponse{
		Name:  res.Name,
		URL:   "/exports/" + res.Name,
		MIME:  res.MIME,
		Pages: res.Pages,
		Bytes: len(res.Data),
	})
}

// openPresentation loads the presentation named in the path and its
// session, writing the error response when either fails.
func (s *Server) openPresentation(w http.ResponseWriter, r *http.Request) (*store.Presentation, *presentation.Session, bool) {
	p, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return nil, nil, false
	}
	sess, err := s.session(r.Context(), p)
	if err != nil {
		s.sessionError(w, err)
		return nil, nil, false
	}
	return p, sess, true
}

// session returns the editor session for p, opening it on first use and
// reloading it when the saved content changed.
func (s *Server) session(ctx context.Context, p *store.Presentation) (*presentation.Session, error) {
	if s.deps.Sessions == nil {
		return nil, errNoSessions
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.sessions[p.ID]
	if !ok {
		sess := s.deps.Sessions()
		if err := sess.Open(ctx, p.Title, p.Content); err != nil {
			sess.Close()
			return nil, fmt.Errorf("open presentation %s: %w", p.ID, err)
		}
		s.sessions[p.ID] = &openSession{session: sess, content: p.Content}
		return sess, nil
	}
	if o.content != p.Content {
		if err := o.session.SetContent(ctx, p.Content); err != nil {
			return nil, fmt.Errorf("reload presentation %s: %w", p.ID, err)
		}
		o.content = p.Content
	}
	return o.session, nil
}

func slideNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(r.PathValue("n"), ".svg"))
	if err != nil || n < 1 {
		writeError(w, "Invalid slide number", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONStatus(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Details: verr.Missing})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, "Presentation not found", http.StatusNotFound)
	default:
		s.log.WithError(err).Error("store failed")
		writeError(w, "Storage error", http.StatusInternalServerError)
	}
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, presentation.ErrBusy):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, presentation.ErrNoGenerator), errors.Is(err, errNoSessions):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, presentation.ErrNoSlide):
		writeError(w, "Slide not found", http.StatusNotFound)
	case errors.Is(err, presentation.ErrNarrationFailed):
		writeError(w, err.Error(), http.StatusBadGateway)
	default:
		s.log.WithError(err).Error("session failed")
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
