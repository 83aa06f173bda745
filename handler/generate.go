package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joeblew999/deckgen/pkg/generate"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/pipeline"
)

var roles = []string{string(generate.RoleSystem), string(generate.RoleUser), string(generate.RoleAssistant)}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	if s.deps.Text == nil {
		writeError(w, "Text generation is not configured", http.StatusServiceUnavailable)
		return
	}
	var req TextRequest
	if !decode(w, r, &req) {
		return
	}
	v := NewValidator()
	if len(req.Messages) == 0 {
		v.RequireNonEmpty("messages", "")
	}
	messages := make([]generate.Message, 0, len(req.Messages))
	for i, m := range req.Messages {
		v.RequireOneOf(fmt.Sprintf("messages[%d].role", i), m.Role, roles)
		messages = append(messages, generate.Message{Role: generate.Role(m.Role), Content: m.Content})
	}
	if !v.IsValid() {
		writeInvalid(w, v)
		return
	}

	model, temp := req.Model, s.deps.Temperature
	if model == "" {
		model = s.deps.TextModel
	}
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	text, err := s.deps.Text.GenerateText(r.Context(), messages, model, temp)
	if err != nil {
		s.log.WithError(err).Warn("text generation failed")
		writeError(w, "Text generation failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, TextResponse{Text: text})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		writeError(w, "Image generation is not configured", http.StatusServiceUnavailable)
		return
	}
	var req ImageRequest
	if !decode(w, r, &req) {
		return
	}
	v := NewValidator()
	v.RequireNonEmpty("prompt", req.Prompt)
	if !v.IsValid() {
		writeInvalid(w, v)
		return
	}
	url, err := s.deps.Images.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		s.log.WithError(err).Warn("image generation failed")
		writeError(w, "Image generation failed", http.StatusBadGateway)
		return
	}
	if url == "" {
		writeError(w, "No image was produced", http.StatusBadGateway)
		return
	}
	writeJSON(w, ImageResponse{URL: url})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	if s.deps.Writer == nil {
		writeError(w, "Outline generation is not configured", http.StatusServiceUnavailable)
		return
	}
	var brief generate.Brief
	if !decode(w, r, &brief) {
		return
	}
	slides, content, err := s.deps.Writer.Outline(r.Context(), brief)
	switch {
	case errors.Is(err, generate.ErrInvalidBrief):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, outline.ErrInsufficientSlides):
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.log.WithError(err).Warn("outline generation failed")
		writeError(w, "Outline generation failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, OutlineResponse{Content: content, Slides: slides})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !decode(w, r, &req) {
		return
	}
	v := NewValidator()
	v.RequirePositive("count", req.Count)
	if !v.IsValid() {
		writeInvalid(w, v)
		return
	}
	slides, err := outline.Split(req.Text, req.Count)
	if err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, SplitResponse{Slides: slides})
}

// handleProcess converts a posted outline or decksh source. Per-slide
// formats answer with JSON; the others with the document itself.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pipeline == nil {
		writeError(w, "Processing is not configured", http.StatusServiceUnavailable)
		return
	}
	formatParam := r.URL.Query().Get("format")
	allowed := make([]string, 0)
	for _, f := range pipeline.SupportedFormats() {
		allowed = append(allowed, string(f))
	}
	v := NewValidator()
	v.RequireValidFormat(formatParam, allowed)
	if !v.IsValid() {
		writeInvalid(w, v)
		return
	}
	format := pipeline.FormatSVG
	if formatParam != "" {
		format = pipeline.OutputFormat(formatParam)
	}

	source, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	result, err := s.deps.Pipeline.Process(r.Context(), source, format)
	if err != nil {
		writeError(w, fmt.Sprintf("Processing failed: %v", err), http.StatusBadRequest)
		return
	}

	if format == pipeline.FormatSVG || format == pipeline.FormatHTML {
		slides := make([]string, len(result.Slides))
		for i, sl := range result.Slides {
			slides[i] = string(sl)
		}
		writeJSON(w, ProcessResponse{
			Success:    true,
			Title:      result.Title,
			SlideCount: result.SlideCount,
			Slides:     slides,
			Format:     string(format),
		})
		return
	}

	ext := string(format)
	if format == pipeline.FormatPNG {
		ext = "zip"
	}
	w.Header().Set("Content-Type", result.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "deck."+ext))
	w.Write(result.Document)
}
