package handler

import (
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/store"
)

// Response types for consistent API contracts

// ProcessResponse is returned by /api/process for per-slide formats
type ProcessResponse struct {
	Success    bool     `json:"success"`
	Title      string   `json:"title,omitempty"`
	SlideCount int      `json:"slideCount"`
	Slides     []string `json:"slides"`
	Format     string   `json:"format,omitempty"`
}

// TextRequest is the body of /api/generate-text
type TextRequest struct {
	Messages    []MessageBody `json:"messages"`
	Model       string        `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type MessageBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TextResponse struct {
	Text string `json:"text"`
}

// ImageRequest is the body of /api/generate-image
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

type ImageResponse struct {
	URL string `json:"url"`
}

// OutlineResponse is returned by /api/outline
type OutlineResponse struct {
	Content string          `json:"content"`
	Slides  []outline.Slide `json:"slides"`
}

// SplitRequest is the body of /api/split
type SplitRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type SplitResponse struct {
	Slides []outline.Slide `json:"slides"`
}

// PresentationsResponse is returned by GET /api/presentations
type PresentationsResponse struct {
	Presentations []*store.Presentation `json:"presentations"`
	Count         int                   `json:"count"`
}

type ExistsResponse struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}

// ImagesResponse is returned after generating slide images
type ImagesResponse struct {
	Generated int `json:"generated"`
	Slides    int `json:"slides"`
}

type NarrationResponse struct {
	Slide     int    `json:"slide"`
	Narration string `json:"narration"`
}

// ExportResponse points at a stored export
type ExportResponse struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	MIME  string `json:"mime"`
	Pages int    `json:"pages"`
	Bytes int    `json:"bytes"`
}

// StatusResponse is returned by /status endpoint
type StatusResponse struct {
	Key       string `json:"key"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Error     string `json:"error,omitempty"`
	Export    string `json:"export,omitempty"`
}

// ErrorResponse is returned for all error cases
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// HealthResponse is returned by /health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RootResponse is returned by / endpoint
type RootResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Formats   []string `json:"formats,omitempty"`
}
