// Package mcpserver exposes outline splitting, slide rendering and deck
// export as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/pipeline"
	"github.com/joeblew999/deckgen/runtime"
)

const Version = "0.1.0"

type SplitRequest struct {
	Text  string `json:"text"`  // Outline text, slides separated by headings or ---
	Count int    `json:"count"` // Number of slides required
}

type SplitResponse struct {
	Slides []outline.Slide `json:"slides"`
}

type RenderRequest struct {
	Content string `json:"content"` // Outline or decksh source
	Slide   int    `json:"slide"`   // 1-based slide number
	Format  string `json:"format"`  // svg or html
}

type RenderResponse struct {
	Slide      int    `json:"slide"`
	SlideCount int    `json:"slideCount"`
	Markup     string `json:"markup"`
}

type ExportRequest struct {
	Content string `json:"content"` // Outline or decksh source
	Format  string `json:"format"`  // pdf, png or dsh
}

type ExportResponse struct {
	Name       string `json:"name"`
	MIME       string `json:"mime"`
	SlideCount int    `json:"slideCount"`
	Bytes      int    `json:"bytes"`
}

// Tools holds what the tool handlers need.
type Tools struct {
	Pipeline *pipeline.Pipeline
	Exports  runtime.Storage
	Now      func() time.Time
}

// NewServer creates an MCP server with the deck tools.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"deckgen",
		Version,
		server.WithToolCapabilities(false),
	)

	splitTool := mcp.NewTool("split_outline",
		mcp.WithDescription("Split outline text into exactly the requested number of slides"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Outline text; each slide starts with a # heading or follows a --- line"),
		),
		mcp.WithNumber("count",
			mcp.Required(),
			mcp.Description("Number of slides the outline must contain"),
		),
	)
	s.AddTool(splitTool, mcp.NewTypedToolHandler(splitHandler))

	renderTool := mcp.NewTool("render_slide",
		mcp.WithDescription("Render one slide of an outline or decksh deck as SVG or sanitized HTML"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Outline or decksh source"),
		),
		mcp.WithNumber("slide",
			mcp.Required(),
			mcp.Description("1-based slide number"),
		),
		mcp.WithString("format",
			mcp.Description("svg (default) or html"),
			mcp.Enum("svg", "html"),
		),
	)
	s.AddTool(renderTool, mcp.NewTypedToolHandler(t.render))

	exportTool := mcp.NewTool("export_deck",
		mcp.WithDescription("Export a whole deck as PDF, a zip of PNG slides, or decksh source, and store it"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Outline or decksh source"),
		),
		mcp.WithString("format",
			mcp.Description("pdf (default), png or dsh"),
			mcp.Enum("pdf", "png", "dsh"),
		),
	)
	s.AddTool(exportTool, mcp.NewTypedToolHandler(t.export))

	return s
}

// Serve runs the server on stdin and stdout.
func Serve(t *Tools) error {
	return server.ServeStdio(NewServer(t))
}

func splitHandler(ctx context.Context, request mcp.CallToolRequest, args SplitRequest) (*mcp.CallToolResult, error) {
	if args.Count <= 0 {
		return mcp.NewToolResultError("count must be positive"), nil
	}
	slides, err := outline.Split(args.Text, args.Count)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(SplitResponse{Slides: slides})
}

func (t *Tools) render(ctx context.Context, request mcp.CallToolRequest, args RenderRequest) (*mcp.CallToolResult, error) {
	if args.Content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	format := pipeline.FormatSVG
	if args.Format == string(pipeline.FormatHTML) {
		format = pipeline.FormatHTML
	} else if args.Format != "" && args.Format != string(pipeline.FormatSVG) {
		return mcp.NewToolResultError("format must be svg or html"), nil
	}
	res, err := t.Pipeline.Process(ctx, []byte(args.Content), format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render deck: %v", err)), nil
	}
	if args.Slide < 1 || args.Slide > len(res.Slides) {
		return mcp.NewToolResultError(fmt.Sprintf("slide %d not found, deck has %d", args.Slide, len(res.Slides))), nil
	}
	return jsonResult(RenderResponse{
		Slide:      args.Slide,
		SlideCount: res.SlideCount,
		Markup:     string(res.Slides[args.Slide-1]),
	})
}

func (t *Tools) export(ctx context.Context, request mcp.CallToolRequest, args ExportRequest) (*mcp.CallToolResult, error) {
	if args.Content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	format := pipeline.FormatPDF
	switch args.Format {
	case "", "pdf":
	case "png", "dsh":
		format = pipeline.OutputFormat(args.Format)
	default:
		return mcp.NewToolResultError("format must be pdf, png or dsh"), nil
	}
	res, err := t.Pipeline.Process(ctx, []byte(args.Content), format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to export deck: %v", err)), nil
	}

	ext := string(format)
	if format == pipeline.FormatPNG {
		ext = "zip"
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	name := export.DocumentName(now(), ext)
	if err := t.Exports.Put(ctx, name, res.Document, res.MIME); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store export: %v", err)), nil
	}
	return jsonResult(ExportResponse{Name: name, MIME: res.MIME, SlideCount: res.SlideCount, Bytes: len(res.Document)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
