// Package app wires the configured components together for the server, the
// CLI commands and the MCP tools.
package app

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/handler"
	"github.com/joeblew999/deckgen/internal/capture"
	"github.com/joeblew999/deckgen/internal/config"
	"github.com/joeblew999/deckgen/internal/mcpserver"
	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/generate"
	"github.com/joeblew999/deckgen/pkg/genqueue"
	"github.com/joeblew999/deckgen/pkg/navigator"
	"github.com/joeblew999/deckgen/pkg/pipeline"
	"github.com/joeblew999/deckgen/pkg/presentation"
	"github.com/joeblew999/deckgen/pkg/render"
	"github.com/joeblew999/deckgen/pkg/store"
	"github.com/joeblew999/deckgen/runtime"
)

// App holds the long-lived components. Queues and the exporter are shared
// by every editor session so rate limits apply per process.
type App struct {
	Config   config.Config
	Log      logrus.FieldLogger
	Registry *prometheus.Registry

	Store    *store.Store
	Text     generate.TextGenerator
	Images   generate.ImageGenerator
	Writer   *generate.Writer
	Narrator *generate.Narrator
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter

	ImageQueue     *genqueue.Queue[*render.Asset]
	NarrationQueue *genqueue.Queue[string]
}

// New builds the components described by cfg and installs the storage
// runtime.
func New(cfg config.Config, log logrus.FieldLogger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	data, err := runtime.NewLocalFileStorage(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data storage: %w", err)
	}
	exports, err := runtime.NewLocalFileStorage(filepath.Join(cfg.Storage.DataDir, "exports"))
	if err != nil {
		return nil, fmt.Errorf("export storage: %w", err)
	}
	runtime.SetRuntime(&runtime.Runtime{Data: data, Exports: exports, KV: runtime.NewMemoryKV()})

	text, images, err := providers(cfg.Generation, log)
	if err != nil {
		return nil, err
	}

	fonts, err := capture.LoadFonts(cfg.Export.FontPath)
	if err != nil {
		return nil, err
	}
	raster := capture.NewRaster(fonts, capture.NewHTTPLoader(cfg.Export.AllowPrivateImages), log.WithField("component", "capture"))
	pdf := capture.NewPDF("deckgen")
	pdf.Quality = cfg.Export.JPEGQuality

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := genqueue.NewMetrics(reg)
	qopts := []genqueue.Option{
		genqueue.WithLimit(cfg.Queue.Limit, cfg.Queue.Window),
		genqueue.WithTaskTimeout(cfg.Queue.TaskTimeout),
		genqueue.WithLogger(log),
		genqueue.WithMetrics(metrics),
	}

	writer := generate.NewWriter(text, log.WithField("component", "writer"))
	writer.Model, writer.Temperature = cfg.Generation.OutlineModel, cfg.Generation.Temperature
	narrator := generate.NewNarrator(text)
	narrator.Model = cfg.Generation.NarrationModel

	return &App{
		Config:   cfg,
		Log:      log,
		Registry: reg,
		Store:    store.New(data, store.WithLogger(log.WithField("component", "store"))),
		Text:     text,
		Images:   images,
		Writer:   writer,
		Narrator: narrator,
		Pipeline: pipeline.New(raster,
			pipeline.WithPageSize(cfg.Export.Width, cfg.Export.Height),
			pipeline.WithScale(cfg.Export.Scale),
			pipeline.WithPDF(pdf),
			pipeline.WithLogger(log.WithField("component", "pipeline")),
		),
		Exporter: export.New(raster, pdf,
			export.WithPageSize(cfg.Export.Width, cfg.Export.Height),
			export.WithScale(cfg.Export.Scale),
			export.WithSettleDelay(cfg.Export.SettleDelay),
			export.WithLogger(log.WithField("component", "export")),
		),
		ImageQueue:     genqueue.New("images", generate.ImageWorker(images), qopts...),
		NarrationQueue: genqueue.New("narration", generate.NarrationWorker(narrator), qopts...),
	}, nil
}

// providers picks the text and image generators. Real providers need their
// API key in the environment.
func providers(g config.Generation, log logrus.FieldLogger) (generate.TextGenerator, generate.ImageGenerator, error) {
	var oa *generate.OpenAI
	openAI := func() (*generate.OpenAI, error) {
		if oa != nil {
			return oa, nil
		}
		key := g.OpenAIKey()
		if key == "" {
			return nil, fmt.Errorf("%s is not set; export it or use provider mock", g.OpenAIKeyEnv)
		}
		var opts []option.RequestOption
		if g.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(g.OpenAIBaseURL))
		}
		oa = generate.NewOpenAI(key, log, opts...)
		return oa, nil
	}

	var text generate.TextGenerator
	switch g.Provider {
	case "mock":
		text = generate.Mock{}
	case "anthropic":
		key := g.AnthropicKey()
		if key == "" {
			return nil, nil, fmt.Errorf("%s is not set; export it or use provider mock", g.AnthropicKeyEnv)
		}
		text = generate.NewAnthropic(key, g.AnthropicModel, g.AnthropicMaxTokens)
	default:
		c, err := openAI()
		if err != nil {
			return nil, nil, err
		}
		text = c
	}

	var images generate.ImageGenerator
	switch g.ImageProvider {
	case "mock":
		images = generate.MockImages{}
	default:
		c, err := openAI()
		if err != nil {
			return nil, nil, err
		}
		images = c
	}
	return text, images, nil
}

// NewSession opens an editor session on the shared queues and exporter.
func (a *App) NewSession() *presentation.Session {
	return presentation.New(presentation.Deps{
		Navigator: navigator.New(navigator.HeadlessFactory,
			navigator.WithRestoreDelay(a.Config.Navigator.RestoreDelay),
			navigator.WithRestoreAttempts(a.Config.Navigator.RestoreAttempts),
			navigator.WithLogger(a.Log.WithField("component", "navigator")),
		),
		Images:    a.ImageQueue,
		Narration: a.NarrationQueue,
		Exporter:  a.Exporter,
		Log:       a.Log.WithField("component", "session"),
	})
}

// Server builds the HTTP API.
func (a *App) Server() *handler.Server {
	return handler.New(handler.Deps{
		Store:       a.Store,
		Text:        a.Text,
		TextModel:   a.Config.Generation.OutlineModel,
		Temperature: a.Config.Generation.Temperature,
		Images:      a.Images,
		Writer:      a.Writer,
		Pipeline:    a.Pipeline,
		Sessions:    a.NewSession,
		Exports:     runtime.Exports(),
		KV:          runtime.KV(),
		Metrics:     a.MetricsHandler(),
		CORSOrigin:  a.Config.Server.CORSOrigin,
		Log:         a.Log.WithField("component", "http"),
	})
}

func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Tools builds the MCP tool set.
func (a *App) Tools() *mcpserver.Tools {
	return &mcpserver.Tools{Pipeline: a.Pipeline, Exports: runtime.Exports()}
}
