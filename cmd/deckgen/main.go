// Command deckgen writes, renders and exports slide decks from outlines.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/internal/app"
	"github.com/joeblew999/deckgen/internal/config"
	"github.com/joeblew999/deckgen/internal/logging"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	provider   string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:           "deckgen",
	Short:         "AI-assisted slide deck generator",
	Long:          `Generate slide outlines with AI, illustrate and narrate them, and export decks as PDF, PNG, SVG or decksh.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "deckgen.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Text provider: openai, anthropic or mock (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")

	rootCmd.AddCommand(serveCmd, generateCmd, splitCmd, processCmd, exportCmd, mcpCmd, configCmd, versionCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if provider != "" {
		cfg.Generation.Provider = provider
		if provider == "mock" {
			cfg.Generation.ImageProvider = "mock"
		}
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	return cfg, cfg.Validate()
}

// loadApp builds every component from the effective config.
func loadApp() (*app.App, *logrus.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
