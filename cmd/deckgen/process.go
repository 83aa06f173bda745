package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/pkg/pipeline"
)

var (
	processFormat string
	processOut    string
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Render an outline or decksh file (or stdin)",
	Long: `Render an outline or decksh file. SVG and HTML print a JSON result with
one entry per slide; PDF, PNG (zip) and decksh are written to --out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := pipeline.ParseFormat(processFormat)
		if err != nil {
			return err
		}
		source, err := readSource(cmd, args)
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
		a, _, err := loadApp()
		if err != nil {
			return err
		}
		result, err := a.Pipeline.Process(cmd.Context(), source, format)
		if err != nil {
			return err
		}

		if format == pipeline.FormatSVG || format == pipeline.FormatHTML {
			slides := make([]string, len(result.Slides))
			for i, s := range result.Slides {
				slides[i] = string(s)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"success":    true,
				"title":      result.Title,
				"slideCount": result.SlideCount,
				"slides":     slides,
			})
		}

		if processOut == "" || processOut == "-" {
			_, err := cmd.OutOrStdout().Write(result.Document)
			return err
		}
		if err := os.WriteFile(processOut, result.Document, 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d slides to %s\n", result.SlideCount, processOut)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processFormat, "format", "svg", "Output format: svg, png, pdf, dsh or html")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "Output file for pdf, png and dsh (stdout when empty)")
}
