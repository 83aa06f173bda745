package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/pkg/outline"
)

var splitCount int

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Split outline text into slides and print them as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		var slides []outline.Slide
		if splitCount > 0 {
			if slides, err = outline.Split(string(source), splitCount); err != nil {
				return err
			}
		} else {
			slides = outline.Parse(string(source))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(slides)
	},
}

func init() {
	splitCmd.Flags().IntVar(&splitCount, "count", 0, "Require exactly this many slides (0 keeps all)")
}

// readSource reads the named file, or stdin without one.
func readSource(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
