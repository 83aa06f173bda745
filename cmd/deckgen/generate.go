package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/pkg/generate"
	"github.com/joeblew999/deckgen/pkg/store"
)

var (
	brief      generate.Brief
	saveResult bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a slide outline from a brief",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := brief.Validate(); err != nil {
			return err
		}
		a, _, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, content, err := a.Writer.Outline(ctx, brief)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !saveResult {
			fmt.Fprintln(out, content)
			return nil
		}
		p, err := a.Store.Create(ctx, store.Draft{Title: brief.Title, Company: brief.Company, Creator: brief.Creator, Content: content})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, p.ID)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&brief.Title, "title", "", "Presentation title")
	f.StringVar(&brief.Company, "company", "", "Company name")
	f.StringVar(&brief.Creator, "creator", "", "Presenter name")
	f.StringVar(&brief.Overview, "overview", "", "What the presentation is about")
	f.StringVar(&brief.Purpose, "purpose", "", "What the presentation should achieve")
	f.IntVar(&brief.SlideCount, "slides", 5, "Number of slides")
	f.BoolVar(&saveResult, "save", false, "Save the outline as a presentation and print its ID")
}
