package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportImages bool
)

var exportCmd = &cobra.Command{
	Use:   "export <presentation-id>",
	Short: "Export a saved presentation as PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		p, err := a.Store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		s := a.NewSession()
		defer s.Close()
		if err := s.Open(ctx, p.Title, p.Content); err != nil {
			return err
		}
		if exportImages {
			n, err := s.GenerateImages(ctx, func(done, total int) {
				log.WithField("done", done).WithField("total", total).Info("generating images")
			})
			if err != nil {
				return err
			}
			log.WithField("images", n).Info("images ready")
		}

		res, err := s.Export(ctx)
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = res.Name
		} else if st, err := os.Stat(out); err == nil && st.IsDir() {
			out = filepath.Join(out, res.Name)
		}
		if err := os.WriteFile(out, res.Data, 0644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file or directory")
	exportCmd.Flags().BoolVar(&exportImages, "images", false, "Generate slide images before exporting")
}
