package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/shortcutquiz/internal/service"
)

func newExportCmd(app *App) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the stored shortcuts, rules and timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.Open(ctx); err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			exp := &service.ExportService{KV: app.kv}
			return exp.Export(ctx, w, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
