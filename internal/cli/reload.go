package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jask/shortcutquiz/internal/service"
)

func newReloadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read every binding source, keeping stars and scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.Open(ctx); err != nil {
				return err
			}
			res, err := app.reload.Reload(ctx)
			if err != nil {
				return fmt.Errorf("reload failed, keeping the previous shortcuts: %w", err)
			}
			printReload(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Rebuild the shortcuts from scratch, dropping stars, scores and toggles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.Open(ctx); err != nil {
				return err
			}
			if history {
				m := &service.MaintenanceService{DB: app.db}
				if err := m.Reset(ctx); err != nil {
					return err
				}
			}
			res, err := app.reload.ResetAndReload(ctx)
			if err != nil {
				return err
			}
			printReload(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Also delete the answer history and cached rules")
	return cmd
}

func printReload(w io.Writer, res service.ReloadResult) {
	for _, s := range res.Sources {
		fmt.Fprintf(w, "%-12s added %d, removed %d, ignored %d, skipped %d\n", s.Name, s.Added, s.Removed, s.Ignored, s.Skipped)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	fmt.Fprintf(w, "%d commands\n", res.Commands)
}
