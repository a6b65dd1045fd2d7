package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStarCmd(app *App, star bool) *cobra.Command {
	use, short := "star <command>", "Add a command to the quiz pool"
	if !star {
		use, short = "unstar <command>", "Remove a command from the quiz pool"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			if err := app.shortcuts.Star(ctx, args[0], star); err != nil {
				return err
			}
			if star {
				fmt.Fprintf(cmd.OutOrStdout(), "Starred %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Unstarred %s\n", args[0])
			}
			return nil
		},
	}
}

func newStarKeyCmd(app *App, enable bool) *cobra.Command {
	use, short := "star-key <command> <key>", "Ask for one keybinding of a command in quizzes"
	if !enable {
		use, short = "unstar-key <command> <key>", "Stop asking for one keybinding of a command"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			if err := app.shortcuts.SetKeybindingEnabled(ctx, args[0], args[1], enable); err != nil {
				return err
			}
			if enable {
				fmt.Fprintf(cmd.OutOrStdout(), "Enabled %s for %s\n", args[1], args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s for %s\n", args[1], args[0])
			}
			return nil
		},
	}
}
