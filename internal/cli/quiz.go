package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/shortcutquiz/internal/service"
	"github.com/jask/shortcutquiz/internal/tree"
	"github.com/jask/shortcutquiz/internal/tui"
)

func newQuizCmd(app *App) *cobra.Command {
	var ifDue bool
	var maxWrong int

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take a quiz on the starred shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			sched := &service.SchedulerService{Store: app.store, Interval: app.cfg.Quiz.Interval()}
			now := time.Now()
			if ifDue {
				due, err := sched.Due(ctx, now)
				if err != nil {
					return err
				}
				if !due {
					fmt.Fprintln(cmd.OutOrStdout(), "No quiz due yet.")
					return nil
				}
			}
			if err := sched.MarkShown(ctx, now); err != nil {
				return err
			}
			return tui.Run(ctx, app.services(), tui.Options{StartQuiz: true, MaxWrongTries: maxWrong})
		},
	}
	cmd.Flags().BoolVar(&ifDue, "if-due", false, "Only start when the quiz interval has passed since the last one")
	cmd.Flags().IntVar(&maxWrong, "max-wrong-tries", 0, "Reveal after this many wrong keys (default from config)")
	return cmd
}

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse, star and toggle shortcuts in the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, app)
		},
	}
}

func runBrowse(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if err := app.openWithTable(ctx); err != nil {
		return err
	}
	return tui.Run(ctx, app.services(), tui.Options{Sort: tree.SortByName})
}

func (a *App) services() tui.Services {
	return tui.Services{Shortcuts: a.shortcuts, Reload: a.reload}
}
