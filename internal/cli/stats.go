package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show answer history per command",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.Open(ctx); err != nil {
				return err
			}
			stats, err := app.answers.Stats(ctx)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No answers recorded yet.")
				return nil
			}
			t, err := app.shortcuts.Table(ctx)
			if err != nil {
				return err
			}
			sort.SliceStable(stats, func(i, j int) bool {
				return stats[i].Correct-stats[i].Wrong < stats[j].Correct-stats[j].Wrong
			})

			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("COMMAND", "RIGHT", "WRONG", "SCORE", "LAST")
			for _, s := range stats {
				score := "-"
				if sc, ok := t[s.Command]; ok {
					score = strconv.Itoa(sc.LearningState)
				}
				tbl.Row(s.Command, strconv.Itoa(s.Correct), strconv.Itoa(s.Wrong), score, s.LastAnswer.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
			return nil
		},
	}
}
