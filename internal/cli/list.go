package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jask/shortcutquiz/internal/tree"
)

func newListCmd(app *App) *cobra.Command {
	var inactive, collapse bool
	var sortOrder string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the active (starred) or inactive shortcuts as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := tree.ParseSortOrder(sortOrder)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			t, err := app.shortcuts.Table(ctx)
			if err != nil {
				return err
			}
			view := tree.ViewActive
			if inactive {
				view = tree.ViewInactive
			}

			st := tree.PlainStyle()
			if f, ok := cmd.OutOrStdout().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				st = tree.DefaultStyle()
			}
			if collapse {
				st.Collapse = func(n tree.Node) bool { return n.Kind == tree.KindCommand }
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.Render(tree.Build(t, view, order), st))
			return nil
		},
	}
	cmd.Flags().BoolVar(&inactive, "inactive", false, "List the commands that are not starred")
	cmd.Flags().StringVar(&sortOrder, "sort", "name", "Sort order (name|score)")
	cmd.Flags().BoolVar(&collapse, "short", false, "Only print command lines")
	return cmd
}
