package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jask/shortcutquiz/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", config.Path())
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg.Settings())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(path + " exists; pass --force to overwrite")
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
