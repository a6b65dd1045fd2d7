package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/shortcutquiz/internal/config"
	"github.com/jask/shortcutquiz/internal/watch"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the shortcuts whenever the keybindings file or the extensions change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			return runWatch(ctx, app)
		},
	}
}

func runWatch(ctx context.Context, app *App) error {
	log := app.log.Named("watch")
	reqs := watch.NewRequests()
	// extension installs arrive as bursts of directory events
	deb := watch.NewDebouncer(app.cfg.Reload.ExtensionDebounce, reqs.Notify)
	defer deb.Stop()

	w := &watch.Watcher{
		UserFile:      app.cfg.Sources.UserKeybindings,
		ExtensionsDir: app.cfg.Sources.ExtensionsDir,
		Log:           log,
	}

	stopConfig, err := config.Watch(func(_ config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		log.Info("config changed; source paths apply after restart")
		reqs.Notify()
	})
	if err != nil {
		log.Debug("config file not watched", zap.Error(err))
	} else {
		defer stopConfig()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, func(c watch.Change) {
			log.Debug("source changed", zap.Stringer("kind", c.Kind), zap.String("path", c.Path))
			if c.Kind == watch.KindExtensions {
				deb.Trigger()
				return
			}
			reqs.Notify()
		})
	})
	g.Go(func() error {
		return reqs.Serve(gctx, func(ctx context.Context) error {
			res, err := app.reload.Reload(ctx)
			if err != nil {
				return err
			}
			log.Info("reloaded", zap.Int("commands", res.Commands), zap.Int("warnings", len(res.Warnings)))
			return nil
		}, func(err error) {
			log.Error("reload failed; keeping the previous shortcuts", zap.Error(err))
		})
	})

	// pick up whatever changed while nobody was watching
	reqs.Notify()
	log.Info("watching", zap.String("user_keybindings", w.UserFile), zap.String("extensions", w.ExtensionsDir))
	return g.Wait()
}
