// Package cli is the shortcutquiz command tree.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/shortcutquiz/internal/assets"
	"github.com/jask/shortcutquiz/internal/config"
	"github.com/jask/shortcutquiz/internal/database"
	"github.com/jask/shortcutquiz/internal/database/repository"
	"github.com/jask/shortcutquiz/internal/logging"
	"github.com/jask/shortcutquiz/internal/quiz"
	"github.com/jask/shortcutquiz/internal/service"
	"github.com/jask/shortcutquiz/internal/shortcuts"
	"github.com/jask/shortcutquiz/internal/sources"
)

// App carries the global flags and, once opened, the wired services.
type App struct {
	ConfigPath string
	LogLevel   string
	Debug      bool

	cfg       config.Config
	log       *zap.Logger
	db        *sql.DB
	kv        *repository.KVRepo
	answers   *repository.AnswerRepo
	store     *shortcuts.Store
	shortcuts *service.ShortcutService
	reload    *service.ReloadService
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "shortcutquiz",
		Short:        "Learn editor keyboard shortcuts by being quizzed on them",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Browse the active and inactive shortcuts
  shortcutquiz

  # Take a quiz, but only if the configured interval has passed
  shortcutquiz quiz --if-due

  # Add a command to the quiz pool
  shortcutquiz star editor.action.commentLine
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.ConfigPath != "" {
			return os.Setenv("SHORTCUTQUIZ_CONFIG", app.ConfigPath)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.Close()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default ~/.config/shortcutquiz/config.toml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Verbose logging and debug fields in bridge messages")

	cmd.AddCommand(newQuizCmd(app))
	cmd.AddCommand(newBrowseCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newReloadCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newStarCmd(app, true))
	cmd.AddCommand(newStarCmd(app, false))
	cmd.AddCommand(newStarKeyCmd(app, true))
	cmd.AddCommand(newStarKeyCmd(app, false))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newBridgeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// Open loads config and wires storage and services. It is idempotent.
func (a *App) Open(ctx context.Context) error {
	if a.shortcuts != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", config.Path(), err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.LogLevel != "" {
		level = a.LogLevel
	}
	if a.Debug {
		level = "debug"
	}
	if a.log, err = logging.New(level, cfg.Log.File); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if a.db, err = database.Open(cfg.Database.Path); err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrationsWithDB(a.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	builtinRules, err := sources.LoadRules("", assets.Preselection)
	if err != nil {
		return fmt.Errorf("built-in rules: %w", err)
	}
	rulesJSON, err := json.Marshal(builtinRules)
	if err != nil {
		return err
	}
	if err := database.SeedDefaults(ctx, a.db, map[string][]byte{
		shortcuts.KeyShortcuts:         []byte("{}"),
		shortcuts.KeyPreselectionRules: rulesJSON,
	}); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	a.kv = repository.NewKVRepo(a.db)
	a.answers = repository.NewAnswerRepo(a.db)
	a.store = shortcuts.NewStore(a.kv)

	km, err := quiz.LoadKeyMappings(cfg.Sources.KeyMappings, assets.KeyMappings)
	if err != nil {
		return err
	}
	titles, err := sources.LoadTitles(cfg.Sources.Titles)
	if err != nil {
		// titles only improve display names
		a.log.Warn("titles unavailable", zap.Error(err))
	}
	policy, err := quiz.ParsePolicy(cfg.Quiz.Selection)
	if err != nil {
		return err
	}

	a.shortcuts = service.NewShortcutService(a.store, a.answers, service.QuizSettings{
		Questions:     cfg.Quiz.NumberOfQuestions,
		Policy:        policy,
		MaxWrongTries: cfg.Quiz.MaxWrongTries,
		Layout:        cfg.Quiz.KeyboardLayout,
		KeyMappings:   km,
		Debug:         a.Debug,
	}, a.log)

	rulesPath := cfg.Sources.Preselection
	a.reload = &service.ReloadService{
		Store: a.store,
		Sources: []sources.Source{
			sources.DefaultSource{Path: cfg.Sources.Default, Data: assets.DefaultShortcuts},
			sources.ExtensionSource{Dir: cfg.Sources.ExtensionsDir},
			sources.UserSource{Path: cfg.Sources.UserKeybindings},
		},
		Rules: func(context.Context) ([]shortcuts.PreselectionRule, error) {
			return sources.LoadRules(rulesPath, assets.Preselection)
		},
		Titles: titles,
		Log:    a.log,
	}
	return nil
}

// Close releases what Open acquired.
func (a *App) Close() error {
	var errs []error
	if a.log != nil {
		// stderr cannot be synced on every platform
		_ = a.log.Sync()
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}

// ensureTable builds the table on first use.
func (a *App) ensureTable(ctx context.Context) error {
	t, err := a.store.Table(ctx)
	if err != nil {
		return err
	}
	if len(t) > 0 {
		return nil
	}
	res, err := a.reload.Reload(ctx)
	if err != nil {
		return fmt.Errorf("initial reload: %w", err)
	}
	a.log.Info("built shortcut table", zap.Int("commands", res.Commands))
	return nil
}

// openWithTable opens the app and makes sure there is a table to work on.
func (a *App) openWithTable(ctx context.Context) error {
	if err := a.Open(ctx); err != nil {
		return err
	}
	return a.ensureTable(ctx)
}
