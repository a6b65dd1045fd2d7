package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Sources  SourcesConfig
	Quiz     QuizConfig
	Reload   ReloadConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// SourcesConfig locates the shortcut inputs. Empty paths fall back to the
// embedded assets.
type SourcesConfig struct {
	Default         string
	ExtensionsDir   string `mapstructure:"extensions_dir"`
	UserKeybindings string `mapstructure:"user_keybindings"`
	Preselection    string
	Titles          string
	KeyMappings     string `mapstructure:"key_mappings"`
}

// QuizConfig holds quiz session settings.
type QuizConfig struct {
	NumberOfQuestions int    `mapstructure:"number_of_questions"`
	Selection         string
	MaxWrongTries     int    `mapstructure:"max_wrong_tries"`
	KeyboardLayout    string `mapstructure:"keyboard_layout"`
	IntervalMinutes   int    `mapstructure:"interval_minutes"`
	ShowPlayground    bool   `mapstructure:"show_playground"`
}

// Interval is the minimum time between two prompted quizzes.
func (q QuizConfig) Interval() time.Duration {
	return time.Duration(q.IntervalMinutes) * time.Minute
}

type ReloadConfig struct {
	ExtensionDebounce time.Duration `mapstructure:"extension_debounce"`
}

type LogConfig struct {
	Level string
	File  string
}

// Validate rejects settings the quiz cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Quiz.Selection {
	case "lowest_score", "random", "mixed":
	default:
		errs = append(errs, fmt.Errorf("quiz.selection: unknown policy %q", c.Quiz.Selection))
	}
	switch c.Quiz.KeyboardLayout {
	case "en", "de":
	default:
		errs = append(errs, fmt.Errorf("quiz.keyboard_layout: unknown layout %q", c.Quiz.KeyboardLayout))
	}
	if c.Quiz.NumberOfQuestions < 0 {
		errs = append(errs, fmt.Errorf("quiz.number_of_questions: must not be negative"))
	}
	if c.Quiz.IntervalMinutes < 0 {
		errs = append(errs, fmt.Errorf("quiz.interval_minutes: must not be negative"))
	}
	return errors.Join(errs...)
}

// Path returns the config file location. SHORTCUTQUIZ_CONFIG overrides it.
func Path() string {
	if p := os.Getenv("SHORTCUTQUIZ_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "shortcutquiz", "config.toml")
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	userDir, err := os.UserConfigDir()
	if err != nil {
		userDir = filepath.Join(home, ".config")
	}

	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "shortcutquiz", "shortcutquiz.db"))
	v.SetDefault("sources.default", "")
	v.SetDefault("sources.extensions_dir", filepath.Join(home, ".vscode", "extensions"))
	v.SetDefault("sources.user_keybindings", filepath.Join(userDir, "Code", "User", "keybindings.json"))
	v.SetDefault("sources.preselection", "")
	v.SetDefault("sources.titles", "")
	v.SetDefault("sources.key_mappings", "")
	v.SetDefault("quiz.number_of_questions", 10)
	v.SetDefault("quiz.selection", "lowest_score")
	v.SetDefault("quiz.max_wrong_tries", 10)
	v.SetDefault("quiz.keyboard_layout", "en")
	v.SetDefault("quiz.interval_minutes", 60)
	v.SetDefault("quiz.show_playground", false)
	v.SetDefault("reload.extension_debounce", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("SHORTCUTQUIZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Load reads configuration from file and env. Env var overrides use prefix SHORTCUTQUIZ_.
func Load() (Config, error) {
	v := newViper()

	// read config file if present
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// Settings returns cfg keyed the way the config file spells it.
func (c Config) Settings() map[string]map[string]any {
	return map[string]map[string]any{
		"database": {"path": c.Database.Path},
		"sources": {
			"default":          c.Sources.Default,
			"extensions_dir":   c.Sources.ExtensionsDir,
			"user_keybindings": c.Sources.UserKeybindings,
			"preselection":     c.Sources.Preselection,
			"titles":           c.Sources.Titles,
			"key_mappings":     c.Sources.KeyMappings,
		},
		"quiz": {
			"number_of_questions": c.Quiz.NumberOfQuestions,
			"selection":           c.Quiz.Selection,
			"max_wrong_tries":     c.Quiz.MaxWrongTries,
			"keyboard_layout":     c.Quiz.KeyboardLayout,
			"interval_minutes":    c.Quiz.IntervalMinutes,
			"show_playground":     c.Quiz.ShowPlayground,
		},
		"reload": {"extension_debounce": c.Reload.ExtensionDebounce.String()},
		"log":    {"level": c.Log.Level, "file": c.Log.File},
	}
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	for section, values := range cfg.Settings() {
		for k, val := range values {
			v.Set(section+"."+k, val)
		}
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch calls onChange with the freshly decoded config whenever the config
// file changes. The file must exist. Stop only silences the callback; viper
// keeps its watcher for the life of the process.
func Watch(onChange func(Config, error)) (stop func(), err error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	stopped := make(chan struct{})
	v.OnConfigChange(func(fsnotify.Event) {
		select {
		case <-stopped:
			return
		default:
		}
		onChange(decode(v))
	})
	v.WatchConfig()

	var once sync.Once
	return func() { once.Do(func() { close(stopped) }) }, nil
}
