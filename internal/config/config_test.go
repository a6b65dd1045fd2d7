package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SHORTCUTQUIZ_CONFIG", filepath.Join(dir, "missing.toml"))

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".local", "share", "shortcutquiz", "shortcutquiz.db"), c.Database.Path)
	require.Equal(t, 10, c.Quiz.NumberOfQuestions)
	require.Equal(t, "lowest_score", c.Quiz.Selection)
	require.Equal(t, "en", c.Quiz.KeyboardLayout)
	require.Equal(t, time.Hour, c.Quiz.Interval())
	require.Equal(t, 10*time.Second, c.Reload.ExtensionDebounce)
	require.Equal(t, "info", c.Log.Level)
	require.NoError(t, c.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[quiz]
number_of_questions = 4
selection = "mixed"
keyboard_layout = "de"

[reload]
extension_debounce = "2s"
`), 0o644))
	t.Setenv("SHORTCUTQUIZ_CONFIG", path)
	t.Setenv("SHORTCUTQUIZ_QUIZ_MAX_WRONG_TRIES", "3")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, c.Quiz.NumberOfQuestions)
	require.Equal(t, "mixed", c.Quiz.Selection)
	require.Equal(t, "de", c.Quiz.KeyboardLayout)
	require.Equal(t, 3, c.Quiz.MaxWrongTries)
	require.Equal(t, 2*time.Second, c.Reload.ExtensionDebounce)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SHORTCUTQUIZ_CONFIG", filepath.Join(dir, "nested", "config.toml"))

	c, err := Load()
	require.NoError(t, err)
	c.Quiz.Selection = "random"
	c.Quiz.IntervalMinutes = 5
	c.Sources.Titles = "/tmp/titles.json"
	require.NoError(t, Save(c))

	back, err := Load()
	require.NoError(t, err)
	require.Equal(t, c, back)
}

func TestValidate(t *testing.T) {
	c := Config{Quiz: QuizConfig{Selection: "best", KeyboardLayout: "fr", NumberOfQuestions: -1}}
	err := c.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "quiz.selection")
	require.ErrorContains(t, err, "quiz.keyboard_layout")
	require.ErrorContains(t, err, "quiz.number_of_questions")
}
