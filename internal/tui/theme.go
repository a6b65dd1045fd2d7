package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/shortcutquiz/internal/tree"
)

// Catppuccin Mocha palette.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext1 lipgloss.Color = "#bac2de"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface2 lipgloss.Color = "#585b70"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	headerBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorMantle).
			Padding(0, 2)

	headerAppStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Background(colorSurface0).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorOverlay1).
				Background(colorMantle).
				Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorMantle).
			Padding(0, 2)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSubtext1).
			Background(colorSurface0).
			Padding(0, 2)

	statusErrStyle = statusBarStyle.Foreground(colorError)

	titleStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	commandStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(colorSurface0)

	correctStyle  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	wrongStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(colorInfo)
	heldStyle     = lipgloss.NewStyle().Foreground(colorPeach)
	menuStyle     = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay0)

	keycapStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface2).
			Padding(0, 1)

	doneKeycapStyle = keycapStyle.BorderForeground(colorSuccess).Foreground(colorSuccess)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
)

// treeStyle is the tree renderer's palette with the app colours.
func treeStyle() tree.Style {
	return tree.Style{
		Title:  lipgloss.NewStyle().Foreground(colorText).Bold(true),
		Detail: lipgloss.NewStyle().Foreground(colorOverlay1),
		On:     lipgloss.NewStyle().Foreground(colorSuccess),
		Off:    lipgloss.NewStyle().Foreground(colorError),
		Locked: lipgloss.NewStyle().Foreground(colorFocus),
		Meta:   lipgloss.NewStyle().Foreground(colorSubtext0),
		Indent: "  ",
	}
}

func newHelp() help.Model {
	h := help.New()
	bg := colorMantle
	h.Styles.ShortKey = helpKeyStyle.Background(bg)
	h.Styles.ShortDesc = helpDescStyle.Background(bg)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorOverlay0).Background(bg)
	h.ShortSeparator = "  "
	return h
}
