package tree

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style holds the lipgloss styles Render applies per node kind.
type Style struct {
	Title    lipgloss.Style
	Detail   lipgloss.Style
	On       lipgloss.Style
	Off      lipgloss.Style
	Locked   lipgloss.Style
	Meta     lipgloss.Style
	Indent   string
	Collapse func(Node) bool
}

// PlainStyle renders without colour, fully expanded.
func PlainStyle() Style {
	return Style{
		Title:  lipgloss.NewStyle(),
		Detail: lipgloss.NewStyle(),
		On:     lipgloss.NewStyle(),
		Off:    lipgloss.NewStyle(),
		Locked: lipgloss.NewStyle(),
		Meta:   lipgloss.NewStyle(),
		Indent: "  ",
	}
}

// Catppuccin Mocha
const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorLavender lipgloss.Color = "#b4befe"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSubtext0 lipgloss.Color = "#a6adc8"
)

func DefaultStyle() Style {
	return Style{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorText),
		Detail: lipgloss.NewStyle().Foreground(colorOverlay1),
		On:     lipgloss.NewStyle().Foreground(colorGreen),
		Off:    lipgloss.NewStyle().Foreground(colorRed),
		Locked: lipgloss.NewStyle().Foreground(colorLavender),
		Meta:   lipgloss.NewStyle().Foreground(colorSubtext0),
		Indent: "  ",
	}
}

// Render draws nodes as an indented text tree, one row per line.
func Render(nodes []Node, st Style) string {
	var b strings.Builder
	for _, r := range Flatten(nodes, st.Collapse) {
		b.WriteString(RenderRow(r, st))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderRow draws a single flattened row without a trailing newline.
func RenderRow(r Row, st Style) string {
	indent := strings.Repeat(st.Indent, r.Depth)
	n := r.Node
	switch n.Kind {
	case KindCommand, KindRelatedCommand:
		line := indent + st.Title.Render(n.Label)
		if n.Detail != "" {
			line += " " + st.Detail.Render(n.Detail)
		}
		return line
	case KindKeybinding:
		return indent + checkbox(n, st) + " " + n.Label
	case KindCondition:
		return indent + st.Detail.Render("when "+n.Label)
	default:
		return indent + st.Meta.Render(n.Label)
	}
}

func checkbox(n Node, st Style) string {
	switch {
	case !n.Toggleable:
		return st.Locked.Render("[=]")
	case n.Enabled:
		return st.On.Render("[x]")
	default:
		return st.Off.Render("[ ]")
	}
}
