package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/shortcutquiz/internal/tree"
)

func nodeID(n tree.Node) string {
	return strings.Join([]string{n.Command, n.Kind.String(), n.Detail, n.Key}, "\x00")
}

// collapsed reports whether n hides its children. Everything starts folded.
func (m model) collapsed(n tree.Node) bool {
	return len(n.Children) > 0 && !m.expanded[nodeID(n)]
}

func (m model) rows() []tree.Row {
	if m.table == nil {
		return nil
	}
	return tree.Flatten(tree.Build(m.table, m.view, m.sort), m.collapsed)
}

func (m model) currentRow() (tree.Row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return tree.Row{}, false
	}
	return rows[m.cursor], true
}

func (m model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.keys.Lookup(msg.String(), scopeTree)
	if b == nil {
		return m, nil
	}
	rows := m.rows()
	switch b.Action {
	case actionQuit:
		return m, tea.Quit
	case actionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case actionDown:
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case actionExpand:
		if r, ok := m.currentRow(); ok && len(r.Node.Children) > 0 {
			m.expanded[nodeID(r.Node)] = true
		}
	case actionCollapse:
		r, ok := m.currentRow()
		if !ok {
			break
		}
		if len(r.Node.Children) > 0 && m.expanded[nodeID(r.Node)] {
			delete(m.expanded, nodeID(r.Node))
			break
		}
		for i := m.cursor - 1; i >= 0; i-- {
			if rows[i].Depth < r.Depth {
				m.cursor = i
				delete(m.expanded, nodeID(rows[i].Node))
				break
			}
		}
	case actionSwitchView:
		if m.view == tree.ViewActive {
			m.view = tree.ViewInactive
		} else {
			m.view = tree.ViewActive
		}
		m.cursor, m.offset = 0, 0
	case actionSort:
		if m.sort == tree.SortByName {
			m.sort = tree.SortByScore
			m.setStatus("Sorted by score.")
		} else {
			m.sort = tree.SortByName
			m.setStatus("Sorted by name.")
		}
	case actionStar:
		if r, ok := m.currentRow(); ok {
			return m, m.starCmd(r.Node.Command, m.view == tree.ViewInactive)
		}
	case actionToggle:
		r, ok := m.currentRow()
		if !ok || (r.Node.Kind != tree.KindKeybinding && r.Node.Kind != tree.KindCondition) {
			break
		}
		return m.toggleTreeKey(r.Node)
	case actionReload:
		m.setStatus("Reloading shortcuts...")
		return m, m.reloadCmd()
	case actionStartQuiz:
		m.setStatus("Starting quiz...")
		return m, m.startQuizCmd()
	}
	m.clampCursor()
	m.ensureCursorVisible()
	return m, nil
}

func (m model) toggleTreeKey(n tree.Node) (tea.Model, tea.Cmd) {
	sc, ok := m.table[n.Command]
	if !ok {
		return m, nil
	}
	kb, ok := sc.Keybindings[n.Key]
	if !ok {
		m.setError(fmt.Sprintf("%s belongs to a related shortcut; toggle it on its own command.", n.Key))
		return m, nil
	}
	if !kb.DisablingPossible {
		m.setError(fmt.Sprintf("%s is the only keybinding of %s.", n.Key, n.Command))
		return m, nil
	}
	return m, m.toggleKeyCmd(n.Command, n.Key, !kb.Enabled)
}

func (m *model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) ensureCursorVisible() {
	h := m.bodyHeight() - 1
	if h < 1 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m model) treeView() string {
	if m.table == nil {
		return mutedStyle.Render("Loading...")
	}
	rows := m.rows()
	order := "name"
	if m.sort == tree.SortByScore {
		order = "score"
	}
	summary := mutedStyle.Render(fmt.Sprintf("%d commands, sorted by %s", len(tree.Build(m.table, m.view, m.sort)), order))
	if len(rows) == 0 {
		empty := "Every shortcut is starred."
		if m.view == tree.ViewActive {
			empty = "No starred shortcuts yet. Press tab and star some from the inactive list."
		}
		return summary + "\n" + mutedStyle.Render(empty)
	}

	st := treeStyle()
	lines := make([]string, len(rows))
	for i, r := range rows {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		fold := "  "
		if len(r.Node.Children) > 0 {
			fold = "▸ "
			if !m.collapsed(r.Node) {
				fold = "▾ "
			}
		}
		indent := strings.Repeat(st.Indent, r.Depth)
		r.Depth = 0
		line := marker + indent + fold + tree.RenderRow(r, st)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		lines[i] = line
	}
	content := strings.Join(lines, "\n")

	h := m.bodyHeight() - 1
	if h < 1 || m.width == 0 {
		return summary + "\n" + content
	}
	vp := viewport.New(m.width, h)
	vp.SetContent(content)
	vp.SetYOffset(m.offset)
	return summary + "\n" + vp.View()
}
