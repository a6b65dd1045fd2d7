package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

func sampleTable() shortcuts.Table {
	return shortcuts.Table{
		"editor.action.commentLine": {
			Title:         "Toggle Line Comment",
			Enabled:       true,
			LearningState: 2,
			Origins:       []string{"default"},
			Keybindings: shortcuts.Keybindings{
				"ctrl+/":        {Enabled: true, DisablingPossible: true, Conditions: []string{"editorTextFocus"}},
				"ctrl+k ctrl+c": {Enabled: false, DisablingPossible: true, Conditions: []string{"editorTextFocus"}},
			},
		},
		"editor.action.copyLinesDownAction": {
			Title:         "Copy Line Down",
			Enabled:       true,
			LearningState: -1,
			Origins:       []string{"default"},
			Keybindings:   shortcuts.Keybindings{"alt+shift+down": {Enabled: true}},
			RelatedShortcuts: map[string]*shortcuts.RelatedShortcut{
				"editor.action.copyLinesUpAction": {
					Title:       "Copy Line Up",
					Keybindings: shortcuts.Keybindings{"alt+shift+up": {Enabled: true}},
					Origins:     []string{"default"},
				},
			},
		},
		"workbench.action.files.save": {
			Title:       "Save",
			Origins:     []string{"default", "user"},
			Keybindings: shortcuts.Keybindings{"ctrl+s": {Enabled: true}},
		},
	}
}

func commands(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Command)
	}
	return out
}

func TestBuildViews(t *testing.T) {
	t.Parallel()

	table := sampleTable()

	active := Build(table, ViewActive, SortByName)
	require.Equal(t, []string{"editor.action.copyLinesDownAction", "editor.action.commentLine"}, commands(active))

	inactive := Build(table, ViewInactive, SortByName)
	require.Equal(t, []string{"workbench.action.files.save"}, commands(inactive))
	require.Equal(t, "Origins: default, user", inactive[0].Children[len(inactive[0].Children)-1].Label)

	byScore := Build(table, ViewActive, SortByScore)
	require.Equal(t, []string{"editor.action.copyLinesDownAction", "editor.action.commentLine"}, commands(byScore))
	table["editor.action.copyLinesDownAction"].LearningState = 9
	byScore = Build(table, ViewActive, SortByScore)
	require.Equal(t, []string{"editor.action.commentLine", "editor.action.copyLinesDownAction"}, commands(byScore))
}

func TestCommandNodeChildren(t *testing.T) {
	t.Parallel()

	nodes := Build(sampleTable(), ViewActive, SortByName)
	comment := nodes[1]
	require.Equal(t, KindCommand, comment.Kind)
	require.Equal(t, "Toggle Line Comment", comment.Label)
	require.Equal(t, "editor.action.commentLine", comment.Detail)

	var kinds []Kind
	for _, c := range comment.Children {
		kinds = append(kinds, c.Kind)
	}
	require.Equal(t, []Kind{KindKeybinding, KindKeybinding, KindScore, KindOrigins}, kinds)

	kb := comment.Children[0]
	require.Equal(t, "ctrl+/", kb.Key)
	require.True(t, kb.Enabled)
	require.True(t, kb.Toggleable)
	require.Len(t, kb.Children, 1)
	require.Equal(t, KindCondition, kb.Children[0].Kind)
	require.Equal(t, "editorTextFocus", kb.Children[0].Label)
	require.Equal(t, "Score: 2", comment.Children[2].Label)

	copyDown := nodes[0]
	group := copyDown.Children[1]
	require.Equal(t, KindRelatedGroup, group.Kind)
	require.Len(t, group.Children, 1)
	related := group.Children[0]
	require.Equal(t, KindRelatedCommand, related.Kind)
	require.Equal(t, "editor.action.copyLinesDownAction", related.Command, "related nodes belong to their group head")
	require.Equal(t, "editor.action.copyLinesUpAction", related.Detail)
}

func TestRenderPlain(t *testing.T) {
	t.Parallel()

	nodes := Build(sampleTable(), ViewInactive, SortByName)
	out := Render(nodes, PlainStyle())
	require.Equal(t, strings.Join([]string{
		"Save workbench.action.files.save",
		"  [=] ctrl+s",
		"  Score: 0",
		"  Origins: default, user",
		"",
	}, "\n"), out)
}

func TestRenderCollapsed(t *testing.T) {
	t.Parallel()

	st := PlainStyle()
	st.Collapse = func(n Node) bool { return n.Kind == KindCommand }
	out := Render(Build(sampleTable(), ViewActive, SortByName), st)
	require.Equal(t, "Copy Line Down editor.action.copyLinesDownAction\nToggle Line Comment editor.action.commentLine\n", out)
}

func TestParseSortOrder(t *testing.T) {
	t.Parallel()

	o, err := ParseSortOrder("score")
	require.NoError(t, err)
	require.Equal(t, SortByScore, o)
	o, err = ParseSortOrder("")
	require.NoError(t, err)
	require.Equal(t, SortByName, o)
	_, err = ParseSortOrder("random")
	require.Error(t, err)
}
