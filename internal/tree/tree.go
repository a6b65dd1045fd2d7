// Package tree turns the shortcut table into a plain node tree for the
// active and inactive shortcut views, and renders it as text.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

type Kind int

const (
	KindCommand Kind = iota
	KindRelatedGroup
	KindRelatedCommand
	KindKeybinding
	KindCondition
	KindScore
	KindOrigins
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindRelatedGroup:
		return "related"
	case KindRelatedCommand:
		return "related_command"
	case KindKeybinding:
		return "keybinding"
	case KindCondition:
		return "condition"
	case KindScore:
		return "score"
	case KindOrigins:
		return "origins"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one row of the tree. Command is the top-level command a node
// belongs to; Key is set on keybinding and condition nodes. Toggleable
// marks keybindings the user may switch on or off.
type Node struct {
	Kind       Kind
	Command    string
	Label      string
	Detail     string
	Key        string
	Enabled    bool
	Toggleable bool
	Score      int
	Children   []Node
}

type View int

const (
	ViewActive View = iota
	ViewInactive
)

type SortOrder int

const (
	SortByName SortOrder = iota
	SortByScore
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "name", "alphabetical":
		return SortByName, nil
	case "score", "learningstate":
		return SortByScore, nil
	}
	return SortByName, fmt.Errorf("unknown sort order %q", s)
}

// Build returns the command nodes of view in order. The active view holds
// starred commands, the inactive view the rest.
func Build(table shortcuts.Table, view View, order SortOrder) []Node {
	var cmds []string
	for _, c := range table.Commands() {
		if table[c].Enabled == (view == ViewActive) {
			cmds = append(cmds, c)
		}
	}
	sort.SliceStable(cmds, func(i, j int) bool {
		a, b := table[cmds[i]], table[cmds[j]]
		if order == SortByScore && a.LearningState != b.LearningState {
			return a.LearningState < b.LearningState
		}
		if a.Title != b.Title {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
		return cmds[i] < cmds[j]
	})

	nodes := make([]Node, 0, len(cmds))
	for _, c := range cmds {
		nodes = append(nodes, commandNode(c, table[c]))
	}
	return nodes
}

func commandNode(cmd string, s *shortcuts.Shortcut) Node {
	n := Node{
		Kind:    KindCommand,
		Command: cmd,
		Label:   s.Title,
		Detail:  cmd,
		Enabled: s.Enabled,
		Score:   s.LearningState,
	}
	n.Children = append(n.Children, keybindingNodes(cmd, s.Keybindings)...)
	if s.IsGroupHead() {
		group := Node{Kind: KindRelatedGroup, Command: cmd, Label: "Related Shortcuts"}
		for _, rc := range s.RelatedCommands() {
			r := s.RelatedShortcuts[rc]
			rn := Node{Kind: KindRelatedCommand, Command: cmd, Label: r.Title, Detail: rc, Enabled: true}
			rn.Children = append(keybindingNodes(cmd, r.Keybindings), originsNode(cmd, r.Origins))
			group.Children = append(group.Children, rn)
		}
		n.Children = append(n.Children, group)
	}
	n.Children = append(n.Children,
		Node{Kind: KindScore, Command: cmd, Label: fmt.Sprintf("Score: %d", s.LearningState), Score: s.LearningState},
		originsNode(cmd, s.Origins),
	)
	return n
}

func keybindingNodes(cmd string, kbs shortcuts.Keybindings) []Node {
	out := make([]Node, 0, len(kbs))
	for _, key := range kbs.Keys() {
		kb := kbs[key]
		kn := Node{
			Kind:       KindKeybinding,
			Command:    cmd,
			Label:      key,
			Key:        key,
			Enabled:    kb.Enabled,
			Toggleable: kb.DisablingPossible,
		}
		for _, c := range kb.Conditions {
			kn.Children = append(kn.Children, Node{Kind: KindCondition, Command: cmd, Label: c, Key: key, Enabled: kb.Enabled})
		}
		out = append(out, kn)
	}
	return out
}

func originsNode(cmd string, origins []string) Node {
	return Node{Kind: KindOrigins, Command: cmd, Label: "Origins: " + strings.Join(origins, ", ")}
}

// Row is a node placed at a depth in the flattened tree.
type Row struct {
	Depth int
	Node  Node
}

// Flatten lists nodes depth first. Children of nodes for which collapsed
// returns true are left out; a nil collapsed expands everything.
func Flatten(nodes []Node, collapsed func(Node) bool) []Row {
	var rows []Row
	var walk func([]Node, int)
	walk = func(ns []Node, depth int) {
		for _, n := range ns {
			rows = append(rows, Row{Depth: depth, Node: n})
			if collapsed != nil && collapsed(n) {
				continue
			}
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return rows
}
