package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

// KeyRegistry resolves key names to actions per screen scope. Lookups fall
// back to the global scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal       = "global"
	scopeTree         = "tree"
	scopeQuizInput    = "quiz_input"
	scopeQuizMenu     = "quiz_menu"
	scopeQuizRevealed = "quiz_revealed"
	scopeQuizComplete = "quiz_complete"
)

const (
	actionQuit       Action = "quit"
	actionNavigate   Action = "navigate"
	actionExpand     Action = "expand"
	actionCollapse   Action = "collapse"
	actionSwitchView Action = "switch_view"
	actionSort       Action = "sort"
	actionStar       Action = "star"
	actionToggle     Action = "toggle"
	actionReload     Action = "reload"
	actionStartQuiz  Action = "start_quiz"
	actionMenu       Action = "menu"
	actionReveal     Action = "reveal"
	actionNext       Action = "next"
	actionPrevious   Action = "previous"
	actionRestart    Action = "restart"
	actionBack       Action = "back"
	actionUp         Action = "up"
	actionDown       Action = "down"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	reg(scopeGlobal, actionQuit, []string{"ctrl+c"}, "quit")

	// Shortcut tree.
	reg(scopeTree, actionUp, []string{"k", "up"}, "up")
	reg(scopeTree, actionDown, []string{"j", "down"}, "down")
	reg(scopeTree, actionExpand, []string{"enter", "l", "right"}, "expand")
	reg(scopeTree, actionCollapse, []string{"h", "left"}, "collapse")
	reg(scopeTree, actionSwitchView, []string{"tab"}, "active/inactive")
	reg(scopeTree, actionSort, []string{"o"}, "sort")
	reg(scopeTree, actionStar, []string{"s"}, "star")
	reg(scopeTree, actionToggle, []string{"space"}, "toggle key")
	reg(scopeTree, actionReload, []string{"r"}, "reload")
	reg(scopeTree, actionStartQuiz, []string{"t"}, "quiz")
	reg(scopeTree, actionQuit, []string{"q", "ctrl+c"}, "quit")

	// While a question waits for input every other key is an answer.
	reg(scopeQuizInput, actionMenu, []string{"esc"}, "menu")

	reg(scopeQuizMenu, actionReveal, []string{"r"}, "reveal")
	reg(scopeQuizMenu, actionPrevious, []string{"p"}, "previous")
	reg(scopeQuizMenu, actionRestart, []string{"R"}, "restart")
	reg(scopeQuizMenu, actionBack, []string{"esc"}, "answer")
	reg(scopeQuizMenu, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeQuizRevealed, actionNext, []string{"enter", "n"}, "next")
	reg(scopeQuizRevealed, actionPrevious, []string{"p"}, "previous")
	reg(scopeQuizRevealed, actionUp, []string{"k", "up"}, "up")
	reg(scopeQuizRevealed, actionDown, []string{"j", "down"}, "down")
	reg(scopeQuizRevealed, actionToggle, []string{"space"}, "toggle key")
	reg(scopeQuizRevealed, actionStar, []string{"s"}, "star")
	reg(scopeQuizRevealed, actionRestart, []string{"R"}, "restart")
	reg(scopeQuizRevealed, actionBack, []string{"q", "esc"}, "back")

	reg(scopeQuizComplete, actionRestart, []string{"R"}, "restart")
	reg(scopeQuizComplete, actionBack, []string{"q", "esc"}, "back")

	return r
}

// Register adds b to each of its scopes. A binding whose keys are already
// taken in a scope is ignored there.
func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	keys := normalizeKeyList(b.Keys)
	if b.Action == "" || len(keys) == 0 {
		return
	}
	for _, scope := range b.Scopes {
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		if r.scopeHasAnyKey(scope, keys) {
			continue
		}
		copyBinding := b
		copyBinding.Keys = keys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

// Is reports whether keyName triggers action in scope.
func (r *KeyRegistry) Is(keyName, scope string, action Action) bool {
	b := r.Lookup(keyName, scope)
	return b != nil && b.Action == action
}

func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
		// R (restart) and r (reveal) are different actions
		return trimmed
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
