// Package quiz derives quiz questions from the shortcut table and runs quiz
// sessions that score live key input against them.
package quiz

import (
	"github.com/jask/shortcutquiz/internal/keys"
	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// Step is one chord the user has to press.
type Step struct {
	// Key is the lower-cased key or code an event must carry.
	Key string
	// Modifiers are canonical names (ctrl, shift, alt, meta).
	Modifiers []string
	// Display is the base key glyph for the configured layout.
	Display string
	// ModifierDisplay holds one glyph per entry of Modifiers.
	ModifierDisplay []string
}

func (s Step) matches(e KeyEvent) bool {
	if s.Key == "" {
		return false
	}
	if s.has(keys.ModCtrl) != e.Ctrl || s.has(keys.ModShift) != e.Shift ||
		s.has(keys.ModAlt) != e.Alt || s.has(keys.ModMeta) != e.Meta {
		return false
	}
	return (e.Key != "" && e.Key == s.Key) || (e.Code != "" && e.Code == s.Key)
}

func (s Step) has(mod string) bool {
	for _, m := range s.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// Alternative is one chord sequence bound to the question's command.
type Alternative struct {
	Binding string
	Steps   []Step
}

// Answer describes one keybinding of the command as shown after the answer
// is revealed, whether or not it takes part in matching.
type Answer struct {
	Binding           string
	Enabled           bool
	DisablingPossible bool
	Conditions        []string
	Steps             []Step
}

type Question struct {
	Command      string
	Title        string
	Enabled      bool
	Alternatives []Alternative
	Answers      []Answer
	Related      []Question
}

// BuildSteps decomposes a normalized chord sequence into steps.
func BuildSteps(binding string, km KeyMappings, layout string) []Step {
	chords := keys.ParseSequence(binding)
	steps := make([]Step, 0, len(chords))
	for _, c := range chords {
		st := Step{
			Key:       km.Translate(c.Key),
			Modifiers: c.Modifiers,
			Display:   km.Display(c.Key, layout),
		}
		for _, m := range c.Modifiers {
			st.ModifierDisplay = append(st.ModifierDisplay, km.Display(m, layout))
		}
		steps = append(steps, st)
	}
	return steps
}

func buildAnswers(kbs shortcuts.Keybindings, km KeyMappings, layout string) ([]Alternative, []Answer) {
	var alts []Alternative
	answers := make([]Answer, 0, len(kbs))
	for _, binding := range kbs.Keys() {
		kb := kbs[binding]
		steps := BuildSteps(binding, km, layout)
		answers = append(answers, Answer{
			Binding:           binding,
			Enabled:           kb.Enabled,
			DisablingPossible: kb.DisablingPossible,
			Conditions:        kb.Conditions,
			Steps:             steps,
		})
		if kb.Enabled && len(steps) > 0 {
			alts = append(alts, Alternative{Binding: binding, Steps: steps})
		}
	}
	return alts, answers
}

// BuildQuestion derives the question for a top-level command.
func BuildQuestion(command string, s *shortcuts.Shortcut, km KeyMappings, layout string) Question {
	q := Question{Command: command, Title: s.Title, Enabled: s.Enabled}
	q.Alternatives, q.Answers = buildAnswers(s.Keybindings, km, layout)
	for _, rc := range s.RelatedCommands() {
		r := s.RelatedShortcuts[rc]
		rq := Question{Command: rc, Title: r.Title, Enabled: true}
		rq.Alternatives, rq.Answers = buildAnswers(r.Keybindings, km, layout)
		q.Related = append(q.Related, rq)
	}
	return q
}

// BuildQuestions derives questions for commands in order, skipping commands
// missing from the table.
func BuildQuestions(table shortcuts.Table, commands []string, km KeyMappings, layout string) []Question {
	out := make([]Question, 0, len(commands))
	for _, c := range commands {
		s, ok := table[c]
		if !ok {
			continue
		}
		out = append(out, BuildQuestion(c, s, km, layout))
	}
	return out
}
