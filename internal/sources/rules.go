package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// LoadRules reads preselection rules from path, picking the format by
// extension (.toml or JSON). An empty path reads fallback instead, which is
// always JSON.
func LoadRules(path string, fallback []byte) ([]shortcuts.PreselectionRule, error) {
	if path == "" {
		return ParseRulesJSON(fallback)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseRulesTOML(b)
	}
	if b, err = StripJSONC(b); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return ParseRulesJSON(b)
}

type rulesFile struct {
	Rules []shortcuts.PreselectionRule `toml:"rule"`
}

// ParseRulesTOML reads [[rule]] tables.
func ParseRulesTOML(b []byte) ([]shortcuts.PreselectionRule, error) {
	var f rulesFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	for i, r := range f.Rules {
		if r.MainCommand == "" {
			return nil, fmt.Errorf("%w: rule %d has no main_command", ErrMalformedSource, i)
		}
	}
	return f.Rules, nil
}

// ParseRulesJSON accepts either an object keyed by main command
//
//	{"editor.action.copyLinesDownAction": {"relatedShortcuts": [...], "preferredConditions": [...]}}
//
// or a list of groups whose first element is the main command
//
//	[["editor.action.copyLinesDownAction", "editor.action.copyLinesUpAction"]]
//
// Document order is kept.
func ParseRulesJSON(b []byte) ([]shortcuts.PreselectionRule, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: rules are not valid JSON", ErrMalformedSource)
	}
	doc := gjson.ParseBytes(b)
	var rules []shortcuts.PreselectionRule
	var err error
	switch {
	case doc.IsObject():
		doc.ForEach(func(k, v gjson.Result) bool {
			if !v.IsObject() {
				err = fmt.Errorf("%w: rule %q is %s", ErrMalformedSource, k.String(), v.Type)
				return false
			}
			rules = append(rules, shortcuts.PreselectionRule{
				MainCommand:         k.String(),
				RelatedCommands:     stringList(v.Get("relatedShortcuts")),
				PreferredConditions: stringList(v.Get("preferredConditions")),
			})
			return true
		})
	case doc.IsArray():
		doc.ForEach(func(_, v gjson.Result) bool {
			group := stringList(v)
			if !v.IsArray() || len(group) == 0 {
				err = fmt.Errorf("%w: rule group must be a non-empty array", ErrMalformedSource)
				return false
			}
			rule := shortcuts.PreselectionRule{MainCommand: group[0]}
			if len(group) > 1 {
				rule.RelatedCommands = group[1:]
			}
			rules = append(rules, rule)
			return true
		})
	default:
		return nil, fmt.Errorf("%w: rules must be an object or array", ErrMalformedSource)
	}
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, s := range v.Array() {
		if s.String() != "" {
			out = append(out, s.String())
		}
	}
	return out
}
