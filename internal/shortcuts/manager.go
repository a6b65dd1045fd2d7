package shortcuts

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/shortcutquiz/internal/keys"
)

var ErrMalformedRecord = errors.New("malformed import record")

// LoadManager rebuilds the shortcut table from scratch for one reload:
// Reset, Ingest each source in priority order, ComputeEnablement, Group,
// Restore. It is single use and not safe for concurrent use.
type LoadManager struct {
	Rules  []PreselectionRule
	Titles TitleTranslator
	Log    *zap.Logger

	previous Table
	table    Table
	snapshot map[string]commandSnapshot
	warnings []string
}

type commandSnapshot struct {
	enabled       bool
	learningState int
	keybindings   map[string]keybindingSnapshot
}

type keybindingSnapshot struct {
	signature string
	enabled   bool
}

// IngestResult counts what one source contributed.
type IngestResult struct {
	Added   int
	Removed int
	Ignored int
	Skipped int
}

func NewLoadManager(previous Table, rules []PreselectionRule, titles TitleTranslator, log *zap.Logger) *LoadManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoadManager{
		Rules:    rules,
		Titles:   titles,
		Log:      log,
		previous: previous,
		table:    Table{},
	}
}

// Reset snapshots the user-set state of the previous table and clears the
// working table.
func (m *LoadManager) Reset() {
	m.snapshot = make(map[string]commandSnapshot, len(m.previous))
	for cmd, s := range m.previous {
		snap := commandSnapshot{
			enabled:       s.Enabled,
			learningState: s.LearningState,
			keybindings:   make(map[string]keybindingSnapshot, len(s.Keybindings)),
		}
		for key, kb := range s.Keybindings {
			snap.keybindings[key] = keybindingSnapshot{signature: kb.conditionSignature(), enabled: kb.Enabled}
		}
		m.snapshot[cmd] = snap
	}
	m.table = Table{}
	m.warnings = nil
}

// Add merges one add record into the working table.
func (m *LoadManager) Add(rec ImportRecord) error {
	cmd := rec.Target()
	key := keys.Normalize(rec.Key)
	if cmd == "" || key == "" {
		return fmt.Errorf("%w: command %q key %q", ErrMalformedRecord, rec.Command, rec.Key)
	}

	if s, ok := m.table[cmd]; ok {
		s.addOrigin(rec.Origin)
		if s.titleDerived {
			if t, derived := resolveTitle(cmd, rec.Title, nil); !derived {
				s.Title, s.titleDerived = t, false
			}
		}
		mergeKeybinding(s.Keybindings, key, rec.When)
		return nil
	}
	if head, ok := m.table.HeadOf(cmd); ok {
		r := m.table[head].RelatedShortcuts[cmd]
		r.Origins = addOrigin(r.Origins, rec.Origin)
		mergeKeybinding(r.Keybindings, key, rec.When)
		kb := r.Keybindings[key]
		kb.Enabled, kb.DisablingPossible = true, false
		return nil
	}

	title, derived := resolveTitle(cmd, rec.Title, m.Titles)
	s := &Shortcut{
		Title:        title,
		Keybindings:  Keybindings{},
		Origins:      []string{},
		titleDerived: derived,
	}
	s.addOrigin(rec.Origin)
	mergeKeybinding(s.Keybindings, key, rec.When)
	m.table[cmd] = s
	return nil
}

// mergeKeybinding applies an add of key/when. A later add without a condition
// makes the binding unconditional; a conditioned add only extends an already
// conditioned binding.
func mergeKeybinding(kb Keybindings, key, when string) {
	existing, ok := kb[key]
	if !ok {
		nk := &Keybinding{Enabled: true}
		if when != "" {
			nk.Conditions = []string{when}
		}
		kb[key] = nk
		return
	}
	if when == "" {
		existing.Conditions = nil
		return
	}
	if !existing.Unconditional() && !existing.HasCondition(when) {
		existing.Conditions = append(existing.Conditions, when)
	}
}

// Remove applies a removal record. It reports whether anything changed; a
// record whose command or chord is not present is a no-op.
func (m *LoadManager) Remove(rec ImportRecord) bool {
	cmd := rec.Target()
	key := keys.Normalize(rec.Key)

	var kbs Keybindings
	if s, ok := m.table[cmd]; ok {
		kbs = s.Keybindings
	} else if head, ok := m.table.HeadOf(cmd); ok {
		kbs = m.table[head].RelatedShortcuts[cmd].Keybindings
	}
	existing, ok := kbs[key]
	if !ok {
		return false
	}
	if rec.When == "" {
		delete(kbs, key)
		return true
	}
	if existing.Unconditional() || !existing.HasCondition(rec.When) {
		return false
	}
	kept := existing.Conditions[:0]
	for _, c := range existing.Conditions {
		if c != rec.When {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		// a binding with its last condition removed is no longer active anywhere
		delete(kbs, key)
		return true
	}
	existing.Conditions = kept
	return true
}

// Ingest feeds one source's records in order. Malformed records are logged
// and skipped.
func (m *LoadManager) Ingest(source string, recs []ImportRecord) IngestResult {
	var res IngestResult
	for i, rec := range recs {
		if rec.IsRemoval() {
			if m.Remove(rec) {
				res.Removed++
			} else {
				res.Ignored++
				m.Log.Debug("removal has no target",
					zap.String("source", source),
					zap.String("command", rec.Target()),
					zap.String("key", rec.Key))
			}
			continue
		}
		if err := m.Add(rec); err != nil {
			res.Skipped++
			m.warn(fmt.Sprintf("%s record %d: %v", source, i, err),
				zap.String("source", source),
				zap.String("command", rec.Command),
				zap.String("key", rec.Key))
			continue
		}
		res.Added++
	}
	return res
}

// ComputeEnablement sets the default enabled state of every keybinding. An
// unconditional binding wins over conditioned siblings; any binding of a
// command with more than one binding can be toggled by the user.
func (m *LoadManager) ComputeEnablement() {
	for _, s := range m.table {
		hasUnconditional := false
		for _, kb := range s.Keybindings {
			if kb.Unconditional() {
				hasUnconditional = true
				break
			}
		}
		many := len(s.Keybindings) > 1
		for _, kb := range s.Keybindings {
			kb.Enabled = kb.Unconditional() || !hasUnconditional
			kb.DisablingPossible = many
		}
	}
}

// Group applies the preselection rules. Rules that name unknown commands or
// would nest groups are logged and skipped.
func (m *LoadManager) Group() {
	for _, rule := range m.Rules {
		main, ok := m.table[rule.MainCommand]
		if !ok {
			m.warn("preselection rule skipped: unknown main command "+rule.MainCommand,
				zap.String("command", rule.MainCommand))
			continue
		}
		main.Enabled = true
		for _, rc := range rule.RelatedCommands {
			if rc == rule.MainCommand {
				continue
			}
			related, ok := m.table[rc]
			if !ok {
				msg := "preselection rule " + rule.MainCommand + ": unknown related command " + rc
				if head, grouped := m.table.HeadOf(rc); grouped {
					msg = "preselection rule " + rule.MainCommand + ": " + rc + " already grouped under " + head
				}
				m.warn(msg, zap.String("command", rule.MainCommand), zap.String("related", rc))
				continue
			}
			if related.IsGroupHead() {
				m.warn("preselection rule "+rule.MainCommand+": "+rc+" is itself a group head",
					zap.String("command", rule.MainCommand), zap.String("related", rc))
				continue
			}
			for _, kb := range related.Keybindings {
				kb.Enabled, kb.DisablingPossible = true, false
			}
			if main.RelatedShortcuts == nil {
				main.RelatedShortcuts = map[string]*RelatedShortcut{}
			}
			main.RelatedShortcuts[rc] = related.withoutRelations()
			delete(m.table, rc)
		}
		if len(rule.PreferredConditions) > 0 {
			m.preferConditions(rule.MainCommand, main, rule.PreferredConditions)
		}
	}
}

// preferConditions enables only the conditioned keybindings that carry one
// of preferred. If that would leave the command with nothing enabled the
// defaults from ComputeEnablement are kept.
func (m *LoadManager) preferConditions(cmd string, s *Shortcut, preferred []string) {
	before := enabledState(s.Keybindings)
	for _, kb := range s.Keybindings {
		if kb.Unconditional() {
			continue
		}
		kb.Enabled = false
		for _, p := range preferred {
			if kb.HasCondition(p) {
				kb.Enabled = true
				break
			}
		}
	}
	if len(s.Keybindings) > 0 && s.EnabledCount() == 0 {
		restoreEnabledState(s.Keybindings, before)
		m.Log.Info("preferred conditions match no keybinding, keeping defaults",
			zap.String("command", cmd), zap.Strings("preferred", preferred))
	}
}

// Restore re-applies the user-set state captured by Reset onto commands that
// survived the rebuild. A keybinding's enabled flag is restored only when its
// chord and condition set are unchanged.
func (m *LoadManager) Restore() {
	for cmd, snap := range m.snapshot {
		s, ok := m.table[cmd]
		if !ok {
			continue
		}
		s.Enabled = snap.enabled
		s.LearningState = snap.learningState

		before := enabledState(s.Keybindings)
		for key, ks := range snap.keybindings {
			kb, ok := s.Keybindings[key]
			if !ok || !kb.DisablingPossible || kb.conditionSignature() != ks.signature {
				continue
			}
			kb.Enabled = ks.enabled
		}
		if len(s.Keybindings) > 0 && s.EnabledCount() == 0 {
			restoreEnabledState(s.Keybindings, before)
		}
	}
}

// Table returns the working table.
func (m *LoadManager) Table() Table {
	return m.table
}

// Warnings returns the problems logged since Reset.
func (m *LoadManager) Warnings() []string {
	return append([]string(nil), m.warnings...)
}

// Build runs the whole pipeline over sources given in priority order.
func (m *LoadManager) Build(sources ...SourceRecords) (Table, []IngestResult) {
	m.Reset()
	results := make([]IngestResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, m.Ingest(src.Name, src.Records))
	}
	m.ComputeEnablement()
	m.Group()
	m.Restore()
	return m.table, results
}

// SourceRecords is the ordered output of one source.
type SourceRecords struct {
	Name    string
	Records []ImportRecord
}

func (m *LoadManager) warn(msg string, fields ...zap.Field) {
	m.warnings = append(m.warnings, msg)
	m.Log.Warn(msg, fields...)
}

func enabledState(kbs Keybindings) map[string]bool {
	out := make(map[string]bool, len(kbs))
	for k, kb := range kbs {
		out[k] = kb.Enabled
	}
	return out
}

func restoreEnabledState(kbs Keybindings, state map[string]bool) {
	for k, kb := range kbs {
		kb.Enabled = state[k]
	}
}
