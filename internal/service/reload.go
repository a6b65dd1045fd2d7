package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/shortcutquiz/internal/shortcuts"
	"github.com/jask/shortcutquiz/internal/sources"
)

// ReloadService rebuilds the stored shortcut table from the layered sources.
// Reloads are serialized: a reload requested while one runs waits for it.
type ReloadService struct {
	Store *shortcuts.Store
	// Sources in priority order, lowest first.
	Sources []sources.Source
	// Rules loads the preselection rules. On failure the rules cached in the
	// store from the last good load are used.
	Rules  func(ctx context.Context) ([]shortcuts.PreselectionRule, error)
	Titles shortcuts.TitleTranslator
	Log    *zap.Logger

	mu sync.Mutex
}

// SourceSummary reports what one source contributed to a reload.
type SourceSummary struct {
	Name string
	shortcuts.IngestResult
}

type ReloadResult struct {
	Warnings []string
	Skipped  int
	Sources  []SourceSummary
	Commands int
}

// Reload rebuilds the table, keeping user state of the previous one. On
// error the committed table is left as it was.
func (s *ReloadService) Reload(ctx context.Context) (ReloadResult, error) {
	return s.reload(ctx, false)
}

// ResetAndReload rebuilds the table from scratch, dropping stars, scores and
// keybinding toggles.
func (s *ReloadService) ResetAndReload(ctx context.Context) (ReloadResult, error) {
	return s.reload(ctx, true)
}

func (s *ReloadService) reload(ctx context.Context, reset bool) (ReloadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	var res ReloadResult

	rules, fresh, err := s.loadRules(ctx, &res, log)
	if err != nil {
		return ReloadResult{}, err
	}

	inputs := make([]shortcuts.SourceRecords, 0, len(s.Sources))
	for _, src := range s.Sources {
		out, err := src.Load(ctx)
		if err != nil {
			return ReloadResult{}, fmt.Errorf("load %s: %w", src.Name(), err)
		}
		for _, w := range out.Warnings {
			res.Warnings = append(res.Warnings, w.Error())
			log.Warn("source problem", zap.String("source", src.Name()), zap.Error(w))
		}
		inputs = append(inputs, shortcuts.SourceRecords{Name: src.Name(), Records: out.Records})
	}

	err = s.Store.Update(ctx, func(prev shortcuts.Table) (shortcuts.Table, error) {
		if reset {
			prev = nil
		}
		m := shortcuts.NewLoadManager(prev, rules, s.Titles, log)
		table, results := m.Build(inputs...)
		for i, r := range results {
			res.Sources = append(res.Sources, SourceSummary{Name: inputs[i].Name, IngestResult: r})
			res.Skipped += r.Skipped
		}
		res.Warnings = append(res.Warnings, m.Warnings()...)
		res.Commands = len(table)
		return table, nil
	})
	if err != nil {
		return ReloadResult{}, fmt.Errorf("reload: %w", err)
	}
	// Rules are cached only once the table built from them is committed.
	if fresh {
		if err := s.Store.SetRules(ctx, rules); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cache rules: %v", err))
			log.Warn("preselection rules not cached", zap.Error(err))
		}
	}
	log.Info("shortcuts reloaded",
		zap.Int("commands", res.Commands),
		zap.Int("skipped", res.Skipped),
		zap.Int("warnings", len(res.Warnings)),
		zap.Bool("reset", reset))
	return res, nil
}

// loadRules reports whether the rules came from the rules loader rather than
// the store cache.
func (s *ReloadService) loadRules(ctx context.Context, res *ReloadResult, log *zap.Logger) ([]shortcuts.PreselectionRule, bool, error) {
	if s.Rules == nil {
		rules, err := s.Store.Rules(ctx)
		return rules, false, err
	}
	rules, err := s.Rules(ctx)
	if err == nil {
		return rules, true, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, false, err
	}
	res.Warnings = append(res.Warnings, fmt.Sprintf("preselection rules: %v; using cached rules", err))
	log.Warn("preselection rules unavailable, using cached", zap.Error(err))
	rules, err = s.Store.Rules(ctx)
	return rules, false, err
}
