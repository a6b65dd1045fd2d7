package shortcuts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Store keys of the persisted blobs.
const (
	KeyShortcuts         = "shortcuts"
	KeyPreselectionRules = "preselectionRules"
	KeyLastShown         = "lastShownTimestamp"
)

// KV is the persisted string-keyed blob store the Store sits on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the single handle to the persisted shortcut table. Every mutation
// goes through Update, which holds the store lock across read, compute and write.
type Store struct {
	kv KV
	mu sync.Mutex
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Table returns a copy of the committed table. A store that was never written
// yields an empty table.
func (s *Store) Table(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTable(ctx)
}

func (s *Store) readTable(ctx context.Context) (Table, error) {
	raw, ok, err := s.kv.Get(ctx, KeyShortcuts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyShortcuts, err)
	}
	t := Table{}
	if !ok || len(raw) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyShortcuts, err)
	}
	for _, sc := range t {
		if sc.Keybindings == nil {
			sc.Keybindings = Keybindings{}
		}
	}
	return t, nil
}

// Update reads the committed table, passes a private copy to fn and writes
// back what fn returns. If fn fails or panics nothing is written.
func (s *Store) Update(ctx context.Context, fn func(Table) (Table, error)) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readTable(ctx)
	if err != nil {
		return err
	}
	next, err := callUpdate(fn, current)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyShortcuts, err)
	}
	if err := s.kv.Set(ctx, KeyShortcuts, raw); err != nil {
		return fmt.Errorf("write %s: %w", KeyShortcuts, err)
	}
	return nil
}

func callUpdate(fn func(Table) (Table, error), t Table) (next Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update panicked: %v", r)
		}
	}()
	next, err = fn(t)
	if err == nil && next == nil {
		next = Table{}
	}
	return next, err
}

// Rules returns the cached preselection rules.
func (s *Store) Rules(ctx context.Context) ([]PreselectionRule, error) {
	raw, ok, err := s.kv.Get(ctx, KeyPreselectionRules)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyPreselectionRules, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var rules []PreselectionRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyPreselectionRules, err)
	}
	return rules, nil
}

func (s *Store) SetRules(ctx context.Context, rules []PreselectionRule) error {
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyPreselectionRules, err)
	}
	return s.kv.Set(ctx, KeyPreselectionRules, raw)
}

// LastShown returns when a quiz was last offered; zero if never.
// The timestamp is stored as unix milliseconds.
func (s *Store) LastShown(ctx context.Context) (time.Time, error) {
	raw, ok, err := s.kv.Get(ctx, KeyLastShown)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", KeyLastShown, err)
	}
	if !ok || len(raw) == 0 {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", KeyLastShown, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *Store) SetLastShown(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, KeyLastShown, []byte(strconv.FormatInt(t.UnixMilli(), 10)))
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string][]byte{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
