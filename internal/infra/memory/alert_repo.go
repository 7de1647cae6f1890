package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	alertDomain "stock-alert/internal/domain/alert"

	"github.com/google/uuid"
)

// AlertRepo 記憶體版提醒規則儲存。
type AlertRepo struct {
	mu    sync.RWMutex
	rules map[string]alertDomain.Rule
	loc   *time.Location
}

// NewAlertRepo 建立記憶體實例；loc 決定「今日」的日界，nil 時使用 UTC。
func NewAlertRepo(loc *time.Location) *AlertRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &AlertRepo{
		rules: make(map[string]alertDomain.Rule),
		loc:   loc,
	}
}

func (r *AlertRepo) ListActive(_ context.Context, owner string) ([]alertDomain.Rule, error) {
	return r.filter(func(rule alertDomain.Rule) bool {
		return rule.Active && (owner == "" || rule.Owner == owner)
	}), nil
}

func (r *AlertRepo) List(_ context.Context, owner string) ([]alertDomain.Rule, error) {
	return r.filter(func(rule alertDomain.Rule) bool { return rule.Owner == owner }), nil
}

func (r *AlertRepo) Create(_ context.Context, rule alertDomain.Rule) (alertDomain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	r.rules[rule.ID] = cloneRule(rule)
	return cloneRule(rule), nil
}

func (r *AlertRepo) Delete(_ context.Context, owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.Owner != owner {
		return alertDomain.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *AlertRepo) SetActive(_ context.Context, owner, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.Owner != owner {
		return alertDomain.ErrNotFound
	}
	rule.Active = active
	rule.UpdatedAt = time.Now()
	r.rules[id] = rule
	return nil
}

// RecordTrigger 在同一把鎖內同時更新次數與時間。
func (r *AlertRepo) RecordTrigger(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return alertDomain.ErrNotFound
	}
	rule.RecordTrigger(at)
	r.rules[id] = rule
	return nil
}

func (r *AlertRepo) Stats(ctx context.Context, owner string, now time.Time) (alertDomain.Stats, error) {
	rules, err := r.List(ctx, owner)
	if err != nil {
		return alertDomain.Stats{}, err
	}
	return alertDomain.ComputeStats(rules, now, r.loc), nil
}

// Get 測試與管理用途，回傳單一規則副本。
func (r *AlertRepo) Get(_ context.Context, id string) (alertDomain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return alertDomain.Rule{}, alertDomain.ErrNotFound
	}
	return cloneRule(rule), nil
}

func (r *AlertRepo) filter(keep func(alertDomain.Rule) bool) []alertDomain.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]alertDomain.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if keep(rule) {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneRule(rule alertDomain.Rule) alertDomain.Rule {
	if rule.LastTriggeredAt != nil {
		t := *rule.LastTriggeredAt
		rule.LastTriggeredAt = &t
	}
	return rule
}

// WatchlistRepo 記憶體版關注清單。
type WatchlistRepo struct {
	mu      sync.RWMutex
	entries map[string]alertDomain.WatchlistEntry // owner|ticker
}

func NewWatchlistRepo() *WatchlistRepo {
	return &WatchlistRepo{entries: make(map[string]alertDomain.WatchlistEntry)}
}

func watchKey(owner, ticker string) string {
	return owner + "|" + strings.ToUpper(ticker)
}

func (w *WatchlistRepo) Add(_ context.Context, e alertDomain.WatchlistEntry) (alertDomain.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := watchKey(e.Owner, e.Ticker)
	if _, ok := w.entries[key]; ok {
		return alertDomain.WatchlistEntry{}, alertDomain.ErrConflict
	}
	w.entries[key] = e
	return e, nil
}

func (w *WatchlistRepo) Remove(_ context.Context, owner, ticker string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := watchKey(owner, ticker)
	if _, ok := w.entries[key]; !ok {
		return alertDomain.ErrNotFound
	}
	delete(w.entries, key)
	return nil
}

func (w *WatchlistRepo) List(_ context.Context, owner string) ([]alertDomain.WatchlistEntry, error) {
	return w.collect(func(e alertDomain.WatchlistEntry) bool { return e.Owner == owner }), nil
}

func (w *WatchlistRepo) ListAll(_ context.Context) ([]alertDomain.WatchlistEntry, error) {
	return w.collect(func(alertDomain.WatchlistEntry) bool { return true }), nil
}

func (w *WatchlistRepo) collect(keep func(alertDomain.WatchlistEntry) bool) []alertDomain.WatchlistEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]alertDomain.WatchlistEntry, 0, len(w.entries))
	for _, e := range w.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}
