package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
)

// Store 關注清單儲存層。
type Store interface {
	Add(ctx context.Context, entry alertDomain.WatchlistEntry) (alertDomain.WatchlistEntry, error)
	Remove(ctx context.Context, owner, ticker string) error
	List(ctx context.Context, owner string) ([]alertDomain.WatchlistEntry, error)
	ListAll(ctx context.Context) ([]alertDomain.WatchlistEntry, error)
}

// NameResolver 查詢股票顯示名稱。
type NameResolver interface {
	LookupName(ticker string) (string, bool)
}

// Service 管理使用者的關注股票。
type Service struct {
	store Store
	names NameResolver
	now   func() time.Time
}

func NewService(store Store, names NameResolver) *Service {
	return &Service{store: store, names: names, now: time.Now}
}

// Add 加入關注；重複加入回傳 ErrConflict。
func (s *Service) Add(ctx context.Context, owner, ticker, displayName string) (alertDomain.WatchlistEntry, error) {
	if strings.TrimSpace(displayName) == "" && s.names != nil {
		if name, ok := s.names.LookupName(strings.ToUpper(strings.TrimSpace(ticker))); ok {
			displayName = name
		}
	}
	entry, err := alertDomain.NewWatchlistEntry(owner, ticker, displayName, s.now())
	if err != nil {
		return alertDomain.WatchlistEntry{}, err
	}
	saved, err := s.store.Add(ctx, entry)
	if err != nil {
		return alertDomain.WatchlistEntry{}, fmt.Errorf("add watchlist: %w", err)
	}
	return saved, nil
}

// Remove 移除關注，不存在時回傳 ErrNotFound。
func (s *Service) Remove(ctx context.Context, owner, ticker string) error {
	owner = strings.TrimSpace(owner)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if owner == "" || ticker == "" {
		return alertDomain.ErrNotFound
	}
	return s.store.Remove(ctx, owner, ticker)
}

func (s *Service) List(ctx context.Context, owner string) ([]alertDomain.WatchlistEntry, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", alertDomain.ErrValidation)
	}
	return s.store.List(ctx, owner)
}
