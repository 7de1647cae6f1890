package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
)

// Store 提醒規則的儲存層合約，記憶體與 Postgres 皆實作此介面。
type Store interface {
	// ListActive 回傳啟用中的規則；owner 為空字串時涵蓋所有使用者。
	ListActive(ctx context.Context, owner string) ([]alertDomain.Rule, error)
	List(ctx context.Context, owner string) ([]alertDomain.Rule, error)
	Create(ctx context.Context, rule alertDomain.Rule) (alertDomain.Rule, error)
	Delete(ctx context.Context, owner, id string) error
	SetActive(ctx context.Context, owner, id string, active bool) error
	// RecordTrigger 原子地累加觸發次數並更新最後觸發時間。
	RecordTrigger(ctx context.Context, id string, at time.Time) error
	Stats(ctx context.Context, owner string, now time.Time) (alertDomain.Stats, error)
}

// NameResolver 查詢股票顯示名稱。
type NameResolver interface {
	LookupName(ticker string) (string, bool)
}

// CreateRuleInput 建立規則所需欄位，列舉值以字串傳入再驗證。
type CreateRuleInput struct {
	Ticker     string
	StockName  string
	Kind       string
	Comparator string
	Threshold  float64
	Channel    string
}

// Service 提供依擁有者範圍的規則管理。
type Service struct {
	store Store
	names NameResolver
	now   func() time.Time
}

// NewService 建立規則管理服務；names 可為 nil。
func NewService(store Store, names NameResolver) *Service {
	return &Service{
		store: store,
		names: names,
		now:   time.Now,
	}
}

// CreateRule 驗證後寫入新規則。
func (s *Service) CreateRule(ctx context.Context, owner string, in CreateRuleInput) (alertDomain.Rule, error) {
	stockName := strings.TrimSpace(in.StockName)
	if stockName == "" && s.names != nil {
		if name, ok := s.names.LookupName(strings.ToUpper(strings.TrimSpace(in.Ticker))); ok {
			stockName = name
		}
	}
	rule, err := alertDomain.NewRule(
		owner,
		in.Ticker,
		stockName,
		alertDomain.Kind(strings.ToLower(strings.TrimSpace(in.Kind))),
		alertDomain.Comparator(strings.ToLower(strings.TrimSpace(in.Comparator))),
		in.Threshold,
		alertDomain.Channel(strings.ToLower(strings.TrimSpace(in.Channel))),
		s.now(),
	)
	if err != nil {
		return alertDomain.Rule{}, err
	}
	created, err := s.store.Create(ctx, rule)
	if err != nil {
		return alertDomain.Rule{}, fmt.Errorf("create rule: %w", err)
	}
	return created, nil
}

// ListRules 列出擁有者的規則，onlyActive 時只回傳啟用中的。
func (s *Service) ListRules(ctx context.Context, owner string, onlyActive bool) ([]alertDomain.Rule, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", alertDomain.ErrValidation)
	}
	if onlyActive {
		return s.store.ListActive(ctx, owner)
	}
	return s.store.List(ctx, owner)
}

// DeleteRule 刪除擁有者自己的規則；不存在或非本人時回傳 ErrNotFound。
func (s *Service) DeleteRule(ctx context.Context, owner, id string) error {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(id) == "" {
		return alertDomain.ErrNotFound
	}
	return s.store.Delete(ctx, owner, id)
}

// SetActive 切換規則啟用狀態。
func (s *Service) SetActive(ctx context.Context, owner, id string, active bool) error {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(id) == "" {
		return alertDomain.ErrNotFound
	}
	return s.store.SetActive(ctx, owner, id, active)
}

// Stats 回傳擁有者的提醒統計。
func (s *Service) Stats(ctx context.Context, owner string) (alertDomain.Stats, error) {
	if strings.TrimSpace(owner) == "" {
		return alertDomain.Stats{}, fmt.Errorf("%w: owner is required", alertDomain.ErrValidation)
	}
	return s.store.Stats(ctx, owner, s.now())
}
