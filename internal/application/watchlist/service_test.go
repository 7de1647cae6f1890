package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infra/memory"
)

type names map[string]string

func (n names) LookupName(ticker string) (string, bool) {
	v, ok := n[ticker]
	return v, ok
}

func TestService_AddListRemove(t *testing.T) {
	svc := NewService(memory.NewWatchlistRepo(), names{"005930": "삼성전자"})
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	e, err := svc.Add(ctx, "a@example.com", " 005930", "")
	if err != nil {
		t.Fatal(err)
	}
	if e.Ticker != "005930" || e.DisplayName != "삼성전자" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if _, err := svc.Add(ctx, "a@example.com", "005930", ""); !errors.Is(err, alertDomain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Add(ctx, "a@example.com", " ", ""); !errors.Is(err, alertDomain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	list, err := svc.List(ctx, "a@example.com")
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list: %+v err=%v", list, err)
	}
	if err := svc.Remove(ctx, "b@example.com", "005930"); !errors.Is(err, alertDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := svc.Remove(ctx, "a@example.com", "005930"); err != nil {
		t.Fatal(err)
	}
}
