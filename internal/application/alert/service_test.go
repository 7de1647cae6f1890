package alert

import (
	"context"
	"testing"
	"time"

	alertDomain "stock-alert/internal/domain/alert"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNames map[string]string

func (f fakeNames) LookupName(ticker string) (string, bool) {
	n, ok := f[ticker]
	return n, ok
}

func newTestService(store Store) *Service {
	svc := NewService(store, fakeNames{"005930": "삼성전자"})
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_CreateRule(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	rule, err := svc.CreateRule(context.Background(), "user@example.com", CreateRuleInput{
		Ticker:     " 005930 ",
		Kind:       "PRICE",
		Comparator: "Above",
		Threshold:  80000,
		Channel:    "email",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "005930", rule.Ticker)
	assert.Equal(t, "삼성전자", rule.StockName)
	assert.Equal(t, alertDomain.KindPrice, rule.Kind)
	assert.True(t, rule.Active)
	assert.Zero(t, rule.TriggerCount)
	assert.Nil(t, rule.LastTriggeredAt)
}

func TestService_CreateRule_Invalid(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	cases := map[string]CreateRuleInput{
		"unknown comparator": {Ticker: "005930", Kind: "price", Comparator: "greater", Threshold: 1, Channel: "email"},
		"unknown kind":       {Ticker: "005930", Kind: "macd", Comparator: "above", Threshold: 1, Channel: "email"},
		"unknown channel":    {Ticker: "005930", Kind: "price", Comparator: "above", Threshold: 1, Channel: "sms"},
		"empty ticker":       {Ticker: " ", Kind: "price", Comparator: "above", Threshold: 1, Channel: "email"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateRule(context.Background(), "user@example.com", in)
			assert.ErrorIs(t, err, alertDomain.ErrValidation)
		})
	}
	assert.Empty(t, store.rules)
}

func TestService_OwnerScoping(t *testing.T) {
	store := &fakeStore{rules: []alertDomain.Rule{
		{ID: "r1", Owner: "a@example.com", Ticker: "005930", Active: true},
		{ID: "r2", Owner: "a@example.com", Ticker: "000660", Active: false},
		{ID: "r3", Owner: "b@example.com", Ticker: "005930", Active: true},
	}}
	svc := newTestService(store)
	ctx := context.Background()

	all, err := svc.ListRules(ctx, "a@example.com", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListRules(ctx, "a@example.com", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "r1", active[0].ID)

	assert.ErrorIs(t, svc.DeleteRule(ctx, "a@example.com", "r3"), alertDomain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteRule(ctx, "a@example.com", ""), alertDomain.ErrNotFound)
	require.NoError(t, svc.DeleteRule(ctx, "b@example.com", "r3"))

	require.NoError(t, svc.SetActive(ctx, "a@example.com", "r2", true))
	assert.True(t, store.rule("r2").Active)
	assert.ErrorIs(t, svc.SetActive(ctx, "b@example.com", "r2", false), alertDomain.ErrNotFound)

	_, err = svc.ListRules(ctx, "", false)
	assert.ErrorIs(t, err, alertDomain.ErrValidation)
}

func TestService_Stats(t *testing.T) {
	today := time.Date(2024, 5, 2, 0, 30, 0, 0, time.UTC)
	store := &fakeStore{rules: []alertDomain.Rule{
		{ID: "r1", Owner: "a@example.com", Active: true, TriggerCount: 3, LastTriggeredAt: &today},
		{ID: "r2", Owner: "a@example.com", Active: false, TriggerCount: 2},
	}}
	stats, err := newTestService(store).Stats(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, alertDomain.Stats{Total: 2, Active: 1, TotalTriggered: 5, TriggeredToday: 1}, stats)
}
