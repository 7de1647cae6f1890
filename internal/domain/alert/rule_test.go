package alert

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewRule_Validate(t *testing.T) {
	now := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		owner      string
		ticker     string
		kind       Kind
		comparator Comparator
		threshold  float64
		channel    Channel
		wantErr    bool
	}{
		{"valid", "user@example.com", "005930", KindPrice, ComparatorAbove, 80000, ChannelEmail, false},
		{"bad_comparator", "user@example.com", "005930", KindPrice, Comparator("greater"), 1, ChannelEmail, true},
		{"bad_kind", "user@example.com", "005930", Kind("macd"), ComparatorAbove, 1, ChannelEmail, true},
		{"bad_channel", "user@example.com", "005930", KindPrice, ComparatorAbove, 1, Channel("slack"), true},
		{"nan_threshold", "user@example.com", "005930", KindPrice, ComparatorAbove, math.NaN(), ChannelEmail, true},
		{"inf_threshold", "user@example.com", "005930", KindPrice, ComparatorAbove, math.Inf(1), ChannelEmail, true},
		{"missing_owner", "", "005930", KindPrice, ComparatorAbove, 1, ChannelEmail, true},
		{"missing_ticker", "user@example.com", " ", KindPrice, ComparatorAbove, 1, ChannelEmail, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRule(tt.owner, tt.ticker, "", tt.kind, tt.comparator, tt.threshold, tt.channel, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if err == nil {
				if !r.Active || r.TriggerCount != 0 || r.LastTriggeredAt != nil {
					t.Fatalf("new rule must start active with zero triggers: %+v", r)
				}
				if r.StockName != r.Ticker {
					t.Fatalf("stock name should default to ticker")
				}
			}
		})
	}
}

func TestRule_RecordTrigger(t *testing.T) {
	r := Rule{}
	at := time.Now()
	r.RecordTrigger(at)
	r.RecordTrigger(at.Add(time.Minute))
	if r.TriggerCount != 2 {
		t.Fatalf("expected 2, got %d", r.TriggerCount)
	}
	if r.LastTriggeredAt == nil || !r.LastTriggeredAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("last triggered not updated")
	}
}

func TestComputeStats(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	now := time.Date(2024, 12, 2, 10, 0, 0, 0, loc)
	today := now.Add(-time.Hour)
	// 12/1 23:30 KST 仍屬昨日
	yesterday := time.Date(2024, 12, 1, 14, 30, 0, 0, time.UTC)
	rules := []Rule{
		{Active: true, TriggerCount: 2, LastTriggeredAt: &today},
		{Active: false, TriggerCount: 1, LastTriggeredAt: &yesterday},
		{Active: true},
	}
	st := ComputeStats(rules, now, loc)
	want := Stats{Total: 3, Active: 2, TotalTriggered: 3, TriggeredToday: 1}
	if st != want {
		t.Fatalf("got %+v, want %+v", st, want)
	}
}

func TestDelivery_Validate(t *testing.T) {
	if err := (Delivery{Channel: ChannelEmail, Recipient: "a@b.c", Body: "x"}).Validate(); err == nil {
		t.Error("email without subject should fail")
	}
	if err := (Delivery{Channel: ChannelWebhook, Body: "x"}).Validate(); err != nil {
		t.Errorf("webhook with body should pass: %v", err)
	}
	if err := (Delivery{Channel: ChannelBoth, Body: "x"}).Validate(); err == nil {
		t.Error("both is not a delivery channel")
	}
}
