package httpapi

import (
	"time"

	alertapp "stock-alert/internal/application/alert"
	alertDomain "stock-alert/internal/domain/alert"

	"github.com/dustin/go-humanize"
)

type createAlertRequest struct {
	Ticker     string   `json:"ticker"`
	StockName  string   `json:"stock_name"`
	Kind       string   `json:"alert_type"`
	Comparator string   `json:"condition"`
	Threshold  *float64 `json:"value"`
	Channel    string   `json:"notification_method"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

type addWatchlistRequest struct {
	Ticker      string `json:"ticker"`
	DisplayName string `json:"display_name"`
}

type ruleResponse struct {
	ID               string  `json:"id"`
	Ticker           string  `json:"ticker"`
	StockName        string  `json:"stock_name"`
	Kind             string  `json:"alert_type"`
	Comparator       string  `json:"condition"`
	Threshold        float64 `json:"value"`
	ThresholdDisplay string  `json:"value_display"`
	Channel          string  `json:"notification_method"`
	Active           bool    `json:"is_active"`
	TriggerCount     int     `json:"trigger_count"`
	LastTriggeredAt  *string `json:"last_triggered,omitempty"`
	LastTriggeredAgo string  `json:"last_triggered_ago,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func toRuleResponse(r alertDomain.Rule, now time.Time) ruleResponse {
	out := ruleResponse{
		ID:               r.ID,
		Ticker:           r.Ticker,
		StockName:        r.DisplayName(),
		Kind:             string(r.Kind),
		Comparator:       string(r.Comparator),
		Threshold:        r.Threshold,
		ThresholdDisplay: humanize.Commaf(r.Threshold),
		Channel:          string(r.Channel),
		Active:           r.Active,
		TriggerCount:     r.TriggerCount,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.LastTriggeredAt != nil {
		ts := r.LastTriggeredAt.Format(time.RFC3339)
		out.LastTriggeredAt = &ts
		out.LastTriggeredAgo = humanize.RelTime(*r.LastTriggeredAt, now, "ago", "from now")
	}
	return out
}

type watchlistResponse struct {
	Ticker      string `json:"ticker"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

func toWatchlistResponse(e alertDomain.WatchlistEntry) watchlistResponse {
	return watchlistResponse{
		Ticker:      e.Ticker,
		DisplayName: e.DisplayName,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

type cycleResponse struct {
	StartedAt        string `json:"started_at"`
	DurationMS       int64  `json:"duration_ms"`
	Rules            int    `json:"rules"`
	SkippedUntracked int    `json:"skipped_untracked"`
	QuotesRequested  int    `json:"quotes_requested"`
	QuoteFailures    int    `json:"quote_failures"`
	Triggered        int    `json:"triggered"`
	Deliveries       int    `json:"deliveries"`
	DeliveryFailures int    `json:"delivery_failures"`
	Recorded         int    `json:"recorded"`
	RecordFailures   int    `json:"record_failures"`
}

func toCycleResponse(r alertapp.CycleReport) cycleResponse {
	return cycleResponse{
		StartedAt:        r.StartedAt.Format(time.RFC3339),
		DurationMS:       r.Duration.Milliseconds(),
		Rules:            r.Rules,
		SkippedUntracked: r.SkippedUntracked,
		QuotesRequested:  r.QuotesRequested,
		QuoteFailures:    r.QuoteFailures,
		Triggered:        r.Triggered,
		Deliveries:       r.Deliveries,
		DeliveryFailures: r.DeliveryFailures,
		Recorded:         r.Recorded,
		RecordFailures:   r.RecordFailures,
	}
}
