package alert

import (
	"fmt"
	"strings"
	"time"
)

// Quote 單一股票、單一指標在某時間點的觀察值。
type Quote struct {
	Ticker string
	Kind   Kind
	Value  float64
	AsOf   time.Time
}

// TriggerEvent 由評估器產生，交給通知與儲存層使用。
type TriggerEvent struct {
	RuleID        string
	Owner         string
	Ticker        string
	StockName     string
	Kind          Kind
	Comparator    Comparator
	Threshold     float64
	ObservedValue float64
	Channel       Channel
	Subject       string
	Message       string
	OccurredAt    time.Time
}

// Delivery 單一通道的投遞請求。
type Delivery struct {
	Channel   Channel
	Recipient string
	Subject   string
	Body      string
}

// Validate email 需要主旨與內文，webhook 只需要內文。
func (d Delivery) Validate() error {
	switch d.Channel {
	case ChannelEmail:
		if strings.TrimSpace(d.Recipient) == "" {
			return fmt.Errorf("email recipient is required")
		}
		if strings.TrimSpace(d.Subject) == "" {
			return fmt.Errorf("email subject is required")
		}
	case ChannelWebhook:
	default:
		return fmt.Errorf("unsupported delivery channel: %s", d.Channel)
	}
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// Deliveries 將觸發事件展開為各通道的投遞請求。
func (e TriggerEvent) Deliveries() []Delivery {
	targets := e.Channel.Targets()
	out := make([]Delivery, 0, len(targets))
	for _, ch := range targets {
		out = append(out, Delivery{
			Channel:   ch,
			Recipient: e.Owner,
			Subject:   e.Subject,
			Body:      e.Message,
		})
	}
	return out
}

// WatchlistEntry 使用者關注的股票，(Owner, Ticker) 唯一。
type WatchlistEntry struct {
	Owner       string
	Ticker      string
	DisplayName string
	CreatedAt   time.Time
}

// NewWatchlistEntry 正規化代號並檢查必填欄位。
func NewWatchlistEntry(owner, ticker, displayName string, now time.Time) (WatchlistEntry, error) {
	owner = strings.TrimSpace(owner)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if owner == "" {
		return WatchlistEntry{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if ticker == "" {
		return WatchlistEntry{}, fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = ticker
	}
	return WatchlistEntry{Owner: owner, Ticker: ticker, DisplayName: displayName, CreatedAt: now}, nil
}
