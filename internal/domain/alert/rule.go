package alert

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrValidation 代表建立規則時欄位不合法，規則不會寫入儲存層。
	ErrValidation = errors.New("validation error")
	// ErrNotFound 代表規則不存在或不屬於呼叫者。
	ErrNotFound = errors.New("alert rule not found")
	// ErrQuoteUnavailable 報價來源暫時無法提供資料，只影響本輪該檔規則。
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrNotifyFailed 單一通道投遞失敗。
	ErrNotifyFailed = errors.New("notify failed")
	// ErrStoreUnavailable 儲存層無法連線，整輪中止。
	ErrStoreUnavailable = errors.New("alert store unavailable")
	// ErrConflict 資料已存在，例如重複加入關注清單。
	ErrConflict = errors.New("already exists")
)

// Kind 列舉規則觀察的指標。
type Kind string

const (
	KindPrice      Kind = "price"
	KindPsychology Kind = "psychology"
	KindRSI        Kind = "rsi"
	KindVolume     Kind = "volume"
)

// Valid 檢查是否為支援的指標。
func (k Kind) Valid() bool {
	switch k {
	case KindPrice, KindPsychology, KindRSI, KindVolume:
		return true
	}
	return false
}

// Comparator 列舉觀察值與門檻的比較方式。
type Comparator string

const (
	ComparatorAbove Comparator = "above"
	ComparatorBelow Comparator = "below"
	ComparatorEqual Comparator = "equal"
)

func (c Comparator) Valid() bool {
	switch c {
	case ComparatorAbove, ComparatorBelow, ComparatorEqual:
		return true
	}
	return false
}

// Channel 規則設定的通知方式。
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
	ChannelBoth    Channel = "both"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWebhook, ChannelBoth:
		return true
	}
	return false
}

// Targets 展開成實際要投遞的通道，both 依序為 email、webhook。
func (c Channel) Targets() []Channel {
	switch c {
	case ChannelEmail:
		return []Channel{ChannelEmail}
	case ChannelWebhook:
		return []Channel{ChannelWebhook}
	case ChannelBoth:
		return []Channel{ChannelEmail, ChannelWebhook}
	}
	return nil
}

// Rule 使用者在單一股票、單一指標上設定的提醒條件。
type Rule struct {
	ID              string
	Owner           string
	Ticker          string
	StockName       string
	Kind            Kind
	Comparator      Comparator
	Threshold       float64
	Channel         Channel
	Active          bool
	TriggerCount    int
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName 回傳通知用名稱，未設定時使用代號。
func (r Rule) DisplayName() string {
	if strings.TrimSpace(r.StockName) != "" {
		return r.StockName
	}
	return r.Ticker
}

// NewRule 驗證輸入並建立尚未指派 ID 的規則。
func NewRule(owner, ticker, stockName string, kind Kind, comparator Comparator, threshold float64, channel Channel, now time.Time) (Rule, error) {
	owner = strings.TrimSpace(owner)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if owner == "" {
		return Rule{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if ticker == "" {
		return Rule{}, fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	if !kind.Valid() {
		return Rule{}, fmt.Errorf("%w: unsupported kind %q", ErrValidation, kind)
	}
	if !comparator.Valid() {
		return Rule{}, fmt.Errorf("%w: unsupported comparator %q", ErrValidation, comparator)
	}
	if !channel.Valid() {
		return Rule{}, fmt.Errorf("%w: unsupported channel %q", ErrValidation, channel)
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return Rule{}, fmt.Errorf("%w: threshold must be finite", ErrValidation)
	}
	stockName = strings.TrimSpace(stockName)
	if stockName == "" {
		stockName = ticker
	}
	return Rule{
		Owner:      owner,
		Ticker:     ticker,
		StockName:  stockName,
		Kind:       kind,
		Comparator: comparator,
		Threshold:  threshold,
		Channel:    channel,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordTrigger 累加觸發次數並更新時間，兩者一起變動。
func (r *Rule) RecordTrigger(at time.Time) {
	r.TriggerCount++
	t := at
	r.LastTriggeredAt = &t
	r.UpdatedAt = at
}

// Stats 使用者提醒統計。
type Stats struct {
	Total          int
	Active         int
	TotalTriggered int
	TriggeredToday int
}

// ComputeStats 依 loc 的日曆日計算今日觸發數。
func ComputeStats(rules []Rule, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	var st Stats
	for _, r := range rules {
		st.Total++
		if r.Active {
			st.Active++
		}
		st.TotalTriggered += r.TriggerCount
		if r.LastTriggeredAt != nil {
			ty, tm, td := r.LastTriggeredAt.In(loc).Date()
			if ty == y && tm == m && td == d {
				st.TriggeredToday++
			}
		}
	}
	return st
}
