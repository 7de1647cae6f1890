package alert

import (
	"fmt"
	"strconv"
	"time"
)

var kindLabels = map[Kind]string{
	KindPrice:      "주가",
	KindPsychology: "심리도",
	KindRSI:        "RSI",
	KindVolume:     "거래량",
}

var comparatorLabels = map[Comparator]string{
	ComparatorAbove: "이상",
	ComparatorBelow: "이하",
	ComparatorEqual: "달성",
}

// KindLabel 回傳指標的顯示名稱，未知指標原樣回傳。
func KindLabel(k Kind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// ComparatorLabel 回傳比較方式的顯示名稱。
func ComparatorLabel(c Comparator) string {
	if l, ok := comparatorLabels[c]; ok {
		return l
	}
	return string(c)
}

// Matches 依比較方式判斷觀察值是否命中門檻；equal 為精確相等。
func Matches(c Comparator, observed, threshold float64) bool {
	switch c {
	case ComparatorAbove:
		return observed > threshold
	case ComparatorBelow:
		return observed < threshold
	case ComparatorEqual:
		return observed == threshold
	}
	return false
}

// Evaluate 以最新報價評估規則，命中時回傳觸發事件。不修改狀態、不做 I/O。
func Evaluate(rule Rule, observed float64, at time.Time) (TriggerEvent, bool) {
	if !Matches(rule.Comparator, observed, rule.Threshold) {
		return TriggerEvent{}, false
	}
	name := rule.DisplayName()
	kindLabel := KindLabel(rule.Kind)
	subject := fmt.Sprintf("[주식 알림] %s %s 알림", name, kindLabel)
	message := fmt.Sprintf("%s(%s)의 %s가 %s %s을 달성했습니다.",
		name, rule.Ticker, kindLabel, FormatValue(rule.Threshold), ComparatorLabel(rule.Comparator))

	return TriggerEvent{
		RuleID:        rule.ID,
		Owner:         rule.Owner,
		Ticker:        rule.Ticker,
		StockName:     name,
		Kind:          rule.Kind,
		Comparator:    rule.Comparator,
		Threshold:     rule.Threshold,
		ObservedValue: observed,
		Channel:       rule.Channel,
		Subject:       subject,
		Message:       message,
		OccurredAt:    at,
	}, true
}

// FormatValue 以最短表示輸出數值（80000 → "80000"）。
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
