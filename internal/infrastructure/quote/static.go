package quote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
)

type staticStock struct {
	Name   string
	Price  float64
	Volume float64
}

// 模擬行情表：國內與美股。
var defaultStocks = map[string]staticStock{
	"005930": {Name: "삼성전자", Price: 75000, Volume: 15000000},
	"000660": {Name: "SK하이닉스", Price: 120000, Volume: 8500000},
	"035420": {Name: "NAVER", Price: 205000, Volume: 1200000},
	"005380": {Name: "현대차", Price: 180000, Volume: 2100000},
	"006400": {Name: "삼성SDI", Price: 680000, Volume: 450000},
	"051910": {Name: "LG화학", Price: 850000, Volume: 320000},
	"068270": {Name: "셀트리온", Price: 195000, Volume: 1800000},
	"035720": {Name: "카카오", Price: 68500, Volume: 3200000},
	"207940": {Name: "삼성바이오로직스", Price: 780000, Volume: 85000},
	"373220": {Name: "LG에너지솔루션", Price: 450000, Volume: 650000},
	"AAPL":   {Name: "Apple Inc.", Price: 175.50, Volume: 55000000},
	"MSFT":   {Name: "Microsoft Corp.", Price: 345.20, Volume: 28000000},
	"GOOGL":  {Name: "Alphabet Inc.", Price: 135.80, Volume: 32000000},
	"AMZN":   {Name: "Amazon.com Inc.", Price: 142.60, Volume: 45000000},
	"TSLA":   {Name: "Tesla Inc.", Price: 245.80, Volume: 85000000},
	"NVDA":   {Name: "NVIDIA Corp.", Price: 520.30, Volume: 42000000},
	"META":   {Name: "Meta Platforms", Price: 385.90, Volume: 18000000},
	"NFLX":   {Name: "Netflix Inc.", Price: 465.20, Volume: 15000000},
	"AMD":    {Name: "Advanced Micro Devices", Price: 115.40, Volume: 38000000},
	"CRM":    {Name: "Salesforce Inc.", Price: 215.60, Volume: 8500000},
}

// StaticSource 以固定行情表提供報價，RSI 與心理線需以 Set 指定。
type StaticSource struct {
	mu        sync.RWMutex
	stocks    map[string]staticStock
	overrides map[string]float64 // ticker|kind
	now       func() time.Time
}

func NewStaticSource() *StaticSource {
	stocks := make(map[string]staticStock, len(defaultStocks))
	for k, v := range defaultStocks {
		stocks[k] = v
	}
	return &StaticSource{
		stocks:    stocks,
		overrides: make(map[string]float64),
		now:       time.Now,
	}
}

func overrideKey(ticker string, kind alertDomain.Kind) string {
	return strings.ToUpper(ticker) + "|" + string(kind)
}

// Set 覆寫某檔股票某指標的值。
func (s *StaticSource) Set(ticker string, kind alertDomain.Kind, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey(ticker, kind)] = value
}

func (s *StaticSource) Fetch(_ context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	q := alertDomain.Quote{Ticker: ticker, Kind: kind, AsOf: s.now()}

	if v, ok := s.overrides[overrideKey(ticker, kind)]; ok {
		q.Value = v
		return q, nil
	}
	stock, ok := s.stocks[ticker]
	if !ok {
		return alertDomain.Quote{}, fmt.Errorf("%w: unknown ticker %s", alertDomain.ErrQuoteUnavailable, ticker)
	}
	switch kind {
	case alertDomain.KindPrice:
		q.Value = stock.Price
	case alertDomain.KindVolume:
		q.Value = stock.Volume
	default:
		return alertDomain.Quote{}, fmt.Errorf("%w: no %s data for %s", alertDomain.ErrQuoteUnavailable, kind, ticker)
	}
	return q, nil
}

// LookupName 回傳行情表中的股票名稱。
func (s *StaticSource) LookupName(ticker string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stock, ok := s.stocks[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", false
	}
	return stock.Name, true
}
