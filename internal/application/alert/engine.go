package alert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"stock-alert/internal"
	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

// QuoteSource 取得單一股票、單一指標的最新觀察值。
type QuoteSource interface {
	Fetch(ctx context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error)
}

// Notifier 透過指定通道投遞訊息。
type Notifier interface {
	Dispatch(ctx context.Context, d alertDomain.Delivery) error
}

// WatchlistReader 提供所有使用者的關注清單。
type WatchlistReader interface {
	ListAll(ctx context.Context) ([]alertDomain.WatchlistEntry, error)
}

// Recorder 接收引擎執行指標。
type Recorder interface {
	ObserveCycle(status string, d time.Duration)
	AddTriggers(n int)
	QuoteFailed(kind string)
	Delivery(channel string, ok bool)
	SkippedTick()
}

// RecordPolicy 決定投遞全部失敗時是否仍記錄觸發。
type RecordPolicy string

const (
	// RecordAlways 條件命中即記錄，與投遞結果無關。
	RecordAlways RecordPolicy = "always"
	// RecordOnDelivery 至少一個通道投遞成功才記錄。
	RecordOnDelivery RecordPolicy = "on_delivery"
)

// EngineConfig 單輪執行參數。
type EngineConfig struct {
	Concurrency   int
	QuoteTimeout  time.Duration
	NotifyTimeout time.Duration
	RecordPolicy  RecordPolicy
	// OnlyTracked 為 true 時只評估列在擁有者關注清單中的股票。
	OnlyTracked bool
}

// CycleReport 單輪執行結果摘要。
type CycleReport struct {
	StartedAt        time.Time
	Duration         time.Duration
	Rules            int
	SkippedUntracked int
	QuotesRequested  int
	QuoteFailures    int
	Triggered        int
	Deliveries       int
	DeliveryFailures int
	Recorded         int
	RecordFailures   int
}

type quoteKey struct {
	ticker string
	kind   alertDomain.Kind
}

// Engine 執行一輪「取規則 → 取報價 → 評估 → 投遞」。
type Engine struct {
	store     Store
	quotes    QuoteSource
	notifier  Notifier
	watchlist WatchlistReader
	rec       Recorder
	log       *logger.Logger
	cfg       EngineConfig
	now       func() time.Time
}

// NewEngine 建立提醒引擎。
func NewEngine(store Store, quotes QuoteSource, notifier Notifier, cfg EngineConfig) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = 5 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.RecordPolicy == "" {
		cfg.RecordPolicy = RecordAlways
	}
	return &Engine{
		store:    store,
		quotes:   quotes,
		notifier: notifier,
		rec:      noopRecorder{},
		log:      logger.Get().With("component", "alert_engine"),
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithRecorder 設定指標收集器。
func (e *Engine) WithRecorder(rec Recorder) *Engine {
	if internal.IsNil(rec) {
		rec = noopRecorder{}
	}
	e.rec = rec
	return e
}

// WithWatchlist 設定關注清單來源，僅在 OnlyTracked 時使用。
func (e *Engine) WithWatchlist(w WatchlistReader) *Engine {
	if internal.IsNil(w) {
		w = nil
	}
	e.watchlist = w
	return e
}

// WithLogger 替換 logger。
func (e *Engine) WithLogger(l *logger.Logger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}

// RunCycle 執行一輪評估。儲存層無法讀取時整輪中止並回傳 ErrStoreUnavailable。
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	start := e.now()
	report := CycleReport{StartedAt: start}

	rules, err := e.store.ListActive(ctx, "")
	if err != nil {
		report.Duration = time.Since(start)
		e.rec.ObserveCycle("store_error", report.Duration)
		e.log.Errorw("list active rules failed, cycle aborted", "error", err)
		return report, fmt.Errorf("list active rules: %w: %w", alertDomain.ErrStoreUnavailable, err)
	}

	rules, err = e.filterTracked(ctx, rules, &report)
	if err != nil {
		report.Duration = time.Since(start)
		e.rec.ObserveCycle("store_error", report.Duration)
		e.log.Errorw("list watchlist failed, cycle aborted", "error", err)
		return report, fmt.Errorf("list watchlist: %w: %w", alertDomain.ErrStoreUnavailable, err)
	}
	report.Rules = len(rules)
	if len(rules) == 0 {
		report.Duration = time.Since(start)
		e.rec.ObserveCycle("ok", report.Duration)
		e.log.Debugw("no active rules")
		return report, nil
	}

	quotes := e.fetchQuotes(ctx, rules, &report)
	if err := ctx.Err(); err != nil {
		return e.canceled(report, start, err)
	}

	events := make([]alertDomain.TriggerEvent, 0)
	for _, r := range rules {
		q, ok := quotes[quoteKey{ticker: r.Ticker, kind: r.Kind}]
		if !ok {
			continue
		}
		if ev, hit := alertDomain.Evaluate(r, q.Value, start); hit {
			events = append(events, ev)
		}
	}
	report.Triggered = len(events)
	e.rec.AddTriggers(len(events))

	e.dispatchAll(ctx, events, &report)
	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return e.canceled(report, start, err)
	}

	e.rec.ObserveCycle("ok", report.Duration)
	e.log.Infow("alert cycle done",
		"rules", report.Rules,
		"quotes", report.QuotesRequested,
		"quote_failures", report.QuoteFailures,
		"triggered", report.Triggered,
		"deliveries", report.Deliveries,
		"delivery_failures", report.DeliveryFailures,
		"recorded", report.Recorded,
		"duration", report.Duration,
	)
	return report, nil
}

func (e *Engine) canceled(report CycleReport, start time.Time, err error) (CycleReport, error) {
	report.Duration = time.Since(start)
	e.rec.ObserveCycle("canceled", report.Duration)
	e.log.Warnw("alert cycle canceled", "error", err, "triggered", report.Triggered, "recorded", report.Recorded)
	return report, err
}

func (e *Engine) filterTracked(ctx context.Context, rules []alertDomain.Rule, report *CycleReport) ([]alertDomain.Rule, error) {
	active := make([]alertDomain.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	if !e.cfg.OnlyTracked || e.watchlist == nil || len(active) == 0 {
		return active, nil
	}
	entries, err := e.watchlist.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]struct{}, len(entries))
	for _, w := range entries {
		tracked[w.Owner+"|"+strings.ToUpper(w.Ticker)] = struct{}{}
	}
	out := active[:0]
	for _, r := range active {
		if _, ok := tracked[r.Owner+"|"+r.Ticker]; ok {
			out = append(out, r)
			continue
		}
		report.SkippedUntracked++
	}
	return out, nil
}

// fetchQuotes 對每個不同的 (ticker, kind) 只查一次；單檔失敗只影響該檔規則。
func (e *Engine) fetchQuotes(ctx context.Context, rules []alertDomain.Rule, report *CycleReport) map[quoteKey]alertDomain.Quote {
	keys := make([]quoteKey, 0)
	seen := make(map[quoteKey]struct{})
	for _, r := range rules {
		k := quoteKey{ticker: r.Ticker, kind: r.Kind}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	report.QuotesRequested = len(keys)

	var mu sync.Mutex
	out := make(map[quoteKey]alertDomain.Quote, len(keys))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for _, k := range keys {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			q, err := e.fetchOne(ctx, k)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.QuoteFailures++
				e.rec.QuoteFailed(string(k.kind))
				e.log.Warnw("quote unavailable, rules skipped this cycle", "ticker", k.ticker, "kind", k.kind, "error", err)
				return nil
			}
			out[k] = q
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) fetchOne(ctx context.Context, k quoteKey) (alertDomain.Quote, error) {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QuoteTimeout)
	defer cancel()
	q, err := e.quotes.Fetch(qctx, k.ticker, k.kind)
	if err != nil {
		if errors.Is(err, alertDomain.ErrQuoteUnavailable) {
			return alertDomain.Quote{}, err
		}
		return alertDomain.Quote{}, fmt.Errorf("%w: %w", alertDomain.ErrQuoteUnavailable, err)
	}
	if math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return alertDomain.Quote{}, fmt.Errorf("%w: non-finite value for %s/%s", alertDomain.ErrQuoteUnavailable, k.ticker, k.kind)
	}
	return q, nil
}

func (e *Engine) dispatchAll(ctx context.Context, events []alertDomain.TriggerEvent, report *CycleReport) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for _, ev := range events {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := e.dispatchOne(ctx, ev)
			mu.Lock()
			report.Deliveries += res.delivered + res.failed
			report.DeliveryFailures += res.failed
			if res.recorded {
				report.Recorded++
			}
			if res.recordErr {
				report.RecordFailures++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

type dispatchResult struct {
	delivered int
	failed    int
	recorded  bool
	recordErr bool
}

// dispatchOne 逐一通道投遞，無論嘗試幾個通道都只記錄一次觸發。
func (e *Engine) dispatchOne(ctx context.Context, ev alertDomain.TriggerEvent) dispatchResult {
	var res dispatchResult
	for _, d := range ev.Deliveries() {
		if ctx.Err() != nil {
			break
		}
		nctx, cancel := context.WithTimeout(ctx, e.cfg.NotifyTimeout)
		err := e.notifier.Dispatch(nctx, d)
		cancel()
		if err != nil {
			res.failed++
			e.rec.Delivery(string(d.Channel), false)
			e.log.Warnw("notify failed", "rule_id", ev.RuleID, "channel", d.Channel, "ticker", ev.Ticker, "error", err)
			continue
		}
		res.delivered++
		e.rec.Delivery(string(d.Channel), true)
	}

	if res.delivered == 0 && res.failed == 0 {
		// 尚未嘗試任何通道就被取消
		return res
	}
	if e.cfg.RecordPolicy == RecordOnDelivery && res.delivered == 0 {
		e.log.Infow("trigger not recorded, all channels failed", "rule_id", ev.RuleID)
		return res
	}

	// 通知已送出時即使正在關閉也要寫入紀錄，避免重啟後重複累計
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.NotifyTimeout)
	defer cancel()
	if err := e.store.RecordTrigger(rctx, ev.RuleID, ev.OccurredAt); err != nil {
		res.recordErr = true
		e.log.Errorw("record trigger failed, will re-evaluate next cycle", "rule_id", ev.RuleID, "error", err)
		return res
	}
	res.recorded = true
	return res
}

type noopRecorder struct{}

func (noopRecorder) ObserveCycle(string, time.Duration) {}
func (noopRecorder) AddTriggers(int)                    {}
func (noopRecorder) QuoteFailed(string)                 {}
func (noopRecorder) Delivery(string, bool)              {}
func (noopRecorder) SkippedTick()                       {}
