package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-alert/internal/infrastructure/logger"
)

// ErrCycleInProgress 已有一輪評估正在執行。
var ErrCycleInProgress = errors.New("alert cycle already in progress")

// Worker 定期執行提醒評估；前一輪尚未完成時跳過該次 tick。
type Worker struct {
	engine   *Engine
	interval time.Duration
	log      *logger.Logger

	running sync.Mutex

	lastMu  sync.RWMutex
	last    CycleReport
	lastErr error
	runs    int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inflight context.CancelFunc
}

// NewWorker 建立背景工作者。
func NewWorker(engine *Engine, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Worker{
		engine:   engine,
		interval: interval,
		log:      logger.Get().With("component", "alert_worker"),
	}
}

// Start 啟動迴圈，啟動後立即執行一次。重複呼叫不會啟動第二個迴圈。
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.log.Infow("starting alert worker", "interval", w.interval)
	go w.loop(ctx, w.done)
}

// Stop 取消進行中的評估（包含 RunNow 觸發的手動評估），並等待迴圈與該輪結束。
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	w.mu.Lock()
	inflight := w.inflight
	w.mu.Unlock()
	if inflight != nil {
		inflight()
	}
	w.running.Lock()
	w.running.Unlock()

	if cancel != nil || inflight != nil {
		w.log.Infow("alert worker stopped")
	}
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx, ticker)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx, ticker)
		}
	}
}

func (w *Worker) tick(ctx context.Context, ticker *time.Ticker) {
	if _, err := w.RunNow(ctx); errors.Is(err, ErrCycleInProgress) {
		w.engine.rec.SkippedTick()
		w.log.Warnw("previous cycle still running, tick skipped")
		return
	}
	// 執行期間累積的 tick 直接丟棄
	select {
	case <-ticker.C:
		w.engine.rec.SkippedTick()
		w.log.Warnw("cycle overran interval, tick skipped", "interval", w.interval)
	default:
	}
}

// RunNow 立即執行一輪；若已有評估在跑則回傳 ErrCycleInProgress。
func (w *Worker) RunNow(ctx context.Context) (report CycleReport, err error) {
	ctx, cancel := context.WithCancel(ctx)
	// 取得執行權與登記 inflight 在同一把鎖內，Stop 才不會漏掉剛開始的評估
	w.mu.Lock()
	if !w.running.TryLock() {
		w.mu.Unlock()
		cancel()
		return CycleReport{}, ErrCycleInProgress
	}
	w.inflight = cancel
	w.mu.Unlock()
	defer w.running.Unlock()
	defer func() {
		w.mu.Lock()
		w.inflight = nil
		w.mu.Unlock()
		cancel()
	}()

	defer func() {
		if r := recover(); r != nil {
			w.log.Errorw("alert cycle panicked", "panic", r)
			err = fmt.Errorf("alert cycle panicked: %v", r)
		}
		w.lastMu.Lock()
		w.last, w.lastErr = report, err
		w.runs++
		w.lastMu.Unlock()
	}()
	return w.engine.RunCycle(ctx)
}

// Status 最近一輪的結果與累計執行次數；尚未執行時 runs 為 0。
func (w *Worker) Status() (last CycleReport, lastErr error, runs int) {
	w.lastMu.RLock()
	defer w.lastMu.RUnlock()
	return w.last, w.lastErr, w.runs
}
