package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

func TestStaticSource(t *testing.T) {
	s := NewStaticSource()
	ctx := context.Background()

	q, err := s.Fetch(ctx, "005930", alertDomain.KindPrice)
	if err != nil || q.Value != 75000 {
		t.Fatalf("unexpected price: %+v err=%v", q, err)
	}
	q, err = s.Fetch(ctx, "aapl", alertDomain.KindVolume)
	if err != nil || q.Value != 55000000 {
		t.Fatalf("unexpected volume: %+v err=%v", q, err)
	}
	if _, err := s.Fetch(ctx, "005930", alertDomain.KindRSI); !errors.Is(err, alertDomain.ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable for rsi without override, got %v", err)
	}
	if _, err := s.Fetch(ctx, "UNKNOWN", alertDomain.KindPrice); !errors.Is(err, alertDomain.ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
	}

	s.Set("005930", alertDomain.KindPrice, 81000)
	s.Set("005930", alertDomain.KindRSI, 28.5)
	if q, _ := s.Fetch(ctx, "005930", alertDomain.KindPrice); q.Value != 81000 {
		t.Fatalf("override not applied: %v", q.Value)
	}
	if q, _ := s.Fetch(ctx, "005930", alertDomain.KindRSI); q.Value != 28.5 {
		t.Fatalf("rsi override not applied: %v", q.Value)
	}

	if name, ok := s.LookupName("005930"); !ok || name != "삼성전자" {
		t.Fatalf("unexpected name lookup: %q %v", name, ok)
	}
}

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttl     map[string]time.Duration
	readErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return redis.NewStringResult("", f.readErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	calls int
	value float64
	err   error
}

func (c *countingSource) Fetch(_ context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error) {
	c.calls++
	if c.err != nil {
		return alertDomain.Quote{}, c.err
	}
	return alertDomain.Quote{Ticker: ticker, Kind: kind, Value: c.value}, nil
}

func TestCachedSource_HitMiss(t *testing.T) {
	upstream := &countingSource{value: 81000}
	rdb := newFakeRedis()
	cs := NewCachedSource(upstream, rdb, time.Minute)
	cs.log = logger.Nop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := cs.Fetch(ctx, "005930", alertDomain.KindPrice)
		if err != nil || q.Value != 81000 {
			t.Fatalf("unexpected quote: %+v err=%v", q, err)
		}
	}
	if upstream.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", upstream.calls)
	}
	if rdb.ttl[cacheKey("005930", alertDomain.KindPrice)] != time.Minute {
		t.Fatalf("expected ttl to be applied")
	}
}

func TestCachedSource_FallsThroughOnRedisError(t *testing.T) {
	upstream := &countingSource{value: 10}
	rdb := newFakeRedis()
	rdb.readErr = errors.New("connection refused")
	cs := NewCachedSource(upstream, rdb, time.Minute)
	cs.log = logger.Nop()

	q, err := cs.Fetch(context.Background(), "AAPL", alertDomain.KindPrice)
	if err != nil || q.Value != 10 {
		t.Fatalf("expected upstream value, got %+v err=%v", q, err)
	}

	upstream.err = alertDomain.ErrQuoteUnavailable
	if _, err := cs.Fetch(context.Background(), "AAPL", alertDomain.KindPrice); !errors.Is(err, alertDomain.ErrQuoteUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
