package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// Source 與 alert 應用層的 QuoteSource 相同簽名。
type Source interface {
	Fetch(ctx context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error)
}

// RedisCmdable CachedSource 需要的 redis 指令子集，*redis.Client 即滿足。
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient 建立 redis 連線並 ping 確認。
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// CachedSource 在 redis 中快取報價，多個實例共用同一份，快取失效或出錯時直接查上游。
type CachedSource struct {
	next  Source
	rdb   RedisCmdable
	ttl   time.Duration
	log   *logger.Logger
	clock func() time.Time
}

func NewCachedSource(next Source, rdb RedisCmdable, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedSource{
		next:  next,
		rdb:   rdb,
		ttl:   ttl,
		log:   logger.Get().With("component", "quote_cache"),
		clock: time.Now,
	}
}

type cachedQuote struct {
	Value float64   `json:"v"`
	AsOf  time.Time `json:"t"`
}

func cacheKey(ticker string, kind alertDomain.Kind) string {
	return "stock-alert:quote:" + ticker + ":" + string(kind)
}

func (c *CachedSource) Fetch(ctx context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error) {
	key := cacheKey(ticker, kind)
	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cq cachedQuote
		if jerr := json.Unmarshal([]byte(raw), &cq); jerr == nil {
			return alertDomain.Quote{Ticker: ticker, Kind: kind, Value: cq.Value, AsOf: cq.AsOf}, nil
		}
		c.log.Warnw("corrupt cached quote ignored", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnw("quote cache read failed", "key", key, "error", err)
	}

	q, err := c.next.Fetch(ctx, ticker, kind)
	if err != nil {
		return alertDomain.Quote{}, err
	}
	if q.AsOf.IsZero() {
		q.AsOf = c.clock()
	}
	data, _ := json.Marshal(cachedQuote{Value: q.Value, AsOf: q.AsOf})
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warnw("quote cache write failed", "key", key, "error", err)
	}
	return q, nil
}
