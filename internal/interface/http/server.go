package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	alertapp "stock-alert/internal/application/alert"
	"stock-alert/internal/application/auth"
	"stock-alert/internal/application/watchlist"
	authDomain "stock-alert/internal/domain/auth"
	"stock-alert/internal/infra/memory"
	authinfra "stock-alert/internal/infrastructure/auth"
	"stock-alert/internal/infrastructure/config"
	"stock-alert/internal/infrastructure/external/kis"
	"stock-alert/internal/infrastructure/logger"
	"stock-alert/internal/infrastructure/metrics"
	"stock-alert/internal/infrastructure/notify"
	"stock-alert/internal/infrastructure/persistence/postgres"
	"stock-alert/internal/infrastructure/quote"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	seedTimeout = 5 * time.Second
	// redis 連不上時不阻擋啟動
	redisDialTimeout = 3 * time.Second
)

// authBackend 帳號與 session 儲存，memory.Store 與 postgres.AuthRepo 皆實作。
type authBackend interface {
	auth.UserRepository
	authDomain.SessionStore
}

// watchlistStore 同時滿足關注清單管理與引擎讀取。
type watchlistStore interface {
	watchlist.Store
	alertapp.WatchlistReader
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	cfg       config.Config
	router    *gin.Engine
	db        *sql.DB
	log       *logger.Logger
	authRepo  auth.UserRepository
	tokenSvc  *authinfra.JWTIssuer
	loginUC   *auth.LoginUseCase
	refreshUC *auth.RefreshUseCase
	logoutUC  *auth.LogoutUseCase
	alerts    *alertapp.Service
	watchlist *watchlist.Service
	engine    *alertapp.Engine
	worker    *alertapp.Worker
	metrics   *metrics.Collector
	static    *quote.StaticSource
	redis     *redis.Client
}

// NewServer 建立 API 伺服器；db 為 nil 時使用記憶體儲存。
func NewServer(cfg config.Config, db *sql.DB) *Server {
	cfg = cfg.WithDefaults()
	log := logger.Get().With("component", "http")

	loc, err := time.LoadLocation(cfg.Alert.Timezone)
	if err != nil {
		log.Warnw("unknown timezone, falling back to UTC", "timezone", cfg.Alert.Timezone, "error", err)
		loc = time.UTC
	}

	var (
		backend   authBackend
		alertRepo alertapp.Store
		watchRepo watchlistStore
	)
	if db != nil {
		pg := postgres.NewAuthRepo(db)
		backend = pg
		alertRepo = postgres.NewAlertRepo(db, loc)
		watchRepo = postgres.NewWatchlistRepo(db)
		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		if err := seedAuth(ctx, pg); err != nil {
			log.Warnw("seed auth failed", "error", err)
		}
	} else {
		store := memory.NewStore()
		if err := store.SeedUsers(); err != nil {
			log.Warnw("seed memory users failed", "error", err)
		}
		backend = store
		alertRepo = memory.NewAlertRepo(loc)
		watchRepo = memory.NewWatchlistRepo()
	}

	tokenSvc := authinfra.NewJWTIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.RefreshTTL, backend, backend)
	static := quote.NewStaticSource()
	collector := metrics.NewCollector()

	s := &Server{
		cfg:       cfg,
		db:        db,
		log:       log,
		authRepo:  backend,
		tokenSvc:  tokenSvc,
		loginUC:   auth.NewLoginUseCase(backend, authinfra.BcryptHasher{}, tokenSvc),
		refreshUC: auth.NewRefreshUseCase(tokenSvc),
		logoutUC:  auth.NewLogoutUseCase(tokenSvc),
		alerts:    alertapp.NewService(alertRepo, static),
		watchlist: watchlist.NewService(watchRepo, static),
		metrics:   collector,
		static:    static,
	}

	s.engine = alertapp.NewEngine(alertRepo, s.buildQuoteSource(), s.buildNotifier(), alertapp.EngineConfig{
		Concurrency:   cfg.Alert.Concurrency,
		QuoteTimeout:  cfg.Alert.QuoteTimeout,
		NotifyTimeout: cfg.Alert.NotifyTimeout,
		RecordPolicy:  alertapp.RecordPolicy(cfg.Alert.RecordPolicy),
		OnlyTracked:   cfg.Alert.OnlyTracked,
	}).WithRecorder(collector).WithWatchlist(watchRepo)
	s.worker = alertapp.NewWorker(s.engine, cfg.Alert.Interval)

	s.registerRoutes()
	return s
}

// buildQuoteSource 依 quote.provider 選擇行情來源，設定 redis 時外包快取。
func (s *Server) buildQuoteSource() alertapp.QuoteSource {
	var src quote.Source = s.static
	if s.cfg.Quote.Provider == "kis" {
		k := s.cfg.Quote.KIS
		src = kis.NewSource(kis.NewClient(k.AppKey, k.AppSecret, k.BaseURL, s.cfg.Quote.RatePerSec))
	}
	if s.cfg.Quote.RedisAddr == "" {
		return src
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	rdb, err := quote.NewRedisClient(ctx, s.cfg.Quote.RedisAddr, s.cfg.Quote.RedisPass, s.cfg.Quote.RedisDB)
	if err != nil {
		s.log.Warnw("redis unavailable, quote cache disabled", "error", err)
		return src
	}
	s.redis = rdb
	return quote.NewCachedSource(src, rdb, s.cfg.Quote.CacheTTL)
}

// buildNotifier 未設定 SMTP 時以 log 模擬寄信；webhook 依 provider 選擇實作。
func (s *Server) buildNotifier() alertapp.Notifier {
	n := s.cfg.Notifier
	var email notify.Sender
	if n.Email.Host != "" {
		email = notify.NewEmailSender(notify.SMTPConfig{
			Host:     n.Email.Host,
			Port:     n.Email.Port,
			Username: n.Email.Username,
			Password: n.Email.Password,
			From:     n.Email.From,
		})
	} else {
		email = notify.NewLogSender()
	}

	var webhook notify.Sender
	switch {
	case n.Webhook.Provider == notify.ProviderTelegram && n.Telegram.Token != "" && n.Telegram.ChatID != 0:
		webhook = notify.NewTelegramSender(n.Telegram.Token, n.Telegram.ChatID, n.Telegram.Prefix)
	case n.Webhook.URL != "":
		webhook = notify.NewWebhookSender(n.Webhook.URL, n.Webhook.Provider)
	default:
		s.log.Warnw("webhook channel not configured; webhook deliveries will fail")
	}
	return notify.NewRouter(email, webhook)
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.router
}

// StaticQuotes 主要用於測試注入行情。
func (s *Server) StaticQuotes() *quote.StaticSource {
	return s.static
}

// Worker 回傳背景提醒排程。
func (s *Server) Worker() *alertapp.Worker {
	return s.worker
}

// Start 依設定啟動背景提醒排程。
func (s *Server) Start(ctx context.Context) {
	if !s.cfg.Alert.Enabled {
		s.log.Infow("alert worker disabled by config")
		return
	}
	s.worker.Start(ctx)
}

// Close 停止排程並釋放外部連線。
func (s *Server) Close() {
	s.worker.Stop()
	if s.redis != nil {
		_ = s.redis.Close()
	}
}
