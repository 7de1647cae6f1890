package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stock-alert/internal/infrastructure/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API、提醒排程及外部相依的執行設定。
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      logger.Config  `yaml:"log"`
	Alert    AlertConfig    `yaml:"alert"`
	Quote    QuoteConfig    `yaml:"quote"`
	Notifier NotifierConfig `yaml:"notifier"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `yaml:"token_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	Secret     string        `yaml:"secret"`
}

// AlertConfig 提醒排程設定。
type AlertConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	Concurrency   int           `yaml:"concurrency"`
	QuoteTimeout  time.Duration `yaml:"quote_timeout"`
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
	RecordPolicy  string        `yaml:"record_policy"` // always | on_delivery
	Timezone      string        `yaml:"timezone"`
	OnlyTracked   bool          `yaml:"only_tracked"`
}

// QuoteConfig 行情來源設定；provider 為 static 或 kis。
type QuoteConfig struct {
	Provider   string        `yaml:"provider"`
	KIS        KISConfig     `yaml:"kis"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	RedisAddr  string        `yaml:"redis_addr"`
	RedisPass  string        `yaml:"redis_password"`
	RedisDB    int           `yaml:"redis_db"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type KISConfig struct {
	AppKey    string `yaml:"app_key"`
	AppSecret string `yaml:"app_secret"`
	BaseURL   string `yaml:"base_url"`
}

type NotifierConfig struct {
	Email    EmailConfig    `yaml:"email"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// WebhookConfig provider: slack | generic | telegram。
type WebhookConfig struct {
	URL      string `yaml:"url"`
	Provider string `yaml:"provider"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	Prefix string `yaml:"prefix"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	cfg := Config{Alert: AlertConfig{Enabled: true}}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 檢查列舉型設定值。
func (c Config) Validate() error {
	switch c.Alert.RecordPolicy {
	case "always", "on_delivery":
	default:
		return fmt.Errorf("invalid alert.record_policy %q", c.Alert.RecordPolicy)
	}
	switch c.Quote.Provider {
	case "static", "kis":
	default:
		return fmt.Errorf("invalid quote.provider %q", c.Quote.Provider)
	}
	if c.Quote.Provider == "kis" && (c.Quote.KIS.AppKey == "" || c.Quote.KIS.AppSecret == "") {
		return fmt.Errorf("quote.kis app_key and app_secret are required")
	}
	if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
		return fmt.Errorf("invalid alert.timezone %q: %w", c.Alert.Timezone, err)
	}
	return nil
}

// WithDefaults 回傳補上預設值的設定，供未經 LoadFromFile 建立的 Config 使用。
func (c Config) WithDefaults() Config {
	return applyDefaults(c)
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 24 * time.Hour * 30
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Alert.Interval == 0 {
		cfg.Alert.Interval = 5 * time.Minute
	}
	if cfg.Alert.Concurrency == 0 {
		cfg.Alert.Concurrency = 4
	}
	if cfg.Alert.QuoteTimeout == 0 {
		cfg.Alert.QuoteTimeout = 5 * time.Second
	}
	if cfg.Alert.NotifyTimeout == 0 {
		cfg.Alert.NotifyTimeout = 10 * time.Second
	}
	if cfg.Alert.RecordPolicy == "" {
		cfg.Alert.RecordPolicy = "always"
	}
	if cfg.Alert.Timezone == "" {
		cfg.Alert.Timezone = "Asia/Seoul"
	}
	if cfg.Quote.Provider == "" {
		cfg.Quote.Provider = "static"
	}
	if cfg.Quote.RatePerSec == 0 {
		cfg.Quote.RatePerSec = 15
	}
	if cfg.Quote.CacheTTL == 0 {
		cfg.Quote.CacheTTL = 30 * time.Second
	}
	if cfg.Notifier.Webhook.Provider == "" {
		cfg.Notifier.Webhook.Provider = "slack"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("APP_ENV"); val != "" {
		cfg.Log.Env = val
	}
	if val := os.Getenv("ALERT_ENABLED"); val != "" {
		cfg.Alert.Enabled = (val == "true")
	}
	if val := os.Getenv("ALERT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Alert.Interval = d
		}
	}
	if val := os.Getenv("ALERT_RECORD_POLICY"); val != "" {
		cfg.Alert.RecordPolicy = val
	}
	if val := os.Getenv("QUOTE_PROVIDER"); val != "" {
		cfg.Quote.Provider = val
	}
	if val := os.Getenv("KIS_APP_KEY"); val != "" {
		cfg.Quote.KIS.AppKey = val
	}
	if val := os.Getenv("KIS_APP_SECRET"); val != "" {
		cfg.Quote.KIS.AppSecret = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Quote.RedisAddr = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		cfg.Notifier.Email.Host = val
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		cfg.Notifier.Email.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		cfg.Notifier.Email.Password = val
	}
	if val := os.Getenv("SLACK_WEBHOOK_URL"); val != "" {
		cfg.Notifier.Webhook.URL = val
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Notifier.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notifier.Telegram.ChatID = id
		}
	}
	return cfg
}
