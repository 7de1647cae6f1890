package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.TokenTTL.Minutes() != 30 {
		t.Errorf("expected 30m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Alert.Interval != 5*time.Minute || cfg.Alert.RecordPolicy != "always" || cfg.Alert.Timezone != "Asia/Seoul" {
		t.Errorf("unexpected alert defaults: %+v", cfg.Alert)
	}
	if cfg.Quote.Provider != "static" {
		t.Errorf("expected static provider, got %s", cfg.Quote.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALERT_INTERVAL", "30s")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
	if cfg.Alert.Interval != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.Alert.Interval)
	}
	if cfg.Notifier.Telegram.ChatID != 42 {
		t.Errorf("expected chat id 42, got %d", cfg.Notifier.Telegram.ChatID)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
alert:
  interval: 1m
  record_policy: on_delivery
  only_tracked: true
quote:
  provider: static
  cache_ttl: 10s
notifier:
  webhook:
    url: https://hooks.slack.com/services/x
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Alert.Interval != time.Minute || cfg.Alert.RecordPolicy != "on_delivery" || !cfg.Alert.OnlyTracked {
		t.Errorf("unexpected alert config: %+v", cfg.Alert)
	}
	if !cfg.Alert.Enabled {
		t.Errorf("alert worker should be enabled unless disabled explicitly")
	}
	if cfg.Quote.CacheTTL != 10*time.Second {
		t.Errorf("expected 10s cache ttl, got %v", cfg.Quote.CacheTTL)
	}
	if cfg.Notifier.Webhook.Provider != "slack" {
		t.Errorf("expected slack default provider, got %s", cfg.Notifier.Webhook.Provider)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.HTTP.Addr == "" {
		t.Errorf("expected defaults applied")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := applyDefaults(Config{})

	bad := base
	bad.Alert.RecordPolicy = "sometimes"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for record policy")
	}

	bad = base
	bad.Quote.Provider = "kis"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for kis without credentials")
	}

	bad = base
	bad.Alert.Timezone = "Mars/Olympus"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
