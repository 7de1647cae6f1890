package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	alertDomain "stock-alert/internal/domain/alert"
)

func newTestTelegram(t *testing.T, h http.HandlerFunc) *TelegramSender {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	s := NewTelegramSender("tok", 123, "ALERT")
	s.baseURL = ts.URL
	return s
}

func TestTelegramSender_Send(t *testing.T) {
	var got telegramMessage
	var path string
	s := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})

	err := s.Send(context.Background(), alertDomain.Delivery{
		Channel: alertDomain.ChannelWebhook,
		Subject: "[주식 알림] 삼성전자 주가 알림",
		Body:    "삼성전자(005930)의 주가가 80000 이상을 달성했습니다.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/bottok/sendMessage" {
		t.Fatalf("unexpected path %s", path)
	}
	if got.ChatID != 123 || !strings.HasPrefix(got.Text, "[ALERT] [주식 알림]") || !strings.Contains(got.Text, "005930") {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestTelegramSender_Errors(t *testing.T) {
	d := alertDomain.Delivery{Channel: alertDomain.ChannelWebhook, Body: "hello"}

	t.Run("missing_config", func(t *testing.T) {
		err := NewTelegramSender("", 0, "").Send(context.Background(), d)
		if err == nil || !strings.Contains(err.Error(), "chat_id missing") {
			t.Errorf("expected missing config error, got %v", err)
		}
	})

	t.Run("not_ok_with_200", func(t *testing.T) {
		s := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		})
		err := s.Send(context.Background(), d)
		if err == nil || !strings.Contains(err.Error(), "chat not found") {
			t.Errorf("expected api error, got %v", err)
		}
	})

	t.Run("rate_limited", func(t *testing.T) {
		s := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"parameters":{"retry_after":7}}`))
		})
		err := s.Send(context.Background(), d)
		if err == nil || !strings.Contains(err.Error(), "retry after 7s") {
			t.Errorf("expected rate limit error, got %v", err)
		}
	})

	t.Run("token_not_leaked", func(t *testing.T) {
		s := NewTelegramSender("secret-token", 1, "")
		s.baseURL = "http://127.0.0.1:1"
		err := s.Send(context.Background(), d)
		if err == nil || strings.Contains(err.Error(), "secret-token") {
			t.Errorf("expected transport error without token, got %v", err)
		}
	})
}
