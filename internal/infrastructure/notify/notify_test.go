package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infrastructure/logger"
)

type captureSender struct {
	calls atomic.Int32
	err   error
}

func (c *captureSender) Send(_ context.Context, _ alertDomain.Delivery) error {
	c.calls.Add(1)
	return c.err
}

func emailDelivery() alertDomain.Delivery {
	return alertDomain.Delivery{
		Channel:   alertDomain.ChannelEmail,
		Recipient: "user@example.com",
		Subject:   "[주식 알림] 삼성전자 주가 알림",
		Body:      "삼성전자(005930)의 주가가 80000 이상을 달성했습니다.",
	}
}

func TestRouter_Dispatch(t *testing.T) {
	email := &captureSender{}
	webhook := &captureSender{err: errors.New("boom")}
	r := NewRouter(email, webhook)
	ctx := context.Background()

	if err := r.Dispatch(ctx, emailDelivery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.calls.Load() != 1 {
		t.Fatalf("email sender not called")
	}

	wd := emailDelivery()
	wd.Channel = alertDomain.ChannelWebhook
	if err := r.Dispatch(ctx, wd); !errors.Is(err, alertDomain.ErrNotifyFailed) {
		t.Fatalf("expected ErrNotifyFailed, got %v", err)
	}

	bad := emailDelivery()
	bad.Subject = ""
	if err := r.Dispatch(ctx, bad); !errors.Is(err, alertDomain.ErrNotifyFailed) {
		t.Fatalf("expected validation failure wrapped in ErrNotifyFailed, got %v", err)
	}
	if email.calls.Load() != 1 {
		t.Fatalf("invalid delivery must not reach the sender")
	}
}

func TestRouter_UnconfiguredChannel(t *testing.T) {
	var nilWebhook *WebhookSender
	r := NewRouter(&captureSender{}, nilWebhook)
	d := emailDelivery()
	d.Channel = alertDomain.ChannelWebhook
	err := r.Dispatch(context.Background(), d)
	if !errors.Is(err, alertDomain.ErrNotifyFailed) || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestEmailSender_Send(t *testing.T) {
	s := NewEmailSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"})
	s.now = func() time.Time { return time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	if err := s.Send(context.Background(), emailDelivery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != defaultFrom {
		t.Fatalf("unexpected envelope addr=%s from=%s", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: =?UTF-8?b?") {
		t.Fatalf("subject should be MIME encoded: %s", gotMsg)
	}
	if !strings.Contains(gotMsg, "005930") || !strings.Contains(gotMsg, "80000") {
		t.Fatalf("body missing from message: %s", gotMsg)
	}
}

func TestEmailSender_ContextTimeout(t *testing.T) {
	s := NewEmailSender(SMTPConfig{Host: "smtp.example.com"})
	release := make(chan struct{})
	defer close(release)
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Send(ctx, emailDelivery()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLogSender(t *testing.T) {
	s := &LogSender{log: logger.Nop()}
	if err := s.Send(context.Background(), emailDelivery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWebhookSender(t *testing.T) {
	var got map[string]interface{}
	status := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = nil
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer ts.Close()

	d := emailDelivery()
	d.Channel = alertDomain.ChannelWebhook

	slack := NewWebhookSender(ts.URL, "")
	if err := slack.Send(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["text"] != d.Body || len(got) != 1 {
		t.Fatalf("unexpected slack payload: %v", got)
	}

	generic := NewWebhookSender(ts.URL, ProviderGeneric)
	if err := generic.Send(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["subject"] != d.Subject {
		t.Fatalf("unexpected generic payload: %v", got)
	}

	status = http.StatusInternalServerError
	if err := slack.Send(context.Background(), d); err == nil {
		t.Fatal("expected error for 500 status")
	}

	if err := NewWebhookSender("", "").Send(context.Background(), d); err == nil {
		t.Fatal("expected error for missing url")
	}
}
