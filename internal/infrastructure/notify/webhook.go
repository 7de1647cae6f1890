package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
)

const (
	ProviderSlack    = "slack"
	ProviderGeneric  = "generic"
	ProviderTelegram = "telegram"
)

// WebhookSender 以 JSON POST 推送到聊天室 webhook。
type WebhookSender struct {
	url        string
	provider   string
	httpClient *http.Client
}

func NewWebhookSender(url, provider string) *WebhookSender {
	if provider == "" {
		provider = ProviderSlack
	}
	return &WebhookSender{
		url:      url,
		provider: provider,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *WebhookSender) payload(d alertDomain.Delivery) map[string]interface{} {
	if s.provider == ProviderGeneric {
		return map[string]interface{}{
			"subject":   d.Subject,
			"text":      d.Body,
			"recipient": d.Recipient,
		}
	}
	// slack incoming webhook 只需要 text
	return map[string]interface{}{"text": d.Body}
}

func (s *WebhookSender) Send(ctx context.Context, d alertDomain.Delivery) error {
	if s.url == "" {
		return fmt.Errorf("webhook url missing")
	}
	body, _ := json.Marshal(s.payload(d))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook send failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
