package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
)

const telegramAPI = "https://api.telegram.org"

// TelegramSender 透過 Bot API sendMessage 推送提醒，作為 webhook 通道的實作之一。
type TelegramSender struct {
	token      string
	chatID     int64
	prefix     string
	baseURL    string
	httpClient *http.Client
}

func NewTelegramSender(token string, chatID int64, prefix string) *TelegramSender {
	return &TelegramSender{
		token:      token,
		chatID:     chatID,
		prefix:     prefix,
		baseURL:    telegramAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// telegramReply Bot API 回應；HTTP 200 也可能 ok=false。
type telegramReply struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send 以主旨加內文的形式推送。
func (t *TelegramSender) Send(ctx context.Context, d alertDomain.Delivery) error {
	if t.token == "" || t.chatID == 0 {
		return errors.New("telegram token or chat_id missing")
	}
	text := d.Body
	if d.Subject != "" {
		text = d.Subject + "\n" + d.Body
	}
	if t.prefix != "" {
		text = "[" + t.prefix + "] " + text
	}

	payload, err := json.Marshal(telegramMessage{ChatID: t.chatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// url 含 bot token，不放進錯誤訊息
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var reply telegramReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("telegram status %d: decode reply: %w", resp.StatusCode, err)
	}
	if !reply.OK {
		if reply.Parameters.RetryAfter > 0 {
			return fmt.Errorf("telegram rate limited, retry after %ds", reply.Parameters.RetryAfter)
		}
		return fmt.Errorf("telegram error %d: %s", reply.ErrorCode, reply.Description)
	}
	return nil
}
