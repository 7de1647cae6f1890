package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	alertDomain "stock-alert/internal/domain/alert"
	"stock-alert/internal/infrastructure/logger"
)

const defaultFrom = "noreply@stockalert.com"

// SMTPConfig 寄信伺服器設定；Host 為空時改用 LogSender。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender 透過 SMTP 寄送純文字提醒信。
type EmailSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

func NewEmailSender(cfg SMTPConfig) *EmailSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	return &EmailSender{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (s *EmailSender) Send(ctx context.Context, d alertDomain.Delivery) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	msg := s.buildMessage(d)

	// net/smtp 不支援 context，另開 goroutine 以便逾時返回
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.cfg.From, []string{d.Recipient}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", d.Recipient, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EmailSender) buildMessage(d alertDomain.Delivery) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.cfg.From + "\r\n")
	b.WriteString("To: " + d.Recipient + "\r\n")
	b.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", d.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(d.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogSender 未設定 SMTP 時僅記錄信件內容。
type LogSender struct {
	log *logger.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: logger.Get().With("component", "email_simulation")}
}

func (s *LogSender) Send(_ context.Context, d alertDomain.Delivery) error {
	s.log.Infow("email delivery simulated", "to", d.Recipient, "subject", d.Subject)
	return nil
}
