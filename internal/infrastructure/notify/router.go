package notify

import (
	"context"
	"fmt"

	"stock-alert/internal"
	alertDomain "stock-alert/internal/domain/alert"
)

// Sender 單一通道的實際投遞實作。
type Sender interface {
	Send(ctx context.Context, d alertDomain.Delivery) error
}

// Router 依 Delivery.Channel 將投遞請求分派給對應的 Sender。
type Router struct {
	email   Sender
	webhook Sender
}

func NewRouter(email, webhook Sender) *Router {
	r := &Router{}
	if !internal.IsNil(email) {
		r.email = email
	}
	if !internal.IsNil(webhook) {
		r.webhook = webhook
	}
	return r
}

// Dispatch 驗證後投遞；所有失敗都包裝 ErrNotifyFailed。
func (r *Router) Dispatch(ctx context.Context, d alertDomain.Delivery) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", alertDomain.ErrNotifyFailed, err)
	}
	var sender Sender
	switch d.Channel {
	case alertDomain.ChannelEmail:
		sender = r.email
	case alertDomain.ChannelWebhook:
		sender = r.webhook
	}
	if sender == nil {
		return fmt.Errorf("%w: channel %s not configured", alertDomain.ErrNotifyFailed, d.Channel)
	}
	if err := sender.Send(ctx, d); err != nil {
		return fmt.Errorf("%w: %s: %v", alertDomain.ErrNotifyFailed, d.Channel, err)
	}
	return nil
}
