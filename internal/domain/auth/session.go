package auth

import (
	"context"
	"time"
)

// TokenPair 登入後回傳的 access/refresh token。
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// Session 對應一個 refresh token。
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent string
	IPAddress string
	CreatedAt time.Time
}

// Active 未過期且未撤銷。
func (s Session) Active(now time.Time) bool {
	if !s.ExpiresAt.After(now) {
		return false
	}
	return s.RevokedAt == nil || s.RevokedAt.IsZero()
}

// SessionStore refresh token 的儲存介面。
type SessionStore interface {
	SaveSession(ctx context.Context, sess Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string) error
}

// TokenMeta 簽發時一併記錄的用戶端資訊。
type TokenMeta struct {
	UserAgent string
	IP        string
}
