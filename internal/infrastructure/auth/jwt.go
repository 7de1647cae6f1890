package authinfra

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-alert/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "stock-alert"

// JWTIssuer 簽發 HS256 access token，refresh token 存在 SessionStore。
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   auth.SessionStore
	users      UserFinder
	now        func() time.Time
}

// NewJWTIssuer 建立 JWT 簽發器。
func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration, sessions auth.SessionStore, users UserFinder) *JWTIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessions:   sessions,
		users:      users,
		now:        time.Now,
	}
}

// Claims access token 的 payload；Email 即提醒規則的擁有者。
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserFinder 換發 token 時重新讀取使用者狀態。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (auth.User, error)
}

// Issue 產生 access/refresh token 並儲存 session。
func (j *JWTIssuer) Issue(ctx context.Context, user auth.User, meta auth.TokenMeta) (auth.TokenPair, error) {
	return j.issueWithSession(ctx, user, meta)
}

// Refresh 驗證 refresh token 後輪替 session。
func (j *JWTIssuer) Refresh(ctx context.Context, token string) (auth.TokenPair, error) {
	if strings.TrimSpace(token) == "" {
		return auth.TokenPair{}, errors.New("refresh token required")
	}
	if j.sessions == nil || j.users == nil {
		return auth.TokenPair{}, errors.New("session store not configured")
	}

	sess, err := j.sessions.GetSession(ctx, token)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("get session: %w", err)
	}
	if !sess.Active(j.now()) {
		return auth.TokenPair{}, errors.New("session expired or revoked")
	}
	if err := j.sessions.RevokeSession(ctx, token); err != nil {
		return auth.TokenPair{}, fmt.Errorf("revoke session: %w", err)
	}

	user, err := j.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return auth.TokenPair{}, auth.ErrUserDisabled
	}
	return j.issueWithSession(ctx, user, auth.TokenMeta{UserAgent: sess.UserAgent, IP: sess.IPAddress})
}

// RevokeRefresh 作廢 refresh token；沒有 session store 時忽略。
func (j *JWTIssuer) RevokeRefresh(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" || j.sessions == nil {
		return nil
	}
	return j.sessions.RevokeSession(ctx, token)
}

// ParseAccessToken 驗證簽章與期限並回傳 claims。
func (j *JWTIssuer) ParseAccessToken(token string) (Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(issuerName), jwt.WithTimeFunc(j.now))
	if err != nil {
		return Claims{}, err
	}
	if !tkn.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

func (j *JWTIssuer) issueWithSession(ctx context.Context, user auth.User, meta auth.TokenMeta) (auth.TokenPair, error) {
	now := j.now()
	accessExp := now.Add(j.accessTTL)
	refreshExp := now.Add(j.refreshTTL)
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(accessExp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return auth.TokenPair{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return auth.TokenPair{}, err
	}
	if j.sessions != nil {
		if err := j.sessions.SaveSession(ctx, auth.Session{
			Token:     refreshToken,
			UserID:    user.ID,
			ExpiresAt: refreshExp,
			UserAgent: meta.UserAgent,
			IPAddress: meta.IP,
			CreatedAt: now,
		}); err != nil {
			return auth.TokenPair{}, err
		}
	}

	return auth.TokenPair{
		AccessToken:   signed,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
