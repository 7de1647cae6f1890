package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-alert/internal/domain/auth"
)

// UserRepository 存取使用者。
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (auth.User, error)
	FindByID(ctx context.Context, id string) (auth.User, error)
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// TokenIssuer 簽發/輪替/作廢 token。
type TokenIssuer interface {
	Issue(ctx context.Context, user auth.User, meta auth.TokenMeta) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	RevokeRefresh(ctx context.Context, refreshToken string) error
}

// Permission 表示功能權限。
type Permission string

const (
	PermAlertWrite     Permission = "alerts:write"
	PermWatchlistWrite Permission = "watchlist:write"
	PermAlertRun       Permission = "alerts:run"
	PermSystemHealth   Permission = "system:health"
)

// RolePermissions 角色權限表。
var RolePermissions = map[auth.Role][]Permission{
	auth.RoleAdmin: {
		PermAlertWrite,
		PermWatchlistWrite,
		PermAlertRun,
		PermSystemHealth,
	},
	auth.RoleUser: {
		PermAlertWrite,
		PermWatchlistWrite,
	},
	auth.RoleService: {
		PermAlertRun,
		PermSystemHealth,
	},
}

// HasPermission 檢查角色是否具備權限。
func HasPermission(role auth.Role, perm Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// LoginUseCase 驗證帳密並簽發 token。
type LoginUseCase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewLoginUseCase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *LoginUseCase {
	return &LoginUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

type LoginResult struct {
	User  auth.User
	Token auth.TokenPair
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return out, fmt.Errorf("%w: email and password required", auth.ErrInvalidCredentials)
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return out, auth.ErrInvalidCredentials
		}
		return out, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return out, auth.ErrUserDisabled
	}
	if !uc.hasher.Compare(user.Password, input.Password) {
		return out, auth.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(ctx, user, auth.TokenMeta{UserAgent: input.UserAgent, IP: input.IP})
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	out.User = user
	out.Token = token
	return out, nil
}

// RefreshUseCase 以 refresh token 換發新 token。
type RefreshUseCase struct {
	tokens TokenIssuer
}

func NewRefreshUseCase(tokens TokenIssuer) *RefreshUseCase {
	return &RefreshUseCase{tokens: tokens}
}

func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.TokenPair{}, errors.New("refresh token required")
	}
	return uc.tokens.Refresh(ctx, refreshToken)
}

// LogoutUseCase 作廢 refresh token。
type LogoutUseCase struct {
	tokens TokenIssuer
}

func NewLogoutUseCase(tokens TokenIssuer) *LogoutUseCase {
	return &LogoutUseCase{tokens: tokens}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errors.New("refresh token required")
	}
	return uc.tokens.RevokeRefresh(ctx, refreshToken)
}
