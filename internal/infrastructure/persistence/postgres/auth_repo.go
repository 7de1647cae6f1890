package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authDomain "stock-alert/internal/domain/auth"
	authinfra "stock-alert/internal/infrastructure/auth"
)

// AuthRepo 提供使用者與 refresh session 的存取。
type AuthRepo struct {
	db *sql.DB
}

// NewAuthRepo 建立 AuthRepo。
func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{db: db}
}

const userColumns = `id, email, display_name, password_hash, role, status`

// FindByEmail 依 email 查詢使用者。
func (r *AuthRepo) FindByEmail(ctx context.Context, email string) (authDomain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1;`
	return r.scanUser(r.db.QueryRowContext(ctx, q, email))
}

// FindByID 依 ID 查詢使用者。
func (r *AuthRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1;`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *AuthRepo) scanUser(row *sql.Row) (authDomain.User, error) {
	var u authDomain.User
	var role, status string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &role, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.User{}, authDomain.ErrUserNotFound
		}
		return authDomain.User{}, err
	}
	u.Role = authDomain.Role(role)
	u.Status = authDomain.Status(status)
	return u, nil
}

// SeedDefaults 建立預設帳號（admin/user），密碼皆為 password123。
func (r *AuthRepo) SeedDefaults(ctx context.Context) error {
	hash, err := authinfra.HashPassword("password123")
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO users (email, display_name, password_hash, role, status)
VALUES ($1, $2, $3, $4, 'active')
ON CONFLICT (email) DO NOTHING;
`
	users := []struct {
		email string
		name  string
		role  authDomain.Role
	}{
		{"admin@example.com", "Admin", authDomain.RoleAdmin},
		{"user@example.com", "User", authDomain.RoleUser},
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, q, u.email, u.name, hash, string(u.role)); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}
	return tx.Commit()
}

// SaveSession 實作 SessionStore。
func (r *AuthRepo) SaveSession(ctx context.Context, sess authDomain.Session) error {
	const q = `
INSERT INTO auth_sessions (user_id, refresh_token_id, expires_at, user_agent, ip_address)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.db.ExecContext(ctx, q, sess.UserID, sess.Token, sess.ExpiresAt, sess.UserAgent, sess.IPAddress)
	return err
}

func (r *AuthRepo) GetSession(ctx context.Context, token string) (authDomain.Session, error) {
	const q = `
SELECT user_id, refresh_token_id, expires_at, revoked_at, user_agent, ip_address, created_at
FROM auth_sessions
WHERE refresh_token_id = $1;
`
	var sess authDomain.Session
	var revoked sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, token).Scan(
		&sess.UserID, &sess.Token, &sess.ExpiresAt, &revoked, &sess.UserAgent, &sess.IPAddress, &sess.CreatedAt,
	); err != nil {
		return authDomain.Session{}, err
	}
	if revoked.Valid {
		t := revoked.Time
		sess.RevokedAt = &t
	}
	return sess, nil
}

func (r *AuthRepo) RevokeSession(ctx context.Context, token string) error {
	const q = `UPDATE auth_sessions SET revoked_at = $2 WHERE refresh_token_id = $1 AND revoked_at IS NULL;`
	_, err := r.db.ExecContext(ctx, q, token, nowFunc())
	return err
}
