package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	authDomain "stock-alert/internal/domain/auth"
	authinfra "stock-alert/internal/infrastructure/auth"

	"github.com/google/uuid"
)

// Store 無 DB 時使用的帳號與 session 儲存，可併發存取。
type Store struct {
	mu       sync.RWMutex
	users    map[string]authDomain.User
	sessions map[string]authDomain.Session
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		users:    make(map[string]authDomain.User),
		sessions: make(map[string]authDomain.Session),
	}
}

// SeedUsers 建立預設帳號供登入測試，密碼皆為 password123。
func (s *Store) SeedUsers() error {
	hash, err := authinfra.HashPassword("password123")
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	s.AddUser("admin@example.com", hash, "Admin", authDomain.RoleAdmin)
	s.AddUser("user@example.com", hash, "User", authDomain.RoleUser)
	return nil
}

// AddUser 新增帳號並回傳 ID；password 為雜湊後的值。
func (s *Store) AddUser(email, password, name string, role authDomain.Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = authDomain.User{
		ID:       id,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Name:     name,
		Role:     role,
		Status:   authDomain.StatusActive,
		Password: password,
	}
	return id
}

// FindByEmail 依 email 查詢使用者。
func (s *Store) FindByEmail(_ context.Context, email string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return authDomain.User{}, authDomain.ErrUserNotFound
}

// FindByID 依 ID 查詢使用者。
func (s *Store) FindByID(_ context.Context, id string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.User{}, authDomain.ErrUserNotFound
	}
	return u, nil
}

// SaveSession 實作 SessionStore。
func (s *Store) SaveSession(_ context.Context, sess authDomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (authDomain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return authDomain.Session{}, fmt.Errorf("session not found")
	}
	return sess, nil
}

func (s *Store) RevokeSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return fmt.Errorf("session not found")
	}
	now := time.Now()
	sess.RevokedAt = &now
	s.sessions[token] = sess
	return nil
}
