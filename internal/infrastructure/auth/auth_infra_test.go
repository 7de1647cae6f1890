package authinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-alert/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

type mockSessionStore struct {
	sessions map[string]auth.Session
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]auth.Session{}}
}

func (m *mockSessionStore) SaveSession(_ context.Context, sess auth.Session) error {
	m.sessions[sess.Token] = sess
	return nil
}

func (m *mockSessionStore) GetSession(_ context.Context, token string) (auth.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return auth.Session{}, errors.New("not found")
	}
	return s, nil
}

func (m *mockSessionStore) RevokeSession(_ context.Context, token string) error {
	s, ok := m.sessions[token]
	if !ok {
		return nil
	}
	now := time.Now()
	s.RevokedAt = &now
	m.sessions[token] = s
	return nil
}

type mockUserFinder struct{}

func (mockUserFinder) FindByID(_ context.Context, id string) (auth.User, error) {
	return auth.User{ID: id, Email: "admin@example.com", Role: auth.RoleAdmin, Status: auth.StatusActive}, nil
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, 24*time.Hour, newMockSessionStore(), mockUserFinder{})
	user := auth.User{ID: "u-1", Email: "user@example.com", Role: auth.RoleUser}

	pair, err := issuer.Issue(context.Background(), user, auth.TokenMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "user@example.com" || claims.Role != "user" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTIssuer_RejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Minute, time.Hour, nil, nil)
	issued := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }
	pair, err := issuer.Issue(context.Background(), auth.User{ID: "u-1", Role: auth.RoleUser}, auth.TokenMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := issuer.ParseAccessToken(pair.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewJWTIssuer("other-secret", time.Minute, time.Hour, nil, nil)
	other.now = func() time.Time { return issued }
	if _, err := other.ParseAccessToken(pair.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestJWTIssuer_RefreshRotatesSession(t *testing.T) {
	sessions := newMockSessionStore()
	issuer := NewJWTIssuer("secret", time.Hour, time.Hour, sessions, mockUserFinder{})
	first, err := issuer.Issue(context.Background(), auth.User{ID: "u-1", Email: "admin@example.com", Role: auth.RoleAdmin}, auth.TokenMeta{UserAgent: "ua"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	second, err := issuer.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected refresh token rotation")
	}
	if _, err := issuer.Refresh(context.Background(), first.RefreshToken); err == nil {
		t.Fatalf("expected reused refresh token to be rejected")
	}
	if sessions.sessions[second.RefreshToken].UserAgent != "ua" {
		t.Fatalf("expected user agent carried over")
	}
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hashed, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !h.Compare(hashed, "password123") {
		t.Error("Compare failed")
	}
	if h.Compare(hashed, "wrong") {
		t.Error("Compare should have failed")
	}
}
