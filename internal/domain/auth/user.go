package auth

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials 帳號或密碼錯誤。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserDisabled 帳號停用或鎖定。
	ErrUserDisabled = errors.New("user disabled or locked")
	// ErrUserNotFound 查無使用者。
	ErrUserNotFound = errors.New("user not found")
)

// Role 定義系統角色。
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUser    Role = "user"
	RoleService Role = "service"
)

// Status 定義帳號狀態。
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusLocked   Status = "locked"
)

// User 基本帳號資料；Email 同時是提醒規則的擁有者與 email 通知收件者。
type User struct {
	ID       string
	Email    string
	Name     string
	Role     Role
	Status   Status
	Password string // 雜湊後密碼
}

// Validate 基本欄位檢查。
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("valid email is required")
	}
	switch u.Role {
	case RoleAdmin, RoleUser, RoleService:
	default:
		return errors.New("role is required")
	}
	if u.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// IsActive 檢查是否可登入。
func (u User) IsActive() bool {
	return u.Status == StatusActive
}
