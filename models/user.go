package models

import (
	"strings"
	"time"
)

// Role представляет уровень авторизации пользователя.
type Role string

// Допустимые роли.
const (
	RoleAdmin   Role = "admin"
	RoleGeneral Role = "general"
)

// ParseRole разбирает строку в роль. Второе значение false, если роль неизвестна.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleGeneral:
		return RoleGeneral, true
	default:
		return "", false
	}
}

// RoleState - роль, которая может быть еще не определена.
// Нулевое значение означает "еще проверяем".
type RoleState struct {
	role     Role
	resolved bool
}

// UnresolvedRole возвращает состояние "роль еще не определена".
func UnresolvedRole() RoleState {
	return RoleState{}
}

// ResolvedRole возвращает состояние с определенной ролью.
func ResolvedRole(role Role) RoleState {
	return RoleState{role: role, resolved: true}
}

// Role возвращает роль и признак того, что она определена.
func (s RoleState) Role() (Role, bool) {
	return s.role, s.resolved
}

// IsResolved сообщает, завершено ли определение роли.
func (s RoleState) IsResolved() bool {
	return s.resolved
}

func (s RoleState) String() string {
	if !s.resolved {
		return "unresolved"
	}
	return string(s.role)
}

// Identity - учетная запись провайдера идентификации.
// Пароль (хеш) никогда не покидает хранилище идентификаций.
type Identity struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	EmailConfirmed bool      `db:"email_confirmed" json:"email_confirmed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Profile - прикладной профиль пользователя, связан 1:1 с Identity по ID.
type Profile struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Role     Role   `db:"role" json:"role"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
}

// MeResponse описывает текущего пользователя сессии.
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CreateUserRequest - тело запроса /functions/create-user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// DeleteUserRequest - тело запроса /functions/delete-user.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// UpdatePasswordRequest - тело запроса /functions/update-password.
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// Статусы результата обновления пароля.
const (
	PasswordStatusSuccess = "success"
	PasswordStatusFailed  = "failed"
)

// PasswordUpdateResult - результат смены пароля для одного пользователя.
type PasswordUpdateResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// MessageResponse - успешный ответ привилегированной функции.
type MessageResponse struct {
	Message string                 `json:"message"`
	Results []PasswordUpdateResult `json:"results,omitempty"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
