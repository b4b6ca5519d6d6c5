// Package session содержит контекст аутентифицированной сессии клиента
// и сторожа, завершающего ее по бездействию.
package session

import (
	"time"

	"github.com/maynagashev/catalog/models"
)

// Session - контекст аутентифицированной сессии.
// Создается после успешного входа и уничтожается при выходе или истечении.
// Владелец единственный: модель интерфейса.
type Session struct {
	Token  string
	UserID string
	Email  string
	Role   models.RoleState

	guard *Guard
}

// New создает сессию с еще не определенной ролью.
func New(token string, guard *Guard) *Session {
	return &Session{
		Token: token,
		Role:  models.UnresolvedRole(),
		guard: guard,
	}
}

// Identify заполняет идентичность из ответа /api/me.
func (s *Session) Identify(me *models.MeResponse) {
	if me == nil {
		return
	}
	s.UserID = me.ID
	s.Email = me.Email
}

// StartIdleTimer запускает отсчет бездействия при первом показе
// аутентифицированного экрана.
func (s *Session) StartIdleTimer() {
	if s.guard != nil {
		s.guard.Start()
	}
}

// Touch передает активность пользователя сторожу.
func (s *Session) Touch(a Activity) {
	if s.guard != nil {
		s.guard.Touch(a)
	}
}

// LastActivity возвращает время последней активности.
func (s *Session) LastActivity() time.Time {
	if s.guard == nil {
		return time.Time{}
	}
	return s.guard.LastActivity()
}

// IsAdmin сообщает, что роль определена и это администратор.
func (s *Session) IsAdmin() bool {
	role, ok := s.Role.Role()
	return ok && role == models.RoleAdmin
}

// Close останавливает сторожа и сбрасывает токен.
func (s *Session) Close() {
	if s.guard != nil {
		s.guard.Stop()
	}
	s.Token = ""
	s.Role = models.UnresolvedRole()
}
