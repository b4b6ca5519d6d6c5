package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/identity"
)

// SignInProvider выпускает токен по email и паролю.
type SignInProvider interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error) // Возвращает JWT токен или ошибку
	Me(ctx context.Context, principal identity.Principal) models.MeResponse
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	provider SignInProvider
	roles    *RoleResolver
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(provider SignInProvider, roles *RoleResolver) AuthService {
	return &authService{provider: provider, roles: roles}
}

// Login аутентифицирует пользователя и возвращает JWT токен.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return "", missingFields(missing...)
	}

	token, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrEmailNotConfirmed) {
			return "", ErrInvalidCredentials
		}
		log.Printf("[AuthService] Ошибка входа '%s': %v", email, err)
		return "", errors.New("внутренняя ошибка сервера при входе")
	}
	return token, nil
}

// Me описывает пользователя текущей сессии. Роль определяется RoleResolver и всегда задана.
func (s *authService) Me(ctx context.Context, principal identity.Principal) models.MeResponse {
	return models.MeResponse{
		ID:    principal.ID,
		Email: principal.Email,
		Role:  s.roles.Resolve(ctx, principal.ID),
	}
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
)
