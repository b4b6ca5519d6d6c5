package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength - минимальная длина пароля учетной записи.
const MinPasswordLength = 6

// Config - параметры выпуска токенов.
type Config struct {
	Secret   []byte
	TokenTTL time.Duration
}

// Gateway - провайдер идентификации поверх хранилища учетных записей.
// Административные методы доступны только серверному коду с сервисными учетными данными БД.
type Gateway struct {
	repo     repository.IdentityRepository
	cfg      Config
	verifier *Verifier
	now      func() time.Time
}

// NewGateway создает провайдера идентификации.
func NewGateway(repo repository.IdentityRepository, cfg Config) *Gateway {
	return &Gateway{
		repo:     repo,
		cfg:      cfg,
		verifier: NewVerifier(cfg.Secret),
		now:      time.Now,
	}
}

// Verifier возвращает проверяющего токены, выпущенные этим провайдером.
func (g *Gateway) Verifier() *Verifier {
	return g.verifier
}

// SignIn проверяет email и пароль и выпускает токен доступа.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (string, error) {
	identity, err := g.repo.GetIdentityByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			log.Printf("[Identity] Попытка входа несуществующего пользователя: %s", email)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("ошибка поиска учетной записи: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		log.Printf("[Identity] Неверный пароль для: %s", email)
		return "", ErrInvalidCredentials
	}
	if !identity.EmailConfirmed {
		log.Printf("[Identity] Email не подтвержден: %s", email)
		return "", ErrEmailNotConfirmed
	}

	token, err := issueToken(g.cfg.Secret, Principal{ID: identity.ID, Email: identity.Email}, g.cfg.TokenTTL, g.now())
	if err != nil {
		return "", err
	}
	log.Printf("[Identity] Пользователь %s вошел в систему", identity.ID)
	return token, nil
}

// CreateIdentity создает учетную запись и возвращает ее сгенерированный ID.
func (g *Gateway) CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (string, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	identity := &models.Identity{
		ID:             uuid.NewString(),
		Email:          strings.TrimSpace(email),
		PasswordHash:   hash,
		EmailConfirmed: emailConfirmed,
	}
	if err = g.repo.CreateIdentity(ctx, identity); err != nil {
		return "", err
	}
	return identity.ID, nil
}

// DeleteIdentity удаляет учетную запись.
func (g *Gateway) DeleteIdentity(ctx context.Context, id string) error {
	return g.repo.DeleteIdentity(ctx, id)
}

// UpdatePassword заменяет пароль учетной записи.
func (g *Gateway) UpdatePassword(ctx context.Context, id, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return g.repo.UpdatePasswordHash(ctx, id, hash)
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// Кастомные ошибки провайдера идентификации.
var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrEmailNotConfirmed  = errors.New("email не подтвержден")
	ErrWeakPassword       = fmt.Errorf("пароль должен содержать не менее %d символов", MinPasswordLength)
)
