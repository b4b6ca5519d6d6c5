package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/identity"
	"github.com/maynagashev/catalog/server/internal/repository"
	"golang.org/x/sync/errgroup"
)

// defaultFanOut - сколько учетных записей обновляется параллельно при массовой смене пароля.
const defaultFanOut = 4

// IdentityAdmin - административные операции провайдера идентификации.
type IdentityAdmin interface {
	CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (string, error)
	DeleteIdentity(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, password string) error
}

// Убедимся, что провайдер идентификации удовлетворяет интерфейсу IdentityAdmin.
var _ IdentityAdmin = (*identity.Gateway)(nil)

// PrivilegedUserService выполняет административные действия над учетными записями.
// Проверка роли вызывающего выполняется до вызова методов (см. middleware.RequireAdmin).
type PrivilegedUserService struct {
	identities IdentityAdmin
	profiles   repository.ProfileRepository
	settings   repository.SettingsRepository
	fanOut     int
}

// NewPrivilegedUserService создает сервис привилегированных действий.
func NewPrivilegedUserService(
	identities IdentityAdmin,
	profiles repository.ProfileRepository,
	settings repository.SettingsRepository,
) *PrivilegedUserService {
	return &PrivilegedUserService{
		identities: identities,
		profiles:   profiles,
		settings:   settings,
		fanOut:     defaultFanOut,
	}
}

// ListUsers возвращает все профили для экрана управления пользователями.
func (s *PrivilegedUserService) ListUsers(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, upstream("список пользователей", err)
	}
	return profiles, nil
}

// CreateUser создает учетную запись с общим паролем по умолчанию и профиль с тем же ID.
// Если профиль создать не удалось, учетная запись удаляется.
func (s *PrivilegedUserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.Profile, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	roleName := strings.TrimSpace(req.Role)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if roleName == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	role, ok := models.ParseRole(roleName)
	if !ok {
		return nil, invalid(fmt.Sprintf("недопустимая роль '%s': ожидается admin или general", roleName))
	}

	password, err := s.settings.GetSetting(ctx, repository.SettingDefaultGeneralPassword)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return nil, upstream("создание пользователя", errors.New("пароль по умолчанию не задан"))
		}
		return nil, upstream("чтение пароля по умолчанию", err)
	}

	id, err := s.identities.CreateIdentity(ctx, email, password, true)
	if err != nil {
		log.Printf("[PrivilegedUsers] Ошибка создания учетной записи %s: %v", email, err)
		return nil, upstream("создание учетной записи", err)
	}

	profile := &models.Profile{ID: id, Username: username, Email: email, Role: role}
	if err = s.profiles.CreateProfile(ctx, profile); err != nil {
		log.Printf("[PrivilegedUsers] Ошибка создания профиля %s, откат учетной записи %s: %v", email, id, err)
		if delErr := s.identities.DeleteIdentity(ctx, id); delErr != nil {
			log.Printf("[PrivilegedUsers] Не удалось откатить учетную запись %s: %v", id, delErr)
		}
		return nil, upstream("создание профиля", err)
	}

	log.Printf("[PrivilegedUsers] Пользователь %s (ID: %s, роль: %s) создан", email, id, role)
	return profile, nil
}

// DeleteUser удаляет учетную запись, затем профиль.
// Если учетную запись удалить не удалось, профиль не трогается.
func (s *PrivilegedUserService) DeleteUser(ctx context.Context, req models.DeleteUserRequest) error {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return missingFields("userId")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return invalid("userId должен быть UUID")
	}

	if err := s.identities.DeleteIdentity(ctx, userID); err != nil {
		log.Printf("[PrivilegedUsers] Ошибка удаления учетной записи %s: %v", userID, err)
		return upstream("удаление учетной записи", err)
	}

	if err := s.profiles.DeleteProfile(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			log.Printf("[PrivilegedUsers] У учетной записи %s не было профиля", userID)
			return nil
		}
		return upstream("удаление профиля", err)
	}

	log.Printf("[PrivilegedUsers] Пользователь %s удален", userID)
	return nil
}

// UpdatePasswords меняет общий пароль по умолчанию и пароль каждого обычного пользователя.
// Настройка обновляется первой: при ее сбое ничего не меняется. Сбой для одного
// пользователя не влияет на остальных; результаты возвращаются в порядке списка.
func (s *PrivilegedUserService) UpdatePasswords(
	ctx context.Context,
	req models.UpdatePasswordRequest,
) (models.MessageResponse, error) {
	if req.NewPassword == "" {
		return models.MessageResponse{}, missingFields("newPassword")
	}
	if len(req.NewPassword) < identity.MinPasswordLength {
		return models.MessageResponse{}, invalid(identity.ErrWeakPassword.Error())
	}

	if err := s.settings.SetSetting(ctx, repository.SettingDefaultGeneralPassword, req.NewPassword); err != nil {
		log.Printf("[PrivilegedUsers] Не удалось обновить пароль по умолчанию: %v", err)
		return models.MessageResponse{}, upstream("обновление пароля по умолчанию", err)
	}

	users, err := s.profiles.ListProfilesByRole(ctx, models.RoleGeneral)
	if err != nil {
		return models.MessageResponse{}, upstream("поиск обычных пользователей", err)
	}
	if len(users) == 0 {
		return models.MessageResponse{Message: "Обычные пользователи не найдены"}, nil
	}

	results := make([]models.PasswordUpdateResult, len(users))
	var g errgroup.Group
	g.SetLimit(s.fanOut)
	for i, u := range users {
		g.Go(func() error {
			results[i] = models.PasswordUpdateResult{Email: u.Email, Status: models.PasswordStatusSuccess}
			if err := s.identities.UpdatePassword(ctx, u.ID, req.NewPassword); err != nil {
				log.Printf("[PrivilegedUsers] Ошибка смены пароля для %s: %v", u.Email, err)
				results[i].Status = models.PasswordStatusFailed
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	updated := 0
	for _, r := range results {
		if r.Status == models.PasswordStatusSuccess {
			updated++
		}
	}
	log.Printf("[PrivilegedUsers] Пароль обновлен для %d из %d пользователей", updated, len(results))
	return models.MessageResponse{
		Message: fmt.Sprintf("Пароли обновлены для %d пользователей.", updated),
		Results: results,
	}, nil
}
