package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/repository"
	"golang.org/x/sync/singleflight"
)

// roleLookupTimeout ограничивает общий запрос роли, не зависящий от отмены вызывающих.
const roleLookupTimeout = 5 * time.Second

// RoleResolver определяет роль пользователя по профилю.
// Результаты не кешируются: каждый вызов читает хранилище. Одновременные запросы
// для одного ID объединяются в одно обращение.
type RoleResolver struct {
	profiles repository.ProfileRepository
	group    singleflight.Group
}

// NewRoleResolver создает резолвер ролей поверх репозитория профилей.
func NewRoleResolver(profiles repository.ProfileRepository) *RoleResolver {
	return &RoleResolver{profiles: profiles}
}

// Resolve возвращает роль пользователя. Не возвращает ошибок: при отсутствии профиля,
// неизвестной роли или сбое хранилища используется роль general.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) models.Role {
	role, err := r.lookup(ctx, userID)
	switch {
	case err == nil:
		return role
	case errors.Is(err, repository.ErrProfileNotFound):
		log.Printf("[RoleResolver] Профиль %s не найден, используется роль general", userID)
	default:
		log.Printf("[RoleResolver] Ошибка хранилища при определении роли %s: %v", userID, err)
	}
	return models.RoleGeneral
}

// IsAdmin сообщает, является ли пользователь администратором.
// В отличие от Resolve, ошибки хранилища возвращаются вызывающему.
// Отсутствующий профиль - не ошибка, а роль general.
func (r *RoleResolver) IsAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := r.lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return false, nil
		}
		log.Printf("[RoleResolver] Не удалось проверить роль %s: %v", userID, err)
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// lookup объединяет одновременные запросы роли. Общий запрос не наследует отмену
// первого вызывающего; каждый вызывающий ждет результат только до отмены своего ctx.
func (r *RoleResolver) lookup(ctx context.Context, userID string) (models.Role, error) {
	ch := r.group.DoChan(userID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), roleLookupTimeout)
		defer cancel()

		profile, err := r.profiles.GetProfileByID(lookupCtx, userID)
		if err != nil {
			return models.RoleGeneral, err
		}
		role, ok := models.ParseRole(string(profile.Role))
		if !ok {
			log.Printf("[RoleResolver] Неизвестная роль '%s' у пользователя %s", profile.Role, userID)
			return models.RoleGeneral, nil
		}
		return role, nil
	})

	select {
	case <-ctx.Done():
		return models.RoleGeneral, ctx.Err()
	case res := <-ch:
		role, _ := res.Val.(models.Role)
		return role, res.Err
	}
}
