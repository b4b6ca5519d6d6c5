// Package access определяет роль текущего пользователя на клиенте и решает,
// можно ли показать экран. Проверка носит рекомендательный характер:
// все привилегированные действия повторно проверяются сервером.
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/models"
)

// MeFetcher возвращает идентичность и роль текущей сессии.
type MeFetcher interface {
	Me(ctx context.Context) (*models.MeResponse, error)
}

// Resolver определяет роль через GET /api/me.
type Resolver struct {
	api MeFetcher
}

// NewResolver создает новый Resolver.
func NewResolver(api MeFetcher) *Resolver {
	return &Resolver{api: api}
}

// Resolve никогда не возвращает ошибку: при любом сбое роль считается general.
// Ответ сервера тоже сохраняется, если он получен.
func (r *Resolver) Resolve(ctx context.Context) (models.RoleState, *models.MeResponse) {
	me, err := r.api.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthorization) {
			slog.Warn("Сессия не принята сервером при определении роли", "error", err)
		} else {
			slog.Error("Не удалось определить роль, используется general", "error", err)
		}
		return models.ResolvedRole(models.RoleGeneral), nil
	}

	role, ok := models.ParseRole(string(me.Role))
	if !ok {
		slog.Warn("Неизвестная роль, используется general", "role", me.Role)
		role = models.RoleGeneral
	}
	return models.ResolvedRole(role), me
}

// DecisionKind - итог проверки доступа к экрану.
type DecisionKind int

const (
	// Loading - роль еще не определена: показывать нейтральную заглушку.
	Loading DecisionKind = iota
	// Render - экран можно показать.
	Render
	// Redirect - перейти на маршрут по умолчанию.
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision - результат Guard. Route заполнен только для Redirect.
type Decision struct {
	Kind  DecisionKind
	Route string
}

// Guard решает, показывать ли экран, требующий роли required.
// Пока роль не определена, ни экран, ни перенаправление не выдаются.
func Guard(state models.RoleState, required models.Role, defaultRoute string) Decision {
	role, resolved := state.Role()
	if !resolved {
		return Decision{Kind: Loading}
	}
	if satisfies(role, required) {
		return Decision{Kind: Render}
	}
	return Decision{Kind: Redirect, Route: defaultRoute}
}

// satisfies: администратор имеет доступ ко всему, что доступно general.
func satisfies(role, required models.Role) bool {
	switch required {
	case models.RoleAdmin:
		return role == models.RoleAdmin
	case models.RoleGeneral:
		return role == models.RoleAdmin || role == models.RoleGeneral
	default:
		return false
	}
}
