package access_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/models"
	"github.com/stretchr/testify/assert"
)

type stubMe struct {
	me  *models.MeResponse
	err error
}

func (s stubMe) Me(context.Context) (*models.MeResponse, error) {
	return s.me, s.err
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name         string
		fetcher      stubMe
		expectedRole models.Role
		expectMe     bool
	}{
		{
			name:         "Администратор",
			fetcher:      stubMe{me: &models.MeResponse{ID: "u1", Role: models.RoleAdmin}},
			expectedRole: models.RoleAdmin,
			expectMe:     true,
		},
		{
			name:         "Обычный пользователь",
			fetcher:      stubMe{me: &models.MeResponse{ID: "u2", Role: models.RoleGeneral}},
			expectedRole: models.RoleGeneral,
			expectMe:     true,
		},
		{
			name:         "Неизвестная роль",
			fetcher:      stubMe{me: &models.MeResponse{ID: "u3", Role: "superuser"}},
			expectedRole: models.RoleGeneral,
			expectMe:     true,
		},
		{
			name:         "Сетевая ошибка",
			fetcher:      stubMe{err: errors.New("connection refused")},
			expectedRole: models.RoleGeneral,
		},
		{
			name:         "Токен отклонен",
			fetcher:      stubMe{err: fmt.Errorf("ошибка: %w", api.ErrAuthorization)},
			expectedRole: models.RoleGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, me := access.NewResolver(tt.fetcher).Resolve(context.Background())

			role, resolved := state.Role()
			assert.True(t, resolved)
			assert.Equal(t, tt.expectedRole, role)
			assert.Equal(t, tt.expectMe, me != nil)
		})
	}
}

func TestGuard(t *testing.T) {
	const home = "catalog"

	tests := []struct {
		name     string
		state    models.RoleState
		required models.Role
		expected access.Decision
	}{
		{
			name:     "Роль не определена, экран администратора",
			state:    models.UnresolvedRole(),
			required: models.RoleAdmin,
			expected: access.Decision{Kind: access.Loading},
		},
		{
			name:     "Роль не определена, общий экран",
			state:    models.UnresolvedRole(),
			required: models.RoleGeneral,
			expected: access.Decision{Kind: access.Loading},
		},
		{
			name:     "Администратор, экран администратора",
			state:    models.ResolvedRole(models.RoleAdmin),
			required: models.RoleAdmin,
			expected: access.Decision{Kind: access.Render},
		},
		{
			name:     "Обычный пользователь, экран администратора",
			state:    models.ResolvedRole(models.RoleGeneral),
			required: models.RoleAdmin,
			expected: access.Decision{Kind: access.Redirect, Route: home},
		},
		{
			name:     "Обычный пользователь, общий экран",
			state:    models.ResolvedRole(models.RoleGeneral),
			required: models.RoleGeneral,
			expected: access.Decision{Kind: access.Render},
		},
		{
			name:     "Администратор, общий экран",
			state:    models.ResolvedRole(models.RoleAdmin),
			required: models.RoleGeneral,
			expected: access.Decision{Kind: access.Render},
		},
		{
			name:     "Неизвестная требуемая роль",
			state:    models.ResolvedRole(models.RoleAdmin),
			required: "owner",
			expected: access.Decision{Kind: access.Redirect, Route: home},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := access.Guard(tt.state, tt.required, home)

			assert.Equal(t, tt.expected, decision)
		})
	}
}
