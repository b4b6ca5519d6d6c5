package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/mocks"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/maynagashev/catalog/server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testUserID      = "8f14e45f-ceea-467f-a0e6-1f3b3c5e2a11"
	defaultPassword = "welcome1"
)

type privilegedDeps struct {
	identities *mocks.IdentityAdmin
	profiles   *mocks.ProfileRepository
	settings   *mocks.SettingsRepository
}

func newPrivilegedService() (*services.PrivilegedUserService, privilegedDeps) {
	deps := privilegedDeps{
		identities: new(mocks.IdentityAdmin),
		profiles:   new(mocks.ProfileRepository),
		settings:   new(mocks.SettingsRepository),
	}
	return services.NewPrivilegedUserService(deps.identities, deps.profiles, deps.settings), deps
}

func (d privilegedDeps) assertExpectations(t *testing.T) {
	t.Helper()
	d.identities.AssertExpectations(t)
	d.profiles.AssertExpectations(t)
	d.settings.AssertExpectations(t)
}

func TestPrivilegedUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	req := models.CreateUserRequest{Username: "alice", Email: "alice@example.com", Role: "general"}

	t.Run("Успешное создание", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("GetSetting", ctx, repository.SettingDefaultGeneralPassword).Return(defaultPassword, nil).Once()
		deps.identities.On("CreateIdentity", ctx, "alice@example.com", defaultPassword, true).Return(testUserID, nil).Once()
		deps.profiles.On("CreateProfile", ctx, &models.Profile{
			ID: testUserID, Username: "alice", Email: "alice@example.com", Role: models.RoleGeneral,
		}).Return(nil).Once()

		profile, err := svc.CreateUser(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, testUserID, profile.ID)
		deps.assertExpectations(t)
	})

	t.Run("Сбой профиля откатывает учетную запись", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("GetSetting", ctx, repository.SettingDefaultGeneralPassword).Return(defaultPassword, nil).Once()
		deps.identities.On("CreateIdentity", ctx, "alice@example.com", defaultPassword, true).Return(testUserID, nil).Once()
		deps.profiles.On("CreateProfile", ctx, mock.AnythingOfType("*models.Profile")).
			Return(errors.New("duplicate key")).Once()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(nil).Once()

		_, err := svc.CreateUser(ctx, req)

		var upstreamErr *services.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Contains(t, err.Error(), "duplicate key")
		deps.assertExpectations(t)
	})

	t.Run("Сбой отката не скрывает исходную ошибку", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("GetSetting", ctx, repository.SettingDefaultGeneralPassword).Return(defaultPassword, nil).Once()
		deps.identities.On("CreateIdentity", ctx, "alice@example.com", defaultPassword, true).Return(testUserID, nil).Once()
		deps.profiles.On("CreateProfile", ctx, mock.AnythingOfType("*models.Profile")).
			Return(errors.New("duplicate key")).Once()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(errors.New("timeout")).Once()

		_, err := svc.CreateUser(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate key")
		deps.assertExpectations(t)
	})

	t.Run("Сбой провайдера идентификации", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("GetSetting", ctx, repository.SettingDefaultGeneralPassword).Return(defaultPassword, nil).Once()
		deps.identities.On("CreateIdentity", ctx, "alice@example.com", defaultPassword, true).
			Return("", repository.ErrEmailTaken).Once()

		_, err := svc.CreateUser(ctx, req)

		require.ErrorIs(t, err, repository.ErrEmailTaken)
		deps.profiles.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
		deps.assertExpectations(t)
	})

	t.Run("Пароль по умолчанию не задан", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("GetSetting", ctx, repository.SettingDefaultGeneralPassword).
			Return("", repository.ErrSettingNotFound).Once()

		_, err := svc.CreateUser(ctx, req)

		var upstreamErr *services.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		deps.identities.AssertNotCalled(t, "CreateIdentity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	validation := []struct {
		name    string
		req     models.CreateUserRequest
		missing []string
	}{
		{name: "Пустой запрос", req: models.CreateUserRequest{}, missing: []string{"username", "email", "role"}},
		{name: "Нет email", req: models.CreateUserRequest{Username: "bob", Role: "admin"}, missing: []string{"email"}},
		{name: "Недопустимая роль", req: models.CreateUserRequest{Username: "bob", Email: "b@x.io", Role: "root"}},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newPrivilegedService()

			_, err := svc.CreateUser(ctx, tt.req)

			var validationErr *services.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.missing, validationErr.Missing)
			deps.assertExpectations(t)
		})
	}
}

func TestPrivilegedUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	req := models.DeleteUserRequest{UserID: testUserID}

	t.Run("Успешное удаление", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(nil).Once()
		deps.profiles.On("DeleteProfile", ctx, testUserID).Return(nil).Once()

		require.NoError(t, svc.DeleteUser(ctx, req))
		deps.assertExpectations(t)
	})

	t.Run("Сбой удаления учетной записи не трогает профиль", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(errors.New("provider down")).Once()

		err := svc.DeleteUser(ctx, req)

		var upstreamErr *services.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		deps.profiles.AssertNotCalled(t, "DeleteProfile", mock.Anything, mock.Anything)
	})

	t.Run("Повторное удаление возвращает ошибку", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(nil).Once()
		deps.profiles.On("DeleteProfile", ctx, testUserID).Return(nil).Once()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(repository.ErrIdentityNotFound).Once()

		require.NoError(t, svc.DeleteUser(ctx, req))
		err := svc.DeleteUser(ctx, req)

		require.ErrorIs(t, err, repository.ErrIdentityNotFound)
		deps.profiles.AssertNumberOfCalls(t, "DeleteProfile", 1)
		deps.assertExpectations(t)
	})

	t.Run("Профиль уже отсутствует", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.identities.On("DeleteIdentity", ctx, testUserID).Return(nil).Once()
		deps.profiles.On("DeleteProfile", ctx, testUserID).Return(repository.ErrProfileNotFound).Once()

		require.NoError(t, svc.DeleteUser(ctx, req))
	})

	validation := []struct {
		name   string
		userID string
	}{
		{name: "Пустой userId", userID: "  "},
		{name: "userId не UUID", userID: "42"},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newPrivilegedService()

			err := svc.DeleteUser(ctx, models.DeleteUserRequest{UserID: tt.userID})

			var validationErr *services.ValidationError
			require.ErrorAs(t, err, &validationErr)
			deps.assertExpectations(t)
		})
	}
}

func TestPrivilegedUserService_UpdatePasswords(t *testing.T) {
	ctx := context.Background()
	const newPassword = "spring2025"
	generalUsers := []models.Profile{
		{ID: "id-a", Email: "a@example.com", Role: models.RoleGeneral},
		{ID: "id-b", Email: "b@example.com", Role: models.RoleGeneral},
		{ID: "id-c", Email: "c@example.com", Role: models.RoleGeneral},
	}

	t.Run("Частичный сбой не отменяет остальные обновления", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		var settingUpdated atomic.Bool
		deps.settings.On("SetSetting", ctx, repository.SettingDefaultGeneralPassword, newPassword).
			Run(func(mock.Arguments) { settingUpdated.Store(true) }).
			Return(nil).Once()
		deps.profiles.On("ListProfilesByRole", ctx, models.RoleGeneral).Return(generalUsers, nil).Once()
		checkOrder := func(mock.Arguments) {
			assert.True(t, settingUpdated.Load(), "настройка должна обновляться до пользователей")
		}
		deps.identities.On("UpdatePassword", ctx, "id-a", newPassword).Run(checkOrder).Return(nil).Once()
		deps.identities.On("UpdatePassword", ctx, "id-b", newPassword).Run(checkOrder).
			Return(errors.New("identity locked")).Once()
		deps.identities.On("UpdatePassword", ctx, "id-c", newPassword).Run(checkOrder).Return(nil).Once()

		resp, err := svc.UpdatePasswords(ctx, models.UpdatePasswordRequest{NewPassword: newPassword})

		require.NoError(t, err)
		assert.Equal(t, "Пароли обновлены для 2 пользователей.", resp.Message)
		assert.Equal(t, []models.PasswordUpdateResult{
			{Email: "a@example.com", Status: models.PasswordStatusSuccess},
			{Email: "b@example.com", Status: models.PasswordStatusFailed, Error: "identity locked"},
			{Email: "c@example.com", Status: models.PasswordStatusSuccess},
		}, resp.Results)
		deps.assertExpectations(t)
	})

	t.Run("Сбой настройки прерывает операцию", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("SetSetting", ctx, repository.SettingDefaultGeneralPassword, newPassword).
			Return(errors.New("read-only transaction")).Once()

		_, err := svc.UpdatePasswords(ctx, models.UpdatePasswordRequest{NewPassword: newPassword})

		var upstreamErr *services.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		deps.profiles.AssertNotCalled(t, "ListProfilesByRole", mock.Anything, mock.Anything)
		deps.identities.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Нет обычных пользователей", func(t *testing.T) {
		svc, deps := newPrivilegedService()
		deps.settings.On("SetSetting", ctx, repository.SettingDefaultGeneralPassword, newPassword).Return(nil).Once()
		deps.profiles.On("ListProfilesByRole", ctx, models.RoleGeneral).Return([]models.Profile{}, nil).Once()

		resp, err := svc.UpdatePasswords(ctx, models.UpdatePasswordRequest{NewPassword: newPassword})

		require.NoError(t, err)
		assert.Equal(t, "Обычные пользователи не найдены", resp.Message)
		assert.Empty(t, resp.Results)
		deps.assertExpectations(t)
	})

	validation := []struct {
		name     string
		password string
	}{
		{name: "Пустой пароль", password: ""},
		{name: "Слишком короткий пароль", password: "12345"},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newPrivilegedService()

			_, err := svc.UpdatePasswords(ctx, models.UpdatePasswordRequest{NewPassword: tt.password})

			var validationErr *services.ValidationError
			require.ErrorAs(t, err, &validationErr)
			deps.assertExpectations(t)
		})
	}
}
