package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/handlers"
	"github.com/maynagashev/catalog/server/internal/identity"
	"github.com/maynagashev/catalog/server/internal/middleware"
	"github.com/maynagashev/catalog/server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret"

// MockUserAdminService - мок привилегированного сервиса пользователей.
type MockUserAdminService struct {
	mock.Mock
}

func (m *MockUserAdminService) ListUsers(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.Profile)
	return users, args.Error(1)
}

func (m *MockUserAdminService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.Profile, error) {
	args := m.Called(ctx, req)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockUserAdminService) DeleteUser(ctx context.Context, req models.DeleteUserRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserAdminService) UpdatePasswords(
	ctx context.Context,
	req models.UpdatePasswordRequest,
) (models.MessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(models.MessageResponse)
	return resp, args.Error(1)
}

// roleTable - роли пользователей для проверки администратора.
type roleTable struct {
	admins map[string]bool
	err    error
	calls  int
}

func (r *roleTable) IsAdmin(_ context.Context, userID string) (bool, error) {
	r.calls++
	return r.admins[userID], r.err
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   userID + "@example.com",
		"iss":     "catalog-server",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

// newFunctionsRouter собирает маршруты /functions так же, как сервер.
func newFunctionsRouter(svc handlers.UserAdminService, roles middleware.AdminChecker) http.Handler {
	h := handlers.NewFunctionsHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.JSONRecoverer)
	r.Route("/functions", func(r chi.Router) {
		r.MethodNotAllowed(h.MethodNotAllowed)
		for _, path := range []string{"/create-user", "/delete-user", "/update-password"} {
			r.Options(path, h.Preflight)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(identity.NewVerifier([]byte(testSecret))))
			r.Use(middleware.RequireAdmin(roles))
			r.Post("/create-user", h.CreateUser)
			r.Post("/delete-user", h.DeleteUser)
			r.Post("/update-password", h.UpdatePassword)
		})
	})
	return r
}

func doRequest(h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFunctions_AuthorizationOrder(t *testing.T) {
	createBody := `{"username":"eve","email":"eve@example.com","role":"admin"}`

	tests := []struct {
		name           string
		auth           string
		body           string
		expectedStatus int
		expectedChecks int
	}{
		{
			name:           "Без токена - 401 до проверки роли",
			body:           createBody,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Невалидный токен - 401 до проверки роли",
			auth:           "Bearer forged.token.value",
			body:           createBody,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Обычный пользователь с ролью admin в теле - 403",
			auth:           bearer(t, "general-user"),
			body:           `{"username":"eve","email":"eve@example.com","role":"admin","callerRole":"admin"}`,
			expectedStatus: http.StatusForbidden,
			expectedChecks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserAdminService)
			roles := &roleTable{admins: map[string]bool{"admin-user": true}}
			router := newFunctionsRouter(svc, roles)

			rec := doRequest(router, http.MethodPost, "/functions/create-user", tt.auth, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedChecks, roles.calls)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestFunctions_RoleLookupFailureIsForbidden(t *testing.T) {
	svc := new(MockUserAdminService)
	router := newFunctionsRouter(svc, &roleTable{err: errors.New("db down")})

	rec := doRequest(router, http.MethodPost, "/functions/delete-user", bearer(t, "admin-user"), `{"userId":"x"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestFunctions_AdminActions(t *testing.T) {
	admin := bearer(t, "admin-user")

	tests := []struct {
		name           string
		path           string
		body           string
		mockSetup      func(svc *MockUserAdminService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Создание пользователя",
			path: "/functions/create-user",
			body: `{"username":"bob","email":"bob@example.com","role":"general"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("CreateUser", mock.Anything, models.CreateUserRequest{
					Username: "bob", Email: "bob@example.com", Role: "general",
				}).Return(&models.Profile{ID: "new-id"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Пользователь создан"}`,
		},
		{
			name: "Не хватает полей",
			path: "/functions/create-user",
			body: `{"username":"bob"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, &services.ValidationError{Missing: []string{"email", "role"}}).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"отсутствуют обязательные поля: email, role"}`,
		},
		{
			name: "Сбой провайдера - 400 с исходным сообщением",
			path: "/functions/delete-user",
			body: `{"userId":"8f14e45f-ceea-467f-a0e6-1f3b3c5e2a11"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("DeleteUser", mock.Anything, mock.Anything).
					Return(&services.UpstreamError{Op: "удаление учетной записи", Err: errors.New("учетная запись не найдена")}).
					Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"удаление учетной записи: учетная запись не найдена"}`,
		},
		{
			name:           "Некорректный JSON",
			path:           "/functions/update-password",
			body:           `{"newPassword":`,
			mockSetup:      func(*MockUserAdminService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Неверный формат запроса"}`,
		},
		{
			name: "Массовая смена пароля",
			path: "/functions/update-password",
			body: `{"newPassword":"spring2025"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("UpdatePasswords", mock.Anything, models.UpdatePasswordRequest{NewPassword: "spring2025"}).
					Return(models.MessageResponse{
						Message: "Пароли обновлены для 1 пользователей.",
						Results: []models.PasswordUpdateResult{
							{Email: "a@example.com", Status: "success"},
							{Email: "b@example.com", Status: "failed", Error: "locked"},
						},
					}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"message":"Пароли обновлены для 1 пользователей.","results":[` +
				`{"email":"a@example.com","status":"success"},` +
				`{"email":"b@example.com","status":"failed","error":"locked"}]}`,
		},
		{
			name: "Непредвиденная ошибка - 500 без деталей",
			path: "/functions/update-password",
			body: `{"newPassword":"spring2025"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("UpdatePasswords", mock.Anything, mock.Anything).
					Return(models.MessageResponse{}, errors.New("pq: connection reset")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Внутренняя ошибка сервера"}`,
		},
		{
			name: "Паника - 500 без деталей",
			path: "/functions/delete-user",
			body: `{"userId":"x"}`,
			mockSetup: func(svc *MockUserAdminService) {
				svc.On("DeleteUser", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
					panic("unexpected nil")
				}).Return(nil).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Внутренняя ошибка сервера"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserAdminService)
			tt.mockSetup(svc)
			router := newFunctionsRouter(svc, &roleTable{admins: map[string]bool{"admin-user": true}})

			rec := doRequest(router, http.MethodPost, tt.path, admin, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestFunctions_MethodsAndPreflight(t *testing.T) {
	router := newFunctionsRouter(new(MockUserAdminService), &roleTable{})

	t.Run("GET - 405", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/functions/create-user", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.JSONEq(t, `{"error":"Метод не поддерживается"}`, rec.Body.String())
	})

	t.Run("OPTIONS - без тела", func(t *testing.T) {
		rec := doRequest(router, http.MethodOptions, "/functions/update-password", "", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
