package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/middleware"
	"github.com/maynagashev/catalog/server/internal/services"
)

// UserAdminService - привилегированные действия над пользователями.
type UserAdminService interface {
	ListUsers(ctx context.Context) ([]models.Profile, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.Profile, error)
	DeleteUser(ctx context.Context, req models.DeleteUserRequest) error
	UpdatePasswords(ctx context.Context, req models.UpdatePasswordRequest) (models.MessageResponse, error)
}

// Убедимся, что сервис удовлетворяет интерфейсу UserAdminService.
var _ UserAdminService = (*services.PrivilegedUserService)(nil)

// FunctionsHandler обслуживает привилегированные функции /functions/*.
// Аутентификация и проверка роли выполняются middleware до вызова методов;
// роль из тела запроса не учитывается.
type FunctionsHandler struct {
	service UserAdminService
}

// NewFunctionsHandler создает новый экземпляр FunctionsHandler.
func NewFunctionsHandler(s UserAdminService) *FunctionsHandler {
	return &FunctionsHandler{service: s}
}

// CreateUser обрабатывает POST /functions/create-user.
func (h *FunctionsHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Functions:CreateUser", err)
		return
	}

	h.logAction(r, "создал пользователя "+profile.ID)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Пользователь создан"})
}

// DeleteUser обрабатывает POST /functions/delete-user.
func (h *FunctionsHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.DeleteUser(r.Context(), req); err != nil {
		writeServiceError(w, "Functions:DeleteUser", err)
		return
	}

	h.logAction(r, "удалил пользователя "+req.UserID)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Пользователь удален"})
}

// UpdatePassword обрабатывает POST /functions/update-password.
func (h *FunctionsHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.UpdatePasswords(r.Context(), req)
	if err != nil {
		writeServiceError(w, "Functions:UpdatePassword", err)
		return
	}

	h.logAction(r, "обновил пароль обычных пользователей")
	writeJSON(w, http.StatusOK, resp)
}

// ListUsers возвращает профили для экрана управления пользователями.
func (h *FunctionsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, "Functions:ListUsers", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Preflight отвечает на OPTIONS без тела. CORS-заголовки добавляет middleware cors.
func (h *FunctionsHandler) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// MethodNotAllowed отвечает 405 для всех методов, кроме POST.
func (h *FunctionsHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	log.Printf("[Functions] Метод %s не поддерживается для %s", r.Method, r.URL.Path)
	w.Header().Set("Allow", "POST, OPTIONS")
	writeError(w, http.StatusMethodNotAllowed, "Метод не поддерживается")
}

func (h *FunctionsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		log.Printf("[Functions] %s: %v", r.URL.Path, err)
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return false
	}
	return true
}

func (h *FunctionsHandler) logAction(r *http.Request, action string) {
	if principal, ok := middleware.GetPrincipalFromContext(r.Context()); ok {
		log.Printf("[Functions] Администратор %s %s", principal.Email, action)
	}
}
