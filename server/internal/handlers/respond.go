package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/services"
)

// maxBodyBytes - ограничение размера JSON-тела запроса.
const maxBodyBytes = 1 << 20

const internalErrorMessage = "Внутренняя ошибка сервера"

// writeJSON отправляет значение в JSON с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Клиент уже получил статус, сложно что-то изменить
		log.Printf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// decodeJSON читает тело запроса в dst. Ошибка означает некорректный формат.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("ошибка декодирования тела запроса: %w", err)
	}
	return nil
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-статус.
// Непредвиденные ошибки скрываются за общим сообщением.
func writeServiceError(w http.ResponseWriter, component string, err error) {
	var validationErr *services.ValidationError
	var upstreamErr *services.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &upstreamErr):
		log.Printf("[%s] Сбой внешней зависимости: %v", component, err)
		writeError(w, http.StatusBadRequest, upstreamErr.Error())
	case errors.Is(err, services.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("[%s] Внутренняя ошибка: %v", component, err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}
