package services

import (
	"errors"
	"strings"
)

// ValidationError - в запросе отсутствуют или некорректны поля.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "отсутствуют обязательные поля: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

// UpstreamError - сбой провайдера идентификации или хранилища при выполнении действия.
// Сообщение исходной ошибки передается клиенту.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

func missingFields(fields ...string) error {
	return &ValidationError{Missing: fields}
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// Кастомные ошибки сервисного слоя.
var (
	ErrUnauthorized = errors.New("требуется аутентификация")
	ErrForbidden    = errors.New("недостаточно прав: требуется роль администратора")
)
