package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/identity"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения проверенной личности в контексте.
const PrincipalKey contextKey = "principal"

// TokenVerifier проверяет bearer-токен. Не обращается к хранилищу.
type TokenVerifier interface {
	Verify(token string) (identity.Principal, error)
}

// AdminChecker определяет, является ли пользователь администратором.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Authenticator проверяет JWT токен аутентификации и кладет личность в контекст.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем заголовок Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Println("[AuthMiddleware] Заголовок Authorization отсутствует")
				writeError(w, http.StatusUnauthorized, "Требуется аутентификация")
				return
			}

			// Проверяем формат "Bearer token"
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
				log.Printf("[AuthMiddleware] Неверный формат заголовка Authorization")
				writeError(w, http.StatusUnauthorized, "Неверный формат токена")
				return
			}

			principal, err := verifier.Verify(headerParts[1])
			if err != nil {
				log.Printf("[AuthMiddleware] Ошибка валидации токена: %v", err)
				writeError(w, http.StatusUnauthorized, "Невалидный токен")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает запрос, только если роль пользователя из хранилища - admin.
// Должен стоять после Authenticator. Ошибка определения роли означает отказ.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipalFromContext(r.Context())
			if !ok {
				log.Println("[AuthMiddleware] RequireAdmin без аутентифицированного пользователя")
				writeError(w, http.StatusUnauthorized, "Требуется аутентификация")
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), principal.ID)
			if err != nil {
				log.Printf("[AuthMiddleware] Не удалось определить роль %s: %v", principal.ID, err)
				writeError(w, http.StatusForbidden, "Не удалось проверить роль пользователя")
				return
			}
			if !isAdmin {
				log.Printf("[AuthMiddleware] Пользователь %s не администратор, доступ запрещен", principal.ID)
				writeError(w, http.StatusForbidden, "Недостаточно прав: требуется роль администратора")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipalFromContext извлекает проверенную личность из контекста запроса.
func GetPrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(identity.Principal)
	return principal, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message}); err != nil {
		log.Printf("[AuthMiddleware] Ошибка кодирования ответа: %v", err)
	}
}
