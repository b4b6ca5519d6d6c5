package middleware

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"
)

// JSONRecoverer перехватывает панику обработчика и отвечает 500 с общим сообщением.
// Детали паники пишутся только в лог.
func JSONRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			log.Printf("[Recoverer] Паника при обработке %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
			writeError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}()
		next.ServeHTTP(w, r)
	})
}
