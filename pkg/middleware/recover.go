package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Recoverer turns a handler panic into a 500 response. The panic is logged
// with its stack and, when hub is non-nil, reported to Sentry.
func Recoverer(logger *zap.Logger, hub *sentry.Hub) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Handler panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))

				if hub != nil {
					local := hub.Clone()
					local.Scope().SetRequest(r)
					local.Recover(fmt.Errorf("panic: %v", rec))
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "internal_error",
					"message": "Internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
