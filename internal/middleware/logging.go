package middleware

import (
	"net/http"
	"runtime/debug"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a logged 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				userID, _ := utils.GetUserIDFromContext(r.Context())
				logger.FromCtx(r.Context()).Error("panic serving request",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("user_id", userID.String()),
					zap.ByteString("stack", debug.Stack()),
				)
				utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
