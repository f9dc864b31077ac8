package middleware

import (
	"net/http"

	"tailorshop-be/internal/auth"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/user"
	"tailorshop-be/internal/utils"

	"go.uber.org/zap"
)

// Auth attaches the caller's identity to the request context when a valid
// token is present. Requests without one continue anonymously and the
// services decide what they may do.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := user.ParseJWT(token)
		if err != nil {
			logger.FromCtx(r.Context()).Debug("ignoring invalid token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
