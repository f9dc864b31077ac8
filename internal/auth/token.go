package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	CookieName = "access_token"
	cookieTTL  = 24 * time.Hour
)

// ExtractAccessToken reads the session token from the cookie first and
// falls back to a bearer Authorization header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// AccessTokenCookie carries a freshly issued token to browsers. secure is
// off only for local development over plain HTTP.
func AccessTokenCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
