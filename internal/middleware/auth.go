package middleware

import (
	"context"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/service"
	"net/http"
)

// AuthCookie is name of cookie carrying admin session token
const AuthCookie = "auth_token"

type contextKey int

const (
	contextKeyPayload contextKey = iota
)

// Auth gets token from cookie, verifies it and passes its payload to context
func Auth(ts service.TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookie)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := ts.VerifyToken(cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

// RequireSuper allows only super admins, must run after Auth
func RequireSuper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := PayloadFromContext(r.Context())
		if !ok || payload.Role != models.AdminRoleSuper {
			http.Error(w, "super admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPayload returns context carrying token payload
func WithPayload(ctx context.Context, payload *models.TokenPayload) context.Context {
	return context.WithValue(ctx, contextKeyPayload, payload)
}

// PayloadFromContext extracts token payload from context
func PayloadFromContext(ctx context.Context) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(contextKeyPayload).(*models.TokenPayload)
	return payload, ok && payload != nil
}
