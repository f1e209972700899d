package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rookgm/cardpay/internal/auth"
	"github.com/rookgm/cardpay/internal/middleware"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/service"
	"net/http"
	"time"
)

//go:generate mockgen -source=auth.go -destination=mocks/auth.go -package=mocks

type AuthService interface {
	// Login checks credentials and returns session token
	Login(ctx context.Context, username, password string) (string, *models.Admin, error)
}

// AuthHandler represents HTTP handler for admin session requests
type AuthHandler struct {
	svc    AuthService
	tokens service.TokenService
}

// NewAuthHandler creates new AuthHandler instance
func NewAuthHandler(svc AuthService, tokens service.TokenService) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Authenticated *bool  `json:"authenticated,omitempty"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
}

// Login authenticates admin and sets session cookie
// 200 - admin is authenticated;
// 400 - malformed request;
// 401 - invalid username or password;
// 500 - internal server error.
func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password required")
			return
		}

		token, admin, err := ah.svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(auth.TokenTTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, sessionResponse{
			Success:  true,
			Message:  "login successful",
			Username: admin.Username,
			Role:     admin.Role,
		})
	}
}

// Logout drops session cookie
func (ah *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})

		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Message: "logged out successfully"})
	}
}

// Check reports whether request carries valid session
func (ah *AuthHandler) Check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated := false
		resp := sessionResponse{Success: true, Authenticated: &authenticated}

		if cookie, err := r.Cookie(middleware.AuthCookie); err == nil {
			if payload, err := ah.tokens.VerifyToken(cookie.Value); err == nil {
				authenticated = true
				resp.Username = payload.Username
				resp.Role = payload.Role
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
