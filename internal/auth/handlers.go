package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const refreshCookie = "refresh_token"

// POST /api/auth/login  { "username": "...", "password": "..." }
// Returns an access token and sets the refresh token as an HttpOnly cookie.
func LoginHandler(svc *Service, users *UserRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		access, err := svc.IssueAccess(u.ID)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		refresh, err := svc.IssueRefresh(u.ID)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     refreshCookie,
			Value:    refresh,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Path:     "/api/auth",
			MaxAge:   int(svc.RefreshTTL() / time.Second),
		})
		_ = json.NewEncoder(w).Encode(map[string]string{"access": access})
	}
}

// POST /api/auth/refresh — rotates the access token off the cookie.
func RefreshHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(refreshCookie)
		if err != nil || c.Value == "" {
			http.Error(w, "no refresh token", http.StatusUnauthorized)
			return
		}
		claims, err := svc.Parse(c.Value, "refresh")
		if err != nil {
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		access, err := svc.IssueAccess(claims.Sub)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": access})
	}
}

// JWTMiddleware verifies the bearer token and puts the subject in context.
func JWTMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := svc.Parse(strings.TrimPrefix(h, "Bearer "), "access")
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Sub)))
		})
	}
}
