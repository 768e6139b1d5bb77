package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenCookieName is the cookie the auth token travels in
const TokenCookieName = "token"

// AuthUser is the authenticated caller attached to the request context
type AuthUser struct {
	UserID string
	Role   string
}

type contextKey int

const authUserKey contextKey = iota

// WithAuthUser attaches the authenticated caller to the context
func WithAuthUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// UserFromContext returns the authenticated caller, if any
func UserFromContext(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(AuthUser)
	return user, ok
}

// Middleware verifies the JWT from the token cookie or the Authorization
// bearer header and attaches the caller to the request context
type Middleware struct {
	Secret []byte
}

// Protect rejects unauthenticated requests with a 401
func (m Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := m.authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL, "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
	})
}

// ProtectAdmin rejects unauthenticated requests with a 401 and authenticated
// non-admins with a 403
func (m Middleware) ProtectAdmin(next http.Handler) http.Handler {
	return m.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if user.Role != "admin" {
			zap.S().Debugw("forbidden, admin role required", "url", r.URL, "userId", user.UserID)
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m Middleware) authenticate(r *http.Request) (AuthUser, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return AuthUser{}, fmt.Errorf("no token provided")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		return AuthUser{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return AuthUser{}, fmt.Errorf("invalid token claims")
	}

	uid, _ := claims["uid"].(string)
	role, _ := claims["role"].(string)
	if uid == "" {
		return AuthUser{}, fmt.Errorf("token missing uid claim")
	}
	return AuthUser{UserID: uid, Role: role}, nil
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
