package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/config"
	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/models"
)

const tokenTTL = 24 * time.Hour

// Auth exposes the register, login, logout and me handlers
type Auth struct {
	DB     databases.UserDatabase
	Secret []byte
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new user account and signs it in. Every account
// registers with the user role, admins are promoted out of band.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.Email == "" || len(req.Password) < 8 {
		respondError(w, "invalid registration",
			&models.ValidationError{Reason: "firstName, email and a password of at least 8 characters are required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := a.DB.FindByEmail(ctx, req.Email)
	if err == nil {
		config.ErrorStatus("email already registered", http.StatusConflict, w,
			errors.New("duplicate email"))
		return
	}
	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		respondError(w, "failed to check email", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, "failed to hash password", err)
		return
	}

	user := models.User{
		UserID:    uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Password:  string(hash),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.DB.Insert(ctx, user); err != nil {
		respondError(w, "failed to create user", err)
		return
	}

	if err := a.setTokenCookie(w, user); err != nil {
		respondError(w, "failed to sign token", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "account created",
		"user":    user.Public(),
	})
}

// LoginHandler verifies credentials and sets the auth cookie. Unknown emails
// and wrong passwords get the same answer.
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			respondError(w, "login failed", &models.AuthError{Reason: "invalid email or password"})
			return
		}
		respondError(w, "failed to look up user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, "login failed", &models.AuthError{Reason: "invalid email or password"})
		return
	}

	if err := a.setTokenCookie(w, *user); err != nil {
		respondError(w, "failed to sign token", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "logged in",
		"user":    user.Public(),
	})
}

// LogoutHandler clears the auth cookie
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// MeHandler resolves the auth cookie to the caller's profile
func (a Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindByUserID(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to get user", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
}

func (a Auth) setTokenCookie(w http.ResponseWriter, user models.User) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":  user.UserID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return err
	}

	// the frontend is served from another origin, hence SameSite=None
	http.SetCookie(w, &http.Cookie{
		Name:     api.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return nil
}
