package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/models"
)

// User exposes the profile and account handlers
type User struct {
	DB databases.UserDatabase
}

// updateProfileRequest uses pointers so absent fields are left untouched
type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// GetProfileHandler returns the caller's profile
func (u User) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByUserID(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to get user", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
}

// UpdateProfileHandler partially updates the caller's profile
func (u User) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}

	set := bson.M{}
	if req.FirstName != nil {
		set["firstName"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		set["lastName"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		set["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		set["avatar"] = *req.Avatar
	}
	if len(set) == 0 {
		respondError(w, "nothing to update", &models.ValidationError{Reason: "no updatable fields provided"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.Update(ctx, caller.UserID, set)
	if err != nil {
		respondError(w, "failed to update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "profile updated",
		"user":    user.Public(),
	})
}

// UpdatePasswordHandler changes the caller's password after verifying the
// current one
func (u User) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(w, "invalid password", &models.ValidationError{Reason: "new password must be at least 8 characters"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByUserID(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to get user", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		respondError(w, "password change failed", &models.AuthError{Reason: "current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, "failed to hash password", err)
		return
	}
	if _, err := u.DB.Update(ctx, caller.UserID, bson.M{"password": string(hash)}); err != nil {
		respondError(w, "failed to update password", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// FirstLoginShownHandler records that the caller has seen the first-login
// walkthrough
func (u User) FirstLoginShownHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.Update(ctx, caller.UserID, bson.M{"firstLoginShown": true}); err != nil {
		respondError(w, "failed to update user", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// ListUsersHandler returns all users, admin only
func (u User) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.DB.FindAll(ctx)
	if err != nil {
		respondError(w, "failed to list users", err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": public})
}
