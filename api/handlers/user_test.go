package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/databases/mocks"
	"github.com/ireporter/ireporter-api/models"
)

func TestUpdateProfileOnlyTouchesProvidedFields(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	h := User{DB: userDB}

	userDB.On("Update", mock.Anything, "user-1", bson.M{"bio": "night owl", "phone": "555-0100"}).
		Return(&models.User{UserID: "user-1", Bio: "night owl", Phone: "555-0100"}, nil)

	body := `{"bio": "night owl", "phone": "555-0100"}`
	req := authedRequest(http.MethodPut, "/api/v1/users/profile", body, api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.UpdateProfileHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "night owl")
}

func TestUpdateProfileNothingToUpdate(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	h := User{DB: userDB}

	req := authedRequest(http.MethodPut, "/api/v1/users/profile", `{}`, api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.UpdateProfileHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	userDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePasswordVerifiesCurrent(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	assert.NoError(t, err)

	userDB := mocks.NewUserDatabase(t)
	h := User{DB: userDB}

	userDB.On("FindByUserID", mock.Anything, "user-1").
		Return(&models.User{UserID: "user-1", Password: string(hash)}, nil)

	body := `{"currentPassword": "not-the-old-one", "newPassword": "brand-new-password"}`
	req := authedRequest(http.MethodPut, "/api/v1/users/password", body, api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.UpdatePasswordHandler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	userDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestFirstLoginShown(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	h := User{DB: userDB}

	userDB.On("Update", mock.Anything, "user-1", bson.M{"firstLoginShown": true}).
		Return(&models.User{UserID: "user-1", FirstLoginShown: true}, nil)

	req := authedRequest(http.MethodPut, "/api/v1/users/first-login-shown", "", api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.FirstLoginShownHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListUsersNeverLeaksPasswordHashes(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	h := User{DB: userDB}

	userDB.On("FindAll", mock.Anything).Return([]models.User{
		{UserID: "user-1", FirstName: "Ada", Password: "$2a$10$secret-hash"},
	}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/users", "", api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	w := httptest.NewRecorder()

	h.ListUsersHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada")
	assert.NotContains(t, w.Body.String(), "secret-hash")
}
