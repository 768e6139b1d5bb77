package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/databases/mocks"
	"github.com/ireporter/ireporter-api/models"
)

func TestGetNotificationsReturnsCallersInbox(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("FindByRecipientID", mock.Anything, "user-1").Return([]models.Notification{
		{NotificationID: "n-1", RecipientID: "user-1", Message: "newest"},
		{NotificationID: "n-2", RecipientID: "user-1", Message: "older"},
	}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/notifications", "", api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.GetNotificationsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "newest")
	assert.Contains(t, w.Body.String(), "older")
}

func TestGetNotificationsEmptyInboxIsAList(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("FindByRecipientID", mock.Anything, "user-1").Return(nil, nil)

	req := authedRequest(http.MethodGet, "/api/v1/notifications", "", api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.GetNotificationsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notifications":[]`)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("MarkRead", mock.Anything, "user-1", "nope").
		Return(&models.NotFoundError{Resource: "notification", ID: "nope"})

	req := authedRequest(http.MethodPut, "/api/v1/notifications/nope/read", "", api.AuthUser{UserID: "user-1"})
	req = mux.SetURLVars(req, map[string]string{"notification_id": "nope"})
	w := httptest.NewRecorder()

	h.MarkReadHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("MarkAllRead", mock.Anything, "user-1").Return(int64(3), nil).Once()
	notificationDB.On("MarkAllRead", mock.Anything, "user-1").Return(int64(0), nil).Once()

	for _, want := range []string{`"updated":3`, `"updated":0`} {
		req := authedRequest(http.MethodPut, "/api/v1/notifications/mark-all-read", "", api.AuthUser{UserID: "user-1"})
		w := httptest.NewRecorder()

		h.MarkAllReadHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), want)
	}
}

func TestDeleteNotification(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("Delete", mock.Anything, "user-1", "n-1").Return(nil)

	req := authedRequest(http.MethodDelete, "/api/v1/notifications/n-1", "", api.AuthUser{UserID: "user-1"})
	req = mux.SetURLVars(req, map[string]string{"notification_id": "n-1"})
	w := httptest.NewRecorder()

	h.DeleteNotificationHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteNotificationOwnedBySomeoneElse(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	// the delete is scoped to the caller, another user's id matches nothing
	notificationDB.On("Delete", mock.Anything, "user-2", "n-1").
		Return(&models.NotFoundError{Resource: "notification", ID: "n-1"})

	req := authedRequest(http.MethodDelete, "/api/v1/notifications/n-1", "", api.AuthUser{UserID: "user-2"})
	req = mux.SetURLVars(req, map[string]string{"notification_id": "n-1"})
	w := httptest.NewRecorder()

	h.DeleteNotificationHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAllNotifications(t *testing.T) {
	notificationDB := mocks.NewNotificationDatabase(t)
	h := Notification{NDB: notificationDB, Notifier: &fakeNotifier{}}

	notificationDB.On("DeleteAllForRecipient", mock.Anything, "user-1").Return(int64(7), nil)

	req := authedRequest(http.MethodDelete, "/api/v1/notifications", "", api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.DeleteAllNotificationsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":7`)
}

func TestCreateNotificationUnknownRecipient(t *testing.T) {
	n := &fakeNotifier{err: &models.NotFoundError{Resource: "user", ID: "ghost"}}
	h := Notification{NDB: mocks.NewNotificationDatabase(t), Notifier: n}

	body := `{"recipientId": "ghost", "message": "hello?"}`
	req := authedRequest(http.MethodPost, "/api/v1/notifications", body, api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	w := httptest.NewRecorder()

	h.CreateNotificationHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateNotificationForcesEmailWhenAsked(t *testing.T) {
	n := &fakeNotifier{}
	h := Notification{NDB: mocks.NewNotificationDatabase(t), Notifier: n}

	body := `{"recipientId": "user-1", "message": "maintenance tonight", "sendEmail": true}`
	req := authedRequest(http.MethodPost, "/api/v1/notifications", body, api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	w := httptest.NewRecorder()

	h.CreateNotificationHandler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, n.calls, 1)
	assert.Equal(t, "maintenance tonight", n.calls[0].message)
	assert.True(t, n.calls[0].opts.ForceEmail)
}

func TestCreateNotificationRequiresRecipientAndMessage(t *testing.T) {
	n := &fakeNotifier{}
	h := Notification{NDB: mocks.NewNotificationDatabase(t), Notifier: n}

	req := authedRequest(http.MethodPost, "/api/v1/notifications", `{"message": "   "}`,
		api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	w := httptest.NewRecorder()

	h.CreateNotificationHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, n.calls)
}
