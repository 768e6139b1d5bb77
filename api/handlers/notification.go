package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/notifier"
)

// Notification exposes the notification inbox handlers
type Notification struct {
	NDB      databases.NotificationDatabase
	Notifier Notifier
}

type createNotificationRequest struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	SendEmail   bool   `json:"sendEmail"`
}

// GetNotificationsHandler lists the caller's notifications, newest first
func (h Notification) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	notifications, err := h.NDB.FindByRecipientID(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to list notifications", err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// MarkReadHandler flips a single notification of the caller to read. A
// notification owned by someone else reads as missing.
func (h Notification) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())
	notificationID := mux.Vars(r)["notification_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.NDB.MarkRead(ctx, caller.UserID, notificationID); err != nil {
		respondError(w, "failed to mark notification read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllReadHandler flips every unread notification of the caller to read.
// Running it twice is harmless, the second call simply matches nothing.
func (h Notification) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := h.NDB.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to mark notifications read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "notifications marked read",
		"updated": updated,
	})
}

// DeleteNotificationHandler removes a single notification of the caller
func (h Notification) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())
	notificationID := mux.Vars(r)["notification_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.NDB.Delete(ctx, caller.UserID, notificationID); err != nil {
		respondError(w, "failed to delete notification", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

// DeleteAllNotificationsHandler clears the caller's inbox
func (h Notification) DeleteAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := h.NDB.DeleteAllForRecipient(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to delete notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "notifications deleted",
		"deleted": deleted,
	})
}

// CreateNotificationHandler sends a notification straight through the
// emitter, admin only
func (h Notification) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.RecipientID == "" || req.Message == "" {
		respondError(w, "invalid notification",
			&models.ValidationError{Reason: "recipientId and message are required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	notification, err := h.Notifier.Notify(ctx, req.RecipientID, req.Message, notifier.Options{
		Type:       req.Type,
		ForceEmail: req.SendEmail,
	})
	if err != nil {
		respondError(w, "failed to send notification", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "notification sent",
		"notification": notification,
	})
}
