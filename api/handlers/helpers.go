package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ireporter/ireporter-api/config"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/notifier"
)

// Notifier is what handlers need from the notification emitter, narrowed so
// tests can swap in a fake
type Notifier interface {
	Notify(ctx context.Context, recipientID, message string, opts notifier.Options) (*models.Notification, error)
}

// respondJSON writes v with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// respondError maps the domain error taxonomy to HTTP statuses
func respondError(w http.ResponseWriter, message string, err error) {
	var validation *models.ValidationError
	var notFound *models.NotFoundError
	var auth *models.AuthError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &auth):
		status = http.StatusUnauthorized
	}
	config.ErrorStatus(message, status, w, err)
}
