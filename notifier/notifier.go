// Package notifier delivers user notifications over the realtime channel with
// email fallback for offline recipients.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/mailer"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/realtime"
	templates "github.com/ireporter/ireporter-api/templates/html"
)

// Presence answers whether a user has a live realtime connection and pushes
// events to it. Implemented by realtime.Hub.
type Presence interface {
	IsOnline(userID string) bool
	SendTo(userID, event string, data interface{})
}

// Options tweaks a single Notify call. The zero value means a plain
// notification: realtime when online, email when offline.
type Options struct {
	// Type tags the notification, defaults to models.NotificationGeneral
	Type string
	// ForceEmail sends the email even when the recipient is online
	ForceEmail bool
	// EmailSubject overrides the default email subject
	EmailSubject string
	// Report attaches the related report to the realtime payload
	Report *models.Report
}

// Event is the payload shape of a notification:new realtime event
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
	Report    *models.Report `json:"report,omitempty"`
}

// Service owns notification delivery. All fields are required except Mailer,
// which may be nil to disable email entirely.
type Service struct {
	Users         databases.UserDatabase
	Notifications databases.NotificationDatabase
	Presence      Presence
	Mailer        mailer.Mailer
	Tasks         *TaskQueue
}

// Notify creates a notification for the recipient and delivers it.
// The recipient must exist, a missing user fails with *models.NotFoundError
// before anything is persisted. Online recipients get a notification:new
// push immediately, the push does not wait on storage. Offline recipients
// (or any recipient when ForceEmail is set) get the message by email on a
// background task. Email failures are logged, never returned.
func (s *Service) Notify(ctx context.Context, recipientID, message string, opts Options) (*models.Notification, error) {
	user, err := s.Users.FindByUserID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	notificationType := opts.Type
	if notificationType == "" {
		notificationType = models.NotificationGeneral
	}

	// the id is assigned up front so the realtime payload and the stored row
	// always agree
	notification := models.Notification{
		NotificationID: uuid.NewString(),
		RecipientID:    recipientID,
		Message:        message,
		Type:           notificationType,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}

	online := s.Presence.IsOnline(recipientID)
	if online {
		s.Presence.SendTo(recipientID, realtime.EventNotificationNew, Event{
			ID:        notification.NotificationID,
			Type:      notification.Type,
			Message:   notification.Message,
			Read:      notification.Read,
			CreatedAt: notification.CreatedAt,
			Report:    opts.Report,
		})
	}

	if err := s.Notifications.Insert(ctx, notification); err != nil {
		return nil, &models.UpstreamError{Op: "persist notification", Err: err}
	}

	if !online || opts.ForceEmail {
		s.queueEmail(*user, notification, opts)
	}

	return &notification, nil
}

func (s *Service) queueEmail(user models.User, notification models.Notification, opts Options) {
	if s.Mailer == nil {
		return
	}
	if user.Email == "" {
		zap.S().Debugw("recipient has no email on file, skipping",
			"recipientId", notification.RecipientID)
		return
	}

	subject := opts.EmailSubject
	if subject == "" {
		subject = "You have a new notification"
	}

	toEmail := user.Email
	toName := user.DisplayName()
	message := notification.Message

	s.Tasks.Submit(func() {
		html := templates.RenderGenericEmail(subject, message)
		if err := s.Mailer.Send(toEmail, toName, subject, message, html); err != nil {
			zap.S().Errorw("failed to send notification email",
				"recipientId", notification.RecipientID,
				"notificationId", notification.NotificationID,
				"error", err)
		}
	})
}
