// Package scheduler runs the periodic notification jobs: the daily unread
// digest email and the nightly cleanup of old read notifications.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/mailer"
	"github.com/ireporter/ireporter-api/models"
	templates "github.com/ireporter/ireporter-api/templates/html"
)

const (
	// read notifications older than this get purged
	retention = 90 * 24 * time.Hour

	jobTimeout = 5 * time.Minute
)

// Scheduler handles the periodic background jobs
type Scheduler struct {
	cron   *cron.Cron
	UDB    databases.UserDatabase
	NDB    databases.NotificationDatabase
	Mailer mailer.Mailer
}

// New creates a new scheduler instance
func New(udb databases.UserDatabase, ndb databases.NotificationDatabase, m mailer.Mailer) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		UDB:    udb,
		NDB:    ndb,
		Mailer: m,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// unread digest every morning at 8 AM UTC
	if _, err := s.cron.AddFunc("0 8 * * *", s.SendUnreadDigests); err != nil {
		zap.S().Errorw("failed to register digest job", "error", err)
	}

	// purge old read notifications nightly at 3:30 AM UTC
	if _, err := s.cron.AddFunc("30 3 * * *", s.PurgeReadNotifications); err != nil {
		zap.S().Errorw("failed to register purge job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("notification scheduler started")
}

// Stop gracefully stops the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("notification scheduler stopped")
}

// SendUnreadDigests emails every user with unread notifications a summary of
// what is waiting for them. Everything is best effort, a failure for one
// user never blocks the rest.
func (s *Scheduler) SendUnreadDigests() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	unread, err := s.NDB.FindUnread(ctx)
	if err != nil {
		zap.S().Errorw("digest: failed to load unread notifications", "error", err)
		return
	}
	if len(unread) == 0 {
		return
	}

	// FindUnread returns newest first, so the first notification we see per
	// recipient is their latest
	byRecipient := make(map[string][]models.Notification)
	for _, n := range unread {
		byRecipient[n.RecipientID] = append(byRecipient[n.RecipientID], n)
	}

	sent := 0
	for recipientID, notifications := range byRecipient {
		user, err := s.UDB.FindByUserID(ctx, recipientID)
		if err != nil {
			zap.S().Warnw("digest: failed to resolve recipient", "recipientId", recipientID, "error", err)
			continue
		}
		if user.Email == "" {
			continue
		}

		subject := fmt.Sprintf("You have %d unread notifications", len(notifications))
		if len(notifications) == 1 {
			subject = "You have 1 unread notification"
		}
		body := fmt.Sprintf("Most recent: %s\n\nSign in to see the rest of your inbox.", notifications[0].Message)

		html := templates.RenderGenericEmail(subject, body)
		if err := s.Mailer.Send(user.Email, user.DisplayName(), subject, body, html); err != nil {
			zap.S().Errorw("digest: failed to send email", "recipientId", recipientID, "error", err)
			continue
		}
		sent++
	}
	zap.S().Infow("digest run complete", "recipients", len(byRecipient), "sent", sent)
}

// PurgeReadNotifications removes read notifications past the retention window
func (s *Scheduler) PurgeReadNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.NDB.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("purge: failed to delete old notifications", "error", err)
		return
	}
	zap.S().Infow("purge run complete", "deleted", deleted, "cutoff", cutoff)
}
