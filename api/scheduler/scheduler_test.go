package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ireporter/ireporter-api/databases/mocks"
	"github.com/ireporter/ireporter-api/models"
)

type recordingMailer struct {
	mu    sync.Mutex
	err   error
	sends []string // subjects
}

func (m *recordingMailer) Send(toEmail, toName, subject, plainText, htmlContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, subject)
	return m.err
}

func TestSendUnreadDigestsGroupsByRecipient(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	notificationDB := mocks.NewNotificationDatabase(t)
	m := &recordingMailer{}
	s := New(userDB, notificationDB, m)

	notificationDB.On("FindUnread", mock.Anything).Return([]models.Notification{
		{NotificationID: "n-1", RecipientID: "user-1", Message: "latest for one"},
		{NotificationID: "n-2", RecipientID: "user-1", Message: "older for one"},
		{NotificationID: "n-3", RecipientID: "user-2", Message: "only for two"},
	}, nil)
	userDB.On("FindByUserID", mock.Anything, "user-1").
		Return(&models.User{UserID: "user-1", Email: "one@example.com"}, nil)
	userDB.On("FindByUserID", mock.Anything, "user-2").
		Return(&models.User{UserID: "user-2", Email: "two@example.com"}, nil)

	s.SendUnreadDigests()

	assert.Len(t, m.sends, 2)
	assert.Contains(t, m.sends, "You have 2 unread notifications")
	assert.Contains(t, m.sends, "You have 1 unread notification")
}

func TestSendUnreadDigestsSkipsUsersWithoutEmail(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	notificationDB := mocks.NewNotificationDatabase(t)
	m := &recordingMailer{}
	s := New(userDB, notificationDB, m)

	notificationDB.On("FindUnread", mock.Anything).Return([]models.Notification{
		{NotificationID: "n-1", RecipientID: "user-1", Message: "hello"},
	}, nil)
	userDB.On("FindByUserID", mock.Anything, "user-1").
		Return(&models.User{UserID: "user-1"}, nil)

	s.SendUnreadDigests()

	assert.Empty(t, m.sends)
}

func TestSendUnreadDigestsSurvivesMailerFailure(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	notificationDB := mocks.NewNotificationDatabase(t)
	m := &recordingMailer{err: errors.New("relay down")}
	s := New(userDB, notificationDB, m)

	notificationDB.On("FindUnread", mock.Anything).Return([]models.Notification{
		{NotificationID: "n-1", RecipientID: "user-1", Message: "hello"},
	}, nil)
	userDB.On("FindByUserID", mock.Anything, "user-1").
		Return(&models.User{UserID: "user-1", Email: "one@example.com"}, nil)

	// must not panic, the failure is logged and the run continues
	s.SendUnreadDigests()

	assert.Len(t, m.sends, 1)
}

func TestPurgeReadNotifications(t *testing.T) {
	userDB := mocks.NewUserDatabase(t)
	notificationDB := mocks.NewNotificationDatabase(t)
	s := New(userDB, notificationDB, &recordingMailer{})

	notificationDB.On("DeleteReadOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		// cutoff sits roughly 90 days in the past
		return time.Since(cutoff) > 89*24*time.Hour && time.Since(cutoff) < 91*24*time.Hour
	})).Return(int64(12), nil)

	s.PurgeReadNotifications()
}
