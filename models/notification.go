package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationGeneral       = "general"
	NotificationNewReport     = "new-report"
	NotificationStatusUpdate  = "status-update"
	NotificationReportDeleted = "report-deleted"
)

// Notification holds the structure for the notifications collection in mongo.
// NotificationID is assigned before the insert so the realtime payload always
// carries the same identifier the row persists with.
type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	NotificationID string             `bson:"notificationId" json:"id"`
	RecipientID    string             `bson:"recipientId" json:"recipientId"`
	Message        string             `bson:"message" json:"message"`
	Type           string             `bson:"type" json:"type"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
