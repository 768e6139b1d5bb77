package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ireporter/ireporter-api/models"
)

const notificationName = "notifications"

// NotificationDatabase contains the methods to use with the notification database
type NotificationDatabase interface {
	Insert(ctx context.Context, notification models.Notification) error
	FindByRecipientID(ctx context.Context, recipientID string) ([]models.Notification, error)
	FindUnread(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, recipientID, notificationID string) error
	DeleteAllForRecipient(ctx context.Context, recipientID string) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

func (c *notificationDatabase) Insert(ctx context.Context, notification models.Notification) error {
	_, err := c.db.Collection(notificationName).InsertOne(ctx, notification)
	return err
}

func (c *notificationDatabase) FindByRecipientID(ctx context.Context, recipientID string) ([]models.Notification, error) {
	return c.find(ctx, bson.M{"recipientId": recipientID})
}

func (c *notificationDatabase) FindUnread(ctx context.Context) ([]models.Notification, error) {
	return c.find(ctx, bson.M{"read": false})
}

func (c *notificationDatabase) find(ctx context.Context, filter bson.M) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.db.Collection(notificationName).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flips one notification to read. The filter carries the recipient
// so a caller can only touch their own inbox, a foreign id reads as missing.
func (c *notificationDatabase) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	res, err := c.db.Collection(notificationName).
		UpdateOne(ctx, bson.M{"notificationId": notificationID, "recipientId": recipientID},
			bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &models.NotFoundError{Resource: "notification", ID: notificationID}
	}
	return nil
}

func (c *notificationDatabase) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := c.db.Collection(notificationName).
		UpdateMany(ctx, bson.M{"recipientId": recipientID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes one notification, scoped to the recipient like MarkRead
func (c *notificationDatabase) Delete(ctx context.Context, recipientID, notificationID string) error {
	deleted, err := c.db.Collection(notificationName).
		DeleteOne(ctx, bson.M{"notificationId": notificationID, "recipientId": recipientID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &models.NotFoundError{Resource: "notification", ID: notificationID}
	}
	return nil
}

func (c *notificationDatabase) DeleteAllForRecipient(ctx context.Context, recipientID string) (int64, error) {
	return c.db.Collection(notificationName).DeleteMany(ctx, bson.M{"recipientId": recipientID})
}

func (c *notificationDatabase) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return c.db.Collection(notificationName).DeleteMany(ctx, bson.M{
		"read":      true,
		"createdAt": bson.M{"$lt": cutoff},
	})
}
