package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ireporter/ireporter-api/models"
)

const reportName = "reports"

// ReportDatabase contains the methods to use with the report database
type ReportDatabase interface {
	Insert(ctx context.Context, report models.Report) error
	FindByReportID(ctx context.Context, reportID string) (*models.Report, error)
	FindAll(ctx context.Context) ([]models.Report, error)
	FindByOwnerID(ctx context.Context, ownerID string) ([]models.Report, error)
	UpdateStatus(ctx context.Context, reportID, status string) (*models.Report, error)
	Delete(ctx context.Context, reportID string) error
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (c *reportDatabase) Insert(ctx context.Context, report models.Report) error {
	_, err := c.db.Collection(reportName).InsertOne(ctx, report)
	return err
}

func (c *reportDatabase) FindByReportID(ctx context.Context, reportID string) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, bson.M{"reportId": reportID}).Decode(report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &models.NotFoundError{Resource: "report", ID: reportID}
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) FindAll(ctx context.Context) ([]models.Report, error) {
	return c.find(ctx, bson.M{})
}

func (c *reportDatabase) FindByOwnerID(ctx context.Context, ownerID string) ([]models.Report, error) {
	return c.find(ctx, bson.M{"ownerId": ownerID})
}

func (c *reportDatabase) find(ctx context.Context, filter bson.M) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.db.Collection(reportName).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *reportDatabase) UpdateStatus(ctx context.Context, reportID, status string) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	report := &models.Report{}
	err := c.db.Collection(reportName).
		FindOneAndUpdate(ctx, bson.M{"reportId": reportID}, bson.M{"$set": bson.M{"status": status}}, opts).
		Decode(report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &models.NotFoundError{Resource: "report", ID: reportID}
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) Delete(ctx context.Context, reportID string) error {
	deleted, err := c.db.Collection(reportName).DeleteOne(ctx, bson.M{"reportId": reportID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &models.NotFoundError{Resource: "report", ID: reportID}
	}
	return nil
}
