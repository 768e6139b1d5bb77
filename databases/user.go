package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ireporter/ireporter-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	Insert(ctx context.Context, user models.User) error
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, userID string, set bson.M) (*models.User, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (c *userDatabase) Insert(ctx context.Context, user models.User) error {
	_, err := c.db.Collection(userName).InsertOne(ctx, user)
	return err
}

func (c *userDatabase) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	err := c.db.Collection(userName).FindOne(ctx, bson.M{"userId": userID}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &models.NotFoundError{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *userDatabase) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := c.db.Collection(userName).FindOne(ctx, bson.M{"email": email}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &models.NotFoundError{Resource: "user", ID: email}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *userDatabase) FindAdmins(ctx context.Context) ([]models.User, error) {
	cursor, err := c.db.Collection(userName).Find(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *userDatabase) FindAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.db.Collection(userName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *userDatabase) Update(ctx context.Context, userID string, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	user := &models.User{}
	err := c.db.Collection(userName).
		FindOneAndUpdate(ctx, bson.M{"userId": userID}, bson.M{"$set": set}, opts).
		Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &models.NotFoundError{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
