package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"postboard/schemas"
	"postboard/storage"
)

type userDocument struct {
	ID        interface{} `bson:"_id"`
	Email     string      `bson:"email"`
	Username  string      `bson:"username"`
	CreatedAt time.Time   `bson:"createdAt"`
}

// UsersStorage reads the users collection written by the auth service.
type UsersStorage struct {
	usersCollection *mongo.Collection
}

func NewStorage(db *mongo.Database) *UsersStorage {
	return &UsersStorage{usersCollection: db.Collection("users")}
}

func (s *UsersStorage) GetUser(ctx context.Context, userId schemas.UserId) (*schemas.User, error) {
	// ids may be ObjectIDs or plain strings depending on who created the user
	var mongoQuery bson.M
	if oid, err := primitive.ObjectIDFromHex(string(userId)); err == nil {
		mongoQuery = bson.M{"_id": bson.M{"$in": bson.A{oid, string(userId)}}}
	} else {
		mongoQuery = bson.M{"_id": string(userId)}
	}

	var doc userDocument
	err := s.usersCollection.FindOne(ctx, mongoQuery).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userId, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo search failed: %w", err)
	}

	return &schemas.User{
		ID:        userId,
		Email:     doc.Email,
		Username:  doc.Username,
		CreatedAt: doc.CreatedAt,
	}, nil
}
