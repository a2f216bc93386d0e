// File: database/repository/user/user_mongo.go
package userRepo

import (
	"context"
	"errors"
	"fmt"

	"medisched/config"
	"medisched/database"
	"medisched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo constructs a new MongoDB UserRepository.
func NewMongoUserRepo() UserRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoUserRepo{coll: db.Collection("users")}
}

// GetByID retrieves a user document by ID.
func (repo *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	filter := bson.M{"id": id}
	if err := repo.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching user with id %s: %w", id, err)
	}
	return &user, nil
}

// UpdateAvailability overwrites the doctor's stored weekly schedule string.
func (repo *MongoUserRepo) UpdateAvailability(ctx context.Context, doctorID, encoded string) error {
	filter := bson.M{"id": doctorID, "role": models.RoleDoctor}
	update := bson.M{"$set": bson.M{"availability": encoded}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating availability for doctor %s: %w", doctorID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
