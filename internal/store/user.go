package store

import (
	"context"
	"errors"
	"time"

	"github.com/movie-watchlist/apiserver/internal/db"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollection = "users"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *db.Manager
}

func NewUserRepository(db *db.Manager) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.db.Collection(ctx, userCollection)
}

// EnsureIndexes creates the unique index backing email uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.User{}, err
	}

	var user types.User
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.User{}, err
	}

	var user types.User
	err = coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.User{}, err
	}

	user.RegisterDate = time.Now()
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}

	result, err := coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// AddFavorite adds the movie reference to the user's favorites set.
// Adding a reference already present is a no-op ($addToSet semantics).
func (r *UserRepository) AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return r.updateFavorites(ctx, userID, bson.M{
		"$addToSet": bson.M{"favorites": movieID},
	})
}

// RemoveFavorite removes the movie reference from the user's favorites set.
// Removing a reference that was never present still succeeds.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return r.updateFavorites(ctx, userID, bson.M{
		"$pull": bson.M{"favorites": movieID},
	})
}

func (r *UserRepository) updateFavorites(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Favorites returns the user's favorite movie ids in insertion order.
func (r *UserRepository) Favorites(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Favorites == nil {
		return []primitive.ObjectID{}, nil
	}
	return user.Favorites, nil
}
