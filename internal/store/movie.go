package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/movie-watchlist/apiserver/internal/db"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const movieCollection = "movies"

// searchableFields maps the permitted search keys to their stored field
// names. Keys outside this table are rejected so internal fields (version,
// timestamps, _id) stay unreachable.
var searchableFields = map[string]string{
	"title": "title",
	"genre": "genre",
	"owner": "owner",
}

// ErrUnsearchableField is returned for search keys outside the allow-list.
var ErrUnsearchableField = errors.New("unsupported search field")

// MovieRepository handles persistence for movies.
type MovieRepository struct {
	db *db.Manager
}

func NewMovieRepository(db *db.Manager) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.db.Collection(ctx, movieCollection)
}

// List returns movies matching the filter, newest-created first.
func (r *MovieRepository) List(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := coll.Find(ctx, movieFilter(filter), opts)
	if err != nil {
		return nil, err
	}

	movies := make([]types.Movie, 0)
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *MovieRepository) Get(ctx context.Context, id primitive.ObjectID) (types.Movie, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.Movie{}, err
	}

	var movie types.Movie
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Movie{}, ErrNotFound
		}
		return types.Movie{}, err
	}
	return movie, nil
}

func (r *MovieRepository) Create(ctx context.Context, movie types.Movie) (types.Movie, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.Movie{}, err
	}

	now := time.Now()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	movie.Version = 0

	result, err := coll.InsertOne(ctx, movie)
	if err != nil {
		return types.Movie{}, err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		movie.ID = id
	}
	return movie, nil
}

// Update applies the non-nil changes to the movie and bumps the version
// counter by exactly one. The version counter is never part of the $set
// document, so client input cannot reset it.
func (r *MovieRepository) Update(ctx context.Context, id primitive.ObjectID, changes types.MovieChanges) (types.Movie, error) {
	set := bson.M{"updatedAt": time.Now()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Genre != nil {
		set["genre"] = *changes.Genre
	}
	if changes.ReleaseYear != nil {
		set["releaseYear"] = *changes.ReleaseYear
	}
	if changes.Watched != nil {
		set["watched"] = *changes.Watched
	}
	if changes.Rating != nil {
		set["rating"] = *changes.Rating
	}
	if changes.PosterURL != nil {
		set["posterUrl"] = *changes.PosterURL
	}
	if changes.Owner != nil {
		set["owner"] = *changes.Owner
	}

	return r.applyUpdate(ctx, id, bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	})
}

// UpdateRating sets only the rating, bumping the version counter.
func (r *MovieRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64) (types.Movie, error) {
	return r.applyUpdate(ctx, id, bson.M{
		"$set": bson.M{"rating": rating, "updatedAt": time.Now()},
		"$inc": bson.M{"version": 1},
	})
}

func (r *MovieRepository) applyUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (types.Movie, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return types.Movie{}, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var movie types.Movie
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Movie{}, ErrNotFound
		}
		return types.Movie{}, err
	}
	return movie, nil
}

func (r *MovieRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches movies whose field contains the value, case-insensitively.
// The field must come from the searchable allow-list.
func (r *MovieRepository) Search(ctx context.Context, field, value string) ([]types.Movie, error) {
	stored, ok := searchableFields[field]
	if !ok {
		return nil, ErrUnsearchableField
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{stored: containsPattern(value)})
	if err != nil {
		return nil, err
	}

	movies := make([]types.Movie, 0)
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ListByIDs returns the movies whose ids appear in the given set. Ids with
// no matching document are simply absent from the result.
func (r *MovieRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.Movie, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	movies := make([]types.Movie, 0, len(ids))
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func movieFilter(f types.MovieFilter) bson.M {
	filter := bson.M{}
	if f.Title != "" {
		filter["title"] = containsPattern(f.Title)
	}
	if f.Genre != "" {
		filter["genre"] = containsPattern(f.Genre)
	}
	if f.Watched != nil {
		filter["watched"] = *f.Watched
	}
	if f.Owner != "" {
		filter["owner"] = f.Owner
	}
	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}
	return filter
}

// containsPattern builds a case-insensitive literal substring match. The
// value is quoted so regex metacharacters in client input match literally.
func containsPattern(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}
