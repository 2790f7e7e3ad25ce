package services

import (
	"context"
	"errors"

	"github.com/movie-watchlist/apiserver/internal/store"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserNotFound reports that the account behind the request no longer
// exists. It keeps user-side absence distinguishable from a missing movie
// in operations that touch both records.
var ErrUserNotFound = errors.New("user not found")

// FavoritesService maintains the per-user set of favorite movie references.
type FavoritesService struct {
	users  UserRepository
	movies MovieRepository
}

func NewFavoritesService(users UserRepository, movies MovieRepository) *FavoritesService {
	return &FavoritesService{users: users, movies: movies}
}

// Add marks the movie as a favorite of the user and returns the resulting
// id list. The movie must exist; adding one already present is a no-op.
func (s *FavoritesService) Add(ctx context.Context, userID, movieID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if _, err := s.movies.Get(ctx, movieID); err != nil {
		return nil, err
	}
	if err := s.users.AddFavorite(ctx, userID, movieID); err != nil {
		return nil, userError(err)
	}
	return s.IDs(ctx, userID)
}

// Remove unmarks the movie and returns the resulting id list. Removing a
// reference that was never present succeeds.
func (s *FavoritesService) Remove(ctx context.Context, userID, movieID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := s.users.RemoveFavorite(ctx, userID, movieID); err != nil {
		return nil, userError(err)
	}
	return s.IDs(ctx, userID)
}

// IDs returns the user's favorite movie ids in insertion order.
func (s *FavoritesService) IDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := s.users.Favorites(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	return ids, nil
}

// Movies returns the user's favorites as full movie records. References
// whose movie has since been deleted are filtered out by the membership
// query.
func (s *FavoritesService) Movies(ctx context.Context, userID primitive.ObjectID) ([]types.Movie, error) {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.movies.ListByIDs(ctx, ids)
}

func userError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
