package services

import (
	"context"
	"errors"

	"github.com/movie-watchlist/apiserver/internal/store"
	"github.com/movie-watchlist/apiserver/internal/validation"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minRating = 0
	maxRating = 5
)

// MovieRepository defines persistence operations for movies.
type MovieRepository interface {
	List(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error)
	Get(ctx context.Context, id primitive.ObjectID) (types.Movie, error)
	Create(ctx context.Context, movie types.Movie) (types.Movie, error)
	Update(ctx context.Context, id primitive.ObjectID, changes types.MovieChanges) (types.Movie, error)
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64) (types.Movie, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, field, value string) ([]types.Movie, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.Movie, error)
}

// MovieService encapsulates movie use-cases: it enforces the writable
// allow-list bounds and the owner-must-exist invariant on top of the
// repository.
type MovieService struct {
	repo     MovieRepository
	users    UserRepository
	validate *validation.Validator
}

func NewMovieService(repo MovieRepository, users UserRepository) *MovieService {
	return &MovieService{
		repo:     repo,
		users:    users,
		validate: validation.New(),
	}
}

func (s *MovieService) List(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	return s.repo.List(ctx, filter)
}

func (s *MovieService) Get(ctx context.Context, id primitive.ObjectID) (types.Movie, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the allow-listed fields and persists a new movie. The
// owner defaults to the authenticated user when the payload omits it, and
// must reference an existing user either way.
func (s *MovieService) Create(ctx context.Context, changes types.MovieChanges, authenticatedUserID string) (types.Movie, error) {
	if changes.Title == nil {
		return types.Movie{}, &validation.Error{Field: "title", Message: "is required"}
	}
	if err := s.validate.Validate(changes); err != nil {
		return types.Movie{}, err
	}

	owner := authenticatedUserID
	if changes.Owner != nil && *changes.Owner != "" {
		owner = *changes.Owner
	}
	if err := s.checkOwner(ctx, owner); err != nil {
		return types.Movie{}, err
	}

	movie := types.Movie{
		Title: *changes.Title,
		Owner: owner,
	}
	if changes.Genre != nil {
		movie.Genre = *changes.Genre
	}
	if changes.ReleaseYear != nil {
		movie.ReleaseYear = *changes.ReleaseYear
	}
	if changes.Watched != nil {
		movie.Watched = *changes.Watched
	}
	if changes.Rating != nil {
		movie.Rating = *changes.Rating
	}
	if changes.PosterURL != nil {
		movie.PosterURL = *changes.PosterURL
	}

	return s.repo.Create(ctx, movie)
}

// Update applies the same allow-list and validation as Create so forbidden
// fields cannot be tunneled through updates.
func (s *MovieService) Update(ctx context.Context, id primitive.ObjectID, changes types.MovieChanges) (types.Movie, error) {
	if err := s.validate.Validate(changes); err != nil {
		return types.Movie{}, err
	}
	if changes.Owner != nil {
		if err := s.checkOwner(ctx, *changes.Owner); err != nil {
			return types.Movie{}, err
		}
	}
	return s.repo.Update(ctx, id, changes)
}

func (s *MovieService) Rate(ctx context.Context, id primitive.ObjectID, rating float64) (types.Movie, error) {
	if rating < minRating || rating > maxRating {
		return types.Movie{}, &validation.Error{Field: "rating", Message: "must be a number between 0 and 5"}
	}
	return s.repo.UpdateRating(ctx, id, rating)
}

func (s *MovieService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

func (s *MovieService) Search(ctx context.Context, field, value string) ([]types.Movie, error) {
	return s.repo.Search(ctx, field, value)
}

func (s *MovieService) checkOwner(ctx context.Context, owner string) error {
	ownerErr := &validation.Error{Field: "owner", Message: "must reference an existing user"}

	id, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return ownerErr
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ownerErr
		}
		return err
	}
	return nil
}
