package services

import (
	"context"

	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	Favorites(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}
