package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/movie-watchlist/apiserver/internal/store"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserRepo implements services.UserRepository in memory, mimicking the
// Mongo repository's set semantics for favorites.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.RegisterDate = time.Now()
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) AddFavorite(_ context.Context, userID, movieID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range user.Favorites {
		if id == movieID {
			return nil
		}
	}
	user.Favorites = append(user.Favorites, movieID)
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) RemoveFavorite(_ context.Context, userID, movieID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	kept := user.Favorites[:0]
	for _, id := range user.Favorites {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	user.Favorites = kept
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) Favorites(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]primitive.ObjectID{}, user.Favorites...), nil
}

func (f *fakeUserRepo) remove(id primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeMovieRepo implements services.MovieRepository in memory.
type fakeMovieRepo struct {
	mu         sync.Mutex
	movies     map[primitive.ObjectID]types.Movie
	order      []primitive.ObjectID
	lastFilter types.MovieFilter
}

func newFakeMovieRepo() *fakeMovieRepo {
	return &fakeMovieRepo{movies: make(map[primitive.ObjectID]types.Movie)}
}

func (f *fakeMovieRepo) List(_ context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	// Newest-created first.
	movies := make([]types.Movie, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		movies = append(movies, f.movies[f.order[i]])
	}
	return movies, nil
}

func (f *fakeMovieRepo) Get(_ context.Context, id primitive.ObjectID) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie, ok := f.movies[id]
	if !ok {
		return types.Movie{}, store.ErrNotFound
	}
	return movie, nil
}

func (f *fakeMovieRepo) Create(_ context.Context, movie types.Movie) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	movie.ID = primitive.NewObjectID()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	movie.Version = 0
	f.movies[movie.ID] = movie
	f.order = append(f.order, movie.ID)
	return movie, nil
}

func (f *fakeMovieRepo) Update(_ context.Context, id primitive.ObjectID, changes types.MovieChanges) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie, ok := f.movies[id]
	if !ok {
		return types.Movie{}, store.ErrNotFound
	}
	if changes.Title != nil {
		movie.Title = *changes.Title
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
	if changes.Owner != nil {
		movie.Owner = *changes.Owner
	}
	movie.Version++
	movie.UpdatedAt = time.Now()
	f.movies[id] = movie
	return movie, nil
}

func (f *fakeMovieRepo) UpdateRating(_ context.Context, id primitive.ObjectID, rating float64) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie, ok := f.movies[id]
	if !ok {
		return types.Movie{}, store.ErrNotFound
	}
	movie.Rating = rating
	movie.Version++
	movie.UpdatedAt = time.Now()
	f.movies[id] = movie
	return movie, nil
}

func (f *fakeMovieRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.movies[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.movies, id)
	kept := f.order[:0]
	for _, existing := range f.order {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	f.order = kept
	return nil
}

func (f *fakeMovieRepo) Search(_ context.Context, field, value string) ([]types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case "title", "genre", "owner":
	default:
		return nil, store.ErrUnsearchableField
	}

	movies := make([]types.Movie, 0)
	for _, id := range f.order {
		movie := f.movies[id]
		candidate := movie.Title
		if field == "genre" {
			candidate = movie.Genre
		} else if field == "owner" {
			candidate = movie.Owner
		}
		if strings.Contains(strings.ToLower(candidate), strings.ToLower(value)) {
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func (f *fakeMovieRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	movies := make([]types.Movie, 0, len(ids))
	for _, id := range ids {
		if movie, ok := f.movies[id]; ok {
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func (f *fakeMovieRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.movies)
}

func (f *fakeMovieRepo) get(id primitive.ObjectID) (types.Movie, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie, ok := f.movies[id]
	return movie, ok
}
