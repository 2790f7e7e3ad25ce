package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/movie-watchlist/apiserver/internal/services"
	"github.com/movie-watchlist/apiserver/internal/store"
	"github.com/movie-watchlist/apiserver/internal/validation"
	"github.com/movie-watchlist/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovieHandler provides HTTP handlers for movies and favorites.
type MovieHandler struct {
	movieService     *services.MovieService
	favoritesService *services.FavoritesService
}

// NewMovieHandler constructs a handler with the provided services.
func NewMovieHandler(movieService *services.MovieService, favoritesService *services.FavoritesService) *MovieHandler {
	return &MovieHandler{
		movieService:     movieService,
		favoritesService: favoritesService,
	}
}

// MovieRouter registers movie and favorites routes on the given router.
func MovieRouter(
	r chi.Router,
	movieService *services.MovieService,
	favoritesService *services.FavoritesService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewMovieHandler(movieService, favoritesService)

	// Public read routes
	r.Get("/", handler.ListMovies)
	r.Get("/search/{key}/{val}", handler.SearchMovies)
	r.Get("/query/{key}/{val}", handler.SearchMovies)

	// Favorites routes, registered before the id subtree so the static
	// segment wins.
	r.With(authMiddleware).Get("/favorites", handler.ListFavoriteMovies)
	r.With(authMiddleware).Get("/favorites/ids", handler.ListFavoriteIDs)

	// Protected write routes
	r.With(authMiddleware).Post("/", handler.CreateMovie)

	r.Route("/{movieID}", func(r chi.Router) {
		r.Get("/", handler.GetMovie)
		r.With(authMiddleware).Put("/", handler.UpdateMovie)
		r.With(authMiddleware).Delete("/", handler.DeleteMovie)
		r.With(authMiddleware).Put("/rating", handler.UpdateRating)
		r.With(authMiddleware).Post("/favorite", handler.AddFavorite)
		r.With(authMiddleware).Delete("/favorite", handler.RemoveFavorite)
	})
}

func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieService.List(r.Context(), parseMovieFilter(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error retrieving movies. Error: "+err.Error())
		return
	}
	writeData(w, http.StatusOK, movies)
}

func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := h.movieService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error retrieving movie by id. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusOK, movie)
}

func (h *MovieHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	val := chi.URLParam(r, "val")

	movies, err := h.movieService.Search(r.Context(), key, val)
	if err != nil {
		if errors.Is(err, store.ErrUnsearchableField) {
			writeError(w, http.StatusBadRequest, "unsupported search field: "+key)
			return
		}
		writeError(w, http.StatusInternalServerError, "Error retrieving movies. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusOK, movies)
}

func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Access Denied. Missing token.")
		return
	}

	var changes types.MovieChanges
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.movieService.Create(r.Context(), changes, claims.UserID)
	if err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error creating movie. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusCreated, movie)
}

func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var changes types.MovieChanges
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.movieService.Update(r.Context(), id, changes)
	if err != nil {
		var vErr *validation.Error
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Cannot update movie with id="+id.Hex())
		default:
			writeError(w, http.StatusInternalServerError, "Error updating movie by id. Error: "+err.Error())
		}
		return
	}

	writeData(w, http.StatusOK, movie)
}

func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.movieService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cannot delete movie with id="+id.Hex())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting movie by id. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusOK, "Movie was successfully deleted.")
}

func (h *MovieHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		writeError(w, http.StatusBadRequest, "Rating must be a number between 0 and 5.")
		return
	}

	movie, err := h.movieService.Rate(r.Context(), id, *req.Rating)
	if err != nil {
		var vErr *validation.Error
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, "Rating must be a number between 0 and 5.")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Cannot update rating for movie with id="+id.Hex())
		default:
			writeError(w, http.StatusInternalServerError, "Error updating rating. Error: "+err.Error())
		}
		return
	}

	writeData(w, http.StatusOK, movie)
}

func (h *MovieHandler) ListFavoriteMovies(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Access Denied. Missing token.")
		return
	}

	movies, err := h.favoritesService.Movies(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error retrieving favorites. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusOK, movies)
}

func (h *MovieHandler) ListFavoriteIDs(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Access Denied. Missing token.")
		return
	}

	ids, err := h.favoritesService.IDs(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error retrieving favorites. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusOK, ids)
}

func (h *MovieHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateFavorites(w, r, h.favoritesService.Add)
}

func (h *MovieHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateFavorites(w, r, h.favoritesService.Remove)
}

func (h *MovieHandler) mutateFavorites(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(ctx context.Context, userID, movieID primitive.ObjectID) ([]primitive.ObjectID, error),
) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Access Denied. Missing token.")
		return
	}

	movieID, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := mutate(r.Context(), userID, movieID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "movie not found")
		default:
			writeError(w, http.StatusInternalServerError, "Error updating favorites. Error: "+err.Error())
		}
		return
	}

	writeData(w, http.StatusOK, ids)
}

// RatingRequest carries the dedicated rating endpoint's payload.
type RatingRequest struct {
	Rating *float64 `json:"rating"`
}

func parseMovieID(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "movieID")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid movie id")
	}
	return id, nil
}

func parseMovieFilter(r *http.Request) types.MovieFilter {
	query := r.URL.Query()

	filter := types.MovieFilter{
		Title: strings.TrimSpace(query.Get("title")),
		Genre: strings.TrimSpace(query.Get("genre")),
		Owner: strings.TrimSpace(query.Get("owner")),
	}

	if raw := query.Get("watched"); query.Has("watched") {
		watched := raw == "true"
		filter.Watched = &watched
	}

	if raw := strings.TrimSpace(query.Get("minRating")); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinRating = &value
		}
	}

	return filter
}
