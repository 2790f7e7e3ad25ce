package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/movie-watchlist/apiserver/config"
	"github.com/movie-watchlist/apiserver/internal/db"
	"github.com/movie-watchlist/apiserver/internal/handlers"
	"github.com/movie-watchlist/apiserver/internal/services"
	"github.com/movie-watchlist/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *db.Manager
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.Auth.TokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}

	manager := db.NewManager(cfg.Database)

	// Fail fast on a bad database configuration; the manager reconnects
	// lazily afterwards.
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}

	movieRepo := store.NewMovieRepository(manager)
	userRepo := store.NewUserRepository(manager)

	// Registration relies on the unique email index; its pre-check is
	// racy, so refuse to start without the index in place.
	if err := ensureIndexes(ctx, userRepo); err != nil {
		return nil, err
	}

	userService := services.NewUserService(userRepo)
	movieService := services.NewMovieService(movieRepo, userRepo)
	favoritesService := services.NewFavoritesService(userRepo, movieRepo)

	authMiddleware := handlers.RequireAuth(cfg.Auth.TokenSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE"},
		AllowedHeaders: []string{"auth-token", "Authorization", "Origin", "Content-Type", "Accept"},
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Get("/", handlers.Welcome)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
		})
		r.Route("/movies", func(r chi.Router) {
			handlers.MovieRouter(r, movieService, favoritesService, authMiddleware)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         manager,
	}, nil
}

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, users indexEnsurer) error {
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensuring user indexes: %w", err)
	}
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Println("Server is running on port:", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown, forcing the database connection
// closed.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Disconnect(context.Background(), true)
	}
	return s.httpServer.Close()
}
