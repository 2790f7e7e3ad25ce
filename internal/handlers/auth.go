package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/movie-watchlist/apiserver/internal/services"
	"github.com/movie-watchlist/apiserver/internal/store"
	"github.com/movie-watchlist/apiserver/internal/validation"
	"github.com/movie-watchlist/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 2 * time.Hour

// legacyTokenHeader is the pre-Bearer header older clients still send.
const legacyTokenHeader = "auth-token"

const passwordHashCost = 10

// ErrMissingSecret is returned when the signing secret is not configured.
// Tokens are never issued or accepted unsigned.
var ErrMissingSecret = errors.New("Missing TOKEN_SECRET in env.")

// Claims is the signed identity embedded in every token. It is verified
// per-request from the signature and expiry; nothing is persisted.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthHandler provides registration and login endpoints.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
	validate    *validation.Validator
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
// A non-positive tokenTTL falls back to the two-hour default.
func NewAuthHandler(userService *services.UserService, tokenSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		userService: userService,
		secret:      []byte(tokenSecret),
		tokenTTL:    tokenTTL,
		validate:    validation.New(),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, tokenSecret string, tokenTTL time.Duration) {
	handler := NewAuthHandler(userService, tokenSecret, tokenTTL)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// RequireAuth constructs middleware that verifies the request token and
// attaches the decoded claims to the request context.
func RequireAuth(tokenSecret string) func(http.Handler) http.Handler {
	secret := []byte(tokenSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := tokenFromRequest(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Access Denied. Missing token.")
				return
			}

			claims, err := parseToken(tokenString, secret)
			if err != nil {
				if errors.Is(err, ErrMissingSecret) {
					writeError(w, http.StatusInternalServerError, ErrMissingSecret.Error())
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid Token")
				return
			}

			ctx := context.WithValue(r.Context(), contextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.userService.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "Email already exists.")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Error registering user. Error: "+err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error registering user. Error: "+err.Error())
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Email already exists.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error registering user. Error: "+err.Error())
		return
	}

	writeData(w, http.StatusCreated, RegisterResponse{UserID: user.ID.Hex()})
}

// Login verifies credentials and returns a signed token. The failure
// message never distinguishes a bad email from a bad password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Password or email is wrong.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error logging in user. Error: "+err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Password or email is wrong.")
		return
	}

	token, err := issueToken(user, h.secret, h.tokenTTL)
	if err != nil {
		if errors.Is(err, ErrMissingSecret) {
			writeError(w, http.StatusInternalServerError, ErrMissingSecret.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error logging in user. Error: "+err.Error())
		return
	}

	w.Header().Set(legacyTokenHeader, token)
	writeData(w, http.StatusOK, LoginResponse{UserID: user.ID.Hex(), Token: token})
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,min=6,max=255"`
	Password string `json:"password" validate:"required,min=6,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=255"`
	Password string `json:"password" validate:"required,min=6,max=64"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func issueToken(user types.User, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := Claims{
		UserID: user.ID.Hex(),
		Name:   user.Name,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrMissingSecret
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return Claims{}, errors.New("missing subject")
	}
	return claims, nil
}

// tokenFromRequest tries the Authorization Bearer header first and falls
// back to the legacy auth-token header.
func tokenFromRequest(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, true
			}
		}
	}

	if legacy := strings.TrimSpace(r.Header.Get(legacyTokenHeader)); legacy != "" {
		return legacy, true
	}
	return "", false
}
