package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const contextClaimsKey contextKey = "user"

// Envelope is the single response shape used by every endpoint:
// {"error": null, "data": ...} on success, {"error": "message"} on failure.
type Envelope struct {
	Error *string `json:"error"`
	Data  any     `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: &message})
}

// Welcome answers the API root with a liveness message.
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"message": "Welcome to the movie-watchlist API"})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func claimsFromContext(ctx context.Context) (Claims, error) {
	claims, ok := ctx.Value(contextClaimsKey).(Claims)
	if !ok || claims.UserID == "" {
		return Claims{}, errors.New("missing identity")
	}
	return claims, nil
}

func userIDFromContext(ctx context.Context) (primitive.ObjectID, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}
