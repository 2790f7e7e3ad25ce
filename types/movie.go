package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movie represents a single watchlist entry.
type Movie struct {
	// ID is the unique identifier of the movie.
	ID primitive.ObjectID `json:"id" bson:"_id,omitempty"`

	// Title is the movie title.
	Title string `json:"title" bson:"title"`

	// Genre is an optional free-form genre label.
	Genre string `json:"genre,omitempty" bson:"genre,omitempty"`

	// ReleaseYear is the optional release year (1888 to 2100).
	ReleaseYear int `json:"releaseYear,omitempty" bson:"releaseYear,omitempty"`

	// Watched marks whether the owner has watched the movie yet.
	Watched bool `json:"watched" bson:"watched"`

	// Rating is the owner's rating on a 0 to 5 scale, 0 meaning unrated.
	Rating float64 `json:"rating,omitempty" bson:"rating,omitempty"`

	// PosterURL is an optional externally-hosted poster image (http/https).
	PosterURL string `json:"posterUrl,omitempty" bson:"posterUrl,omitempty"`

	// Owner references the user that created the movie, stored as an
	// opaque string.
	Owner string `json:"owner" bson:"owner"`

	// Version is incremented by the store on every update. Client input
	// never reaches this field.
	Version int64 `json:"version" bson:"version"`

	// CreatedAt is the timestamp at which the movie was created.
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// MovieFilter holds the optional list filters. All set filters are
// combined conjunctively.
type MovieFilter struct {
	// Title matches case-insensitively on a substring of the title.
	Title string

	// Genre matches case-insensitively on a substring of the genre.
	Genre string

	// Watched matches the watched flag exactly when set.
	Watched *bool

	// Owner matches the owner reference exactly.
	Owner string

	// MinRating keeps movies rated at or above the threshold.
	MinRating *float64
}

// MovieChanges carries the allow-listed writable movie fields. Nil fields
// are left untouched on update; unknown payload fields are dropped at
// decode time because they have no counterpart here.
type MovieChanges struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=255"`
	Genre       *string  `json:"genre" validate:"omitnil,min=1,max=100"`
	ReleaseYear *int     `json:"releaseYear" validate:"omitnil,min=1888,max=2100"`
	Watched     *bool    `json:"watched"`
	Rating      *float64 `json:"rating" validate:"omitnil,min=0,max=5"`
	PosterURL   *string  `json:"posterUrl" validate:"omitnil,httpurl,max=2048"`
	Owner       *string  `json:"owner"`
}
