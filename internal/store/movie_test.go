package store

import (
	"context"
	"testing"

	"github.com/movie-watchlist/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMovieFilter(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.Equal(t, bson.M{}, movieFilter(types.MovieFilter{}))
	})

	t.Run("all fields set", func(t *testing.T) {
		watched := true
		minRating := 3.5
		filter := movieFilter(types.MovieFilter{
			Title:     "dune",
			Genre:     "sci",
			Watched:   &watched,
			Owner:     "64f0c1d2e3a4b5c6d7e8f901",
			MinRating: &minRating,
		})

		assert.Equal(t, bson.M{
			"title":   primitive.Regex{Pattern: "dune", Options: "i"},
			"genre":   primitive.Regex{Pattern: "sci", Options: "i"},
			"watched": true,
			"owner":   "64f0c1d2e3a4b5c6d7e8f901",
			"rating":  bson.M{"$gte": 3.5},
		}, filter)
	})

	t.Run("watched false is still a condition", func(t *testing.T) {
		watched := false
		filter := movieFilter(types.MovieFilter{Watched: &watched})
		assert.Equal(t, bson.M{"watched": false}, filter)
	})

	t.Run("zero min rating is still a condition", func(t *testing.T) {
		minRating := 0.0
		filter := movieFilter(types.MovieFilter{MinRating: &minRating})
		assert.Equal(t, bson.M{"rating": bson.M{"$gte": 0.0}}, filter)
	})
}

func TestContainsPattern(t *testing.T) {
	pattern := containsPattern("dune")
	assert.Equal(t, "dune", pattern.Pattern)
	assert.Equal(t, "i", pattern.Options)

	t.Run("metacharacters are quoted", func(t *testing.T) {
		pattern := containsPattern("what.if(2021)?")
		assert.Equal(t, `what\.if\(2021\)\?`, pattern.Pattern)
	})
}

func TestSearchRejectsUnknownField(t *testing.T) {
	// The allow-list check happens before any database work, so a nil
	// manager is never touched.
	repo := NewMovieRepository(nil)

	for _, field := range []string{"version", "_id", "createdAt", "rating", ""} {
		_, err := repo.Search(context.Background(), field, "anything")
		require.ErrorIs(t, err, ErrUnsearchableField, "field %q", field)
	}
}

func TestSearchableFields(t *testing.T) {
	assert.Equal(t, map[string]string{
		"title": "title",
		"genre": "genre",
		"owner": "owner",
	}, searchableFields)
}
