package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the system.
// It contains identity, credentials, and the user's favorites set.
type User struct {
	// ID is the unique identifier of the user.
	ID primitive.ObjectID `json:"id" bson:"_id,omitempty"`

	// Name is the user's display or full name.
	Name string `json:"name" bson:"name"`

	// Email is the user's email address. Unique across all users.
	Email string `json:"email" bson:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"password"`

	// RegisterDate is the timestamp when the account was created.
	RegisterDate time.Time `json:"registerDate" bson:"registerDate"`

	// Favorites references the movies the user marked as favorite,
	// ordered by insertion. Uniqueness is enforced on add; a reference
	// may dangle after its movie is deleted and is filtered out when
	// favorites are hydrated.
	Favorites []primitive.ObjectID `json:"favorites" bson:"favorites"`
}
