package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a file owner on the management surface. Presenters of access
// credentials are not users; the credential id is their only identity.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
