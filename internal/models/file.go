package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DestructionReason records why a file was destroyed.
type DestructionReason string

const (
	ReasonExpired    DestructionReason = "expired"
	ReasonBruteForce DestructionReason = "brute_force"
	ReasonManual     DestructionReason = "manual"
)

// ProtectedFile is the metadata record for a sealed file. ObjectName is the
// content handle; destruction clears it but keeps the rest of the record for audit.
type ProtectedFile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename       string             `bson:"filename" json:"filename"`
	ObjectName     string             `bson:"object_name,omitempty" json:"-"`
	ContentHash    string             `bson:"content_hash" json:"content_hash"`
	Owner          string             `bson:"owner" json:"owner"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	Policy         *AccessPolicy      `bson:"policy,omitempty" json:"policy,omitempty"`
	FailedAttempts int                `bson:"failed_attempts" json:"failed_attempts"`
	Destroyed      bool               `bson:"destroyed" json:"destroyed"`
	DestroyedAt    *time.Time         `bson:"destroyed_at,omitempty" json:"destroyed_at,omitempty"`
	DestroyReason  DestructionReason  `bson:"destroy_reason,omitempty" json:"destroy_reason,omitempty"`
}
