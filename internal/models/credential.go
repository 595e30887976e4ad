package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CredentialState is the lifecycle state of an access credential.
type CredentialState string

const (
	CredentialActive   CredentialState = "active"
	CredentialConsumed CredentialState = "consumed"
	CredentialRevoked  CredentialState = "revoked"
)

// AccessCredential grants access to a file under its policy. The ID is the
// shared secret: a random 128-bit token, never a sequence number.
type AccessCredential struct {
	ID         string             `bson:"_id" json:"id"`
	FileID     primitive.ObjectID `bson:"file_id" json:"file_id"`
	IssuedAt   time.Time          `bson:"issued_at" json:"issued_at"`
	SingleUse  bool               `bson:"single_use" json:"single_use"`
	ConsumedAt *time.Time         `bson:"consumed_at,omitempty" json:"consumed_at,omitempty"`
	State      CredentialState    `bson:"state" json:"state"`
	// Attestation is the optional ledger receipt for issuance. Decorative:
	// it never participates in access decisions.
	Attestation string `bson:"attestation,omitempty" json:"attestation,omitempty"`
}
