package store

import (
	"context"
	"errors"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a file or credential does not exist.
var ErrNotFound = errors.New("not found")

// FileStore persists protected files and their embedded policies.
type FileStore interface {
	CreateFile(ctx context.Context, file *models.ProtectedFile) error
	GetFile(ctx context.Context, id primitive.ObjectID) (*models.ProtectedFile, error)
	ListFilesByOwner(ctx context.Context, owner string) ([]models.ProtectedFile, error)
	// ListExpiredFiles returns non-destroyed files whose policy deadline
	// has passed as of now.
	ListExpiredFiles(ctx context.Context, now time.Time) ([]models.ProtectedFile, error)
	// UpdatePolicy replaces the policy document on a file.
	UpdatePolicy(ctx context.Context, id primitive.ObjectID, policy *models.AccessPolicy) error
	// FreezePolicy marks the policy frozen. Idempotent.
	FreezePolicy(ctx context.Context, id primitive.ObjectID) error
	// IncrementFailedAttempts atomically bumps the failed-attempt counter
	// and returns the new value.
	IncrementFailedAttempts(ctx context.Context, id primitive.ObjectID) (int, error)
	// MarkDestroyed flips destroyed false->true exactly once. The first
	// caller gets true; every later caller gets false with no effect.
	MarkDestroyed(ctx context.Context, id primitive.ObjectID, reason models.DestructionReason, at time.Time) (bool, error)
	// ClearContentHandle erases the object name from the file record.
	ClearContentHandle(ctx context.Context, id primitive.ObjectID) error
	CountFiles(ctx context.Context, destroyed bool) (int64, error)
}

// CredentialStore persists access credentials.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *models.AccessCredential) error
	GetCredential(ctx context.Context, id string) (*models.AccessCredential, error)
	// ConsumeCredential is the compare-and-swap Active->Consumed. Returns
	// true only for the single caller that wins the transition.
	ConsumeCredential(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeCredential(ctx context.Context, id string) error
	// RevokeFileCredentials revokes every non-consumed credential of a file.
	RevokeFileCredentials(ctx context.Context, fileID primitive.ObjectID) error
}

// EventStore is the append-only security log backing.
type EventStore interface {
	// AppendEvent assigns the event's Seq and persists it.
	AppendEvent(ctx context.Context, event *models.SecurityEvent) error
	// QueryEvents returns up to limit events, most recent first. An empty
	// severity matches all. The result is a snapshot, not a live cursor.
	QueryEvents(ctx context.Context, limit int, severity models.Severity) ([]models.SecurityEvent, error)
	ClearEvents(ctx context.Context) error
	CountEvents(ctx context.Context, severities ...models.Severity) (int64, error)
}

// Store aggregates every persistence concern of the engine.
type Store interface {
	FileStore
	CredentialStore
	EventStore
}
