package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DestructionService executes irreversible file destruction. There is no
// undo path anywhere in the engine; that asymmetry is the point.
type DestructionService struct {
	store   store.Store
	objects ObjectStore // nil when no content storage is wired
	log     *SecurityLog
	now     func() time.Time
}

func NewDestructionService(st store.Store, objects ObjectStore, seclog *SecurityLog) *DestructionService {
	return &DestructionService{store: st, objects: objects, log: seclog, now: time.Now}
}

// Destroy sets the destroyed flag, emits one Critical event, revokes every
// outstanding credential and erases the content handle. Idempotent and
// resumable: only the first caller emits the event, and a retry after a
// partial failure completes the remaining effects.
func (s *DestructionService) Destroy(ctx context.Context, fileID primitive.ObjectID, reason models.DestructionReason) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load file for destruction: %w", err)
	}
	if file.Destroyed && file.ObjectName == "" {
		// Fully destroyed already. No second event, no error.
		return nil
	}

	first, err := s.store.MarkDestroyed(ctx, fileID, reason, s.now())
	if err != nil {
		return fmt.Errorf("failed to mark file destroyed: %w", err)
	}

	if first {
		if _, err := s.log.Append(ctx, models.SecurityEvent{
			Severity:   models.SeverityCritical,
			Category:   "self_destruct",
			Message:    fmt.Sprintf("self-destruction protocol executed (%s)", reason),
			FileID:     fileID.Hex(),
			Action:     actionForReason(reason),
			Confidence: confidenceForReason(reason),
		}); err != nil {
			return err
		}
	}

	if err := s.store.RevokeFileCredentials(ctx, fileID); err != nil {
		return fmt.Errorf("failed to revoke credentials: %w", err)
	}

	if file.ObjectName != "" {
		if s.objects != nil {
			if err := s.objects.Remove(ctx, file.ObjectName); err != nil {
				return fmt.Errorf("failed to remove file content: %w", err)
			}
		}
		if err := s.store.ClearContentHandle(ctx, fileID); err != nil {
			return fmt.Errorf("failed to clear content handle: %w", err)
		}
	}

	return nil
}

func actionForReason(reason models.DestructionReason) string {
	switch reason {
	case models.ReasonBruteForce:
		return "self-destruction protocol initiated, all credentials revoked"
	case models.ReasonManual:
		return "manual kill switch engaged, all credentials revoked"
	default:
		return "retention deadline reached, all credentials revoked"
	}
}

func confidenceForReason(reason models.DestructionReason) int {
	if reason == models.ReasonBruteForce {
		return 95
	}
	return 100
}
