package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
)

const initMessage = "system initialized, security protocols active"

// SecurityLog is the append-only, classified record of every access
// decision and anomaly. Append never silently drops: a write failure is
// ErrLogWrite and the triggering operation must fail closed.
type SecurityLog struct {
	store store.EventStore
	now   func() time.Time
}

func NewSecurityLog(st store.EventStore) *SecurityLog {
	return &SecurityLog{store: st, now: time.Now}
}

// Append persists one immutable event and returns its id.
func (l *SecurityLog) Append(ctx context.Context, event models.SecurityEvent) (string, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	if err := l.store.AppendEvent(ctx, &event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLogWrite, err)
	}
	return event.ID, nil
}

// Query returns a fresh snapshot of up to limit events, most recent
// first. An empty severity matches everything.
func (l *SecurityLog) Query(ctx context.Context, limit int, severity models.Severity) ([]models.SecurityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return l.store.QueryEvents(ctx, limit, severity)
}

// Init seeds the startup event when the log is empty, so a fresh
// deployment always starts with a record.
func (l *SecurityLog) Init(ctx context.Context) error {
	n, err := l.store.CountEvents(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}
	if n > 0 {
		return nil
	}
	_, err = l.Append(ctx, models.SecurityEvent{
		Severity:   models.SeverityInfo,
		Category:   "system",
		Message:    initMessage,
		Confidence: 100,
	})
	return err
}

// Clear resets the log to the synthetic startup event. Clearing is itself
// a privileged, logged operation: the reset leaves behind a warning naming
// the administrator who discarded the history.
func (l *SecurityLog) Clear(ctx context.Context, actor string) error {
	if err := l.store.ClearEvents(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}
	if _, err := l.Append(ctx, models.SecurityEvent{
		Severity:   models.SeverityInfo,
		Category:   "system",
		Message:    initMessage,
		Confidence: 100,
	}); err != nil {
		return err
	}
	_, err := l.Append(ctx, models.SecurityEvent{
		Severity:   models.SeverityWarning,
		Category:   "system",
		Message:    fmt.Sprintf("security log cleared by administrator %s", actor),
		Action:     "event history discarded",
		Confidence: 100,
	})
	return err
}
