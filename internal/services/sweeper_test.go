package services

import (
	"context"
	"testing"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
)

func TestSweepOnceDestroysExpiredFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	expired := h.seedFile(t, &models.AccessPolicy{ExpiresAt: timePtr(time.Now().Add(-time.Minute))})
	alive := h.seedFile(t, &models.AccessPolicy{ExpiresAt: timePtr(time.Now().Add(time.Hour))})
	forever := h.seedFile(t, &models.AccessPolicy{})

	sweeper := NewSweeperService(h.store, h.destroyer, time.Minute, 2)

	if n := sweeper.SweepOnce(ctx); n != 1 {
		t.Fatalf("SweepOnce = %d, want 1", n)
	}

	file, err := h.store.GetFile(ctx, expired)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if !file.Destroyed {
		t.Fatal("expired file not destroyed")
	}
	if file.DestroyReason != models.ReasonExpired {
		t.Fatalf("destroy reason = %q, want %q", file.DestroyReason, models.ReasonExpired)
	}

	aliveFile, err := h.store.GetFile(ctx, alive)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if aliveFile.Destroyed {
		t.Fatal("unexpired file destroyed")
	}
	foreverFile, err := h.store.GetFile(ctx, forever)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if foreverFile.Destroyed {
		t.Fatal("file without a deadline destroyed")
	}

	// A second sweep finds nothing and causes no second event.
	if n := sweeper.SweepOnce(ctx); n != 0 {
		t.Fatalf("second SweepOnce = %d, want 0", n)
	}
	if n := h.eventCount(t, models.SeverityCritical); n != 1 {
		t.Fatalf("critical events = %d, want 1", n)
	}
}
