package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
)

func TestSecurityLogOrdering(t *testing.T) {
	st := store.NewMemoryStore()
	seclog := NewSecurityLog(st)
	ctx := context.Background()

	messages := []string{"first", "second", "third"}
	for _, msg := range messages {
		if _, err := seclog.Append(ctx, models.SecurityEvent{
			Severity: models.SeverityInfo,
			Category: "system",
			Message:  msg,
		}); err != nil {
			t.Fatalf("Append(%q): %v", msg, err)
		}
	}

	events, err := seclog.Query(ctx, 10, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	// Most recent first.
	for i, want := range []string{"third", "second", "first"} {
		if events[i].Message != want {
			t.Fatalf("events[%d].Message = %q, want %q", i, events[i].Message, want)
		}
	}
	if !(events[0].Seq > events[1].Seq && events[1].Seq > events[2].Seq) {
		t.Fatalf("sequence numbers not descending: %d, %d, %d", events[0].Seq, events[1].Seq, events[2].Seq)
	}
}

func TestSecurityLogSeverityFilterAndLimit(t *testing.T) {
	st := store.NewMemoryStore()
	seclog := NewSecurityLog(st)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		sev := models.SeverityInfo
		if i%2 == 1 {
			sev = models.SeverityCritical
		}
		if _, err := seclog.Append(ctx, models.SecurityEvent{Severity: sev, Category: "system", Message: "e"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	critical, err := seclog.Query(ctx, 10, models.SeverityCritical)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(critical) != 2 {
		t.Fatalf("critical events = %d, want 2", len(critical))
	}
	for _, e := range critical {
		if e.Severity != models.SeverityCritical {
			t.Fatalf("filter leaked severity %q", e.Severity)
		}
	}

	limited, err := seclog.Query(ctx, 1, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited events = %d, want 1", len(limited))
	}
}

func TestSecurityLogInitSeedsOnce(t *testing.T) {
	st := store.NewMemoryStore()
	seclog := NewSecurityLog(st)
	ctx := context.Background()

	if err := seclog.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := seclog.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	events, err := seclog.Query(ctx, 10, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Message != initMessage {
		t.Fatalf("Message = %q, want %q", events[0].Message, initMessage)
	}
}

func TestSecurityLogClearLeavesAuditTrail(t *testing.T) {
	st := store.NewMemoryStore()
	seclog := NewSecurityLog(st)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := seclog.Append(ctx, models.SecurityEvent{Severity: models.SeverityWarning, Category: "system", Message: "noise"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := seclog.Clear(ctx, "admin-7"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	events, err := seclog.Query(ctx, 10, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2 (init + clear record)", len(events))
	}
	if !strings.Contains(events[0].Message, "admin-7") {
		t.Fatalf("clear record does not name the administrator: %q", events[0].Message)
	}
	if events[1].Message != initMessage {
		t.Fatalf("oldest surviving event = %q, want init record", events[1].Message)
	}
}

func TestSecurityLogAppendWrapsStorageError(t *testing.T) {
	broken := &failingEvents{MemoryStore: store.NewMemoryStore()}
	seclog := NewSecurityLog(broken)

	_, err := seclog.Append(context.Background(), models.SecurityEvent{Severity: models.SeverityInfo, Category: "system", Message: "e"})
	if !errors.Is(err, ErrLogWrite) {
		t.Fatalf("err = %v, want ErrLogWrite", err)
	}
}
