package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeObjects is an in-memory ObjectStore for tests.
type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removed   []string
	removeErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectName] = data
	return nil
}

func (f *fakeObjects) Remove(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, objectName)
	f.removed = append(f.removed, objectName)
	return nil
}

func (f *fakeObjects) PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectName, nil
}

func (f *fakeObjects) removedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.removed)
}

// failingEvents wraps the memory store and refuses event appends, for
// fail-closed tests.
type failingEvents struct {
	*store.MemoryStore
}

func (f *failingEvents) AppendEvent(ctx context.Context, event *models.SecurityEvent) error {
	return errors.New("log storage exhausted")
}

// harness bundles one engine wired to the in-memory store.
type harness struct {
	store     *store.MemoryStore
	objects   *fakeObjects
	log       *SecurityLog
	policies  *PolicyService
	uploads   *UploadService
	issuer    *IssuerService
	destroyer *DestructionService
	evaluator *EvaluatorService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := store.NewMemoryStore()
	objects := newFakeObjects()
	seclog := NewSecurityLog(st)
	policies := NewPolicyService(st)
	destroyer := NewDestructionService(st, objects, seclog)
	return &harness{
		store:     st,
		objects:   objects,
		log:       seclog,
		policies:  policies,
		uploads:   NewUploadService(st, objects, policies),
		issuer:    NewIssuerService(st, policies, seclog, LocalAttestor{}, "https://shadowshield.io"),
		destroyer: destroyer,
		evaluator: NewEvaluatorService(st, destroyer, seclog, HeuristicClassifier{}),
	}
}

// seedFile creates a sealed file with the given policy already attached.
func (h *harness) seedFile(t *testing.T, policy *models.AccessPolicy) primitive.ObjectID {
	t.Helper()
	file := &models.ProtectedFile{
		ID:          primitive.NewObjectID(),
		Filename:    "classified_mission.pdf",
		ObjectName:  "obj_classified_mission.pdf",
		ContentHash: "deadbeef",
		Owner:       "agent-1",
		CreatedAt:   time.Now(),
		Policy:      normalizePolicy(policy),
	}
	if err := h.store.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	return file.ID
}

// seedCredential mints one active credential directly in the store.
func (h *harness) seedCredential(t *testing.T, fileID primitive.ObjectID, singleUse bool) string {
	t.Helper()
	token, err := generateSecureToken()
	if err != nil {
		t.Fatalf("generateSecureToken: %v", err)
	}
	cred := &models.AccessCredential{
		ID:        token,
		FileID:    fileID,
		IssuedAt:  time.Now(),
		SingleUse: singleUse,
		State:     models.CredentialActive,
	}
	if err := h.store.CreateCredential(context.Background(), cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}
	return token
}

func (h *harness) eventCount(t *testing.T, severities ...models.Severity) int64 {
	t.Helper()
	n, err := h.store.CountEvents(context.Background(), severities...)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	return n
}

func timePtr(ts time.Time) *time.Time {
	return &ts
}
