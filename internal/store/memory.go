package store

import (
	"context"
	"sync"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory Store. It backs unit tests and single-node
// dev runs; the mutex gives it the same atomic transitions the Mongo
// implementation gets from FindOneAndUpdate.
type MemoryStore struct {
	mu          sync.Mutex
	files       map[primitive.ObjectID]*models.ProtectedFile
	credentials map[string]*models.AccessCredential
	events      []models.SecurityEvent
	seq         int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:       make(map[primitive.ObjectID]*models.ProtectedFile),
		credentials: make(map[string]*models.AccessCredential),
	}
}

// --- FileStore ---

func (s *MemoryStore) CreateFile(ctx context.Context, file *models.ProtectedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *file
	s.files[file.ID] = &cp
	return nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id primitive.ObjectID) (*models.ProtectedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) ListFilesByOwner(ctx context.Context, owner string) ([]models.ProtectedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProtectedFile
	for _, f := range s.files {
		if f.Owner == owner {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListExpiredFiles(ctx context.Context, now time.Time) ([]models.ProtectedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProtectedFile
	for _, f := range s.files {
		if !f.Destroyed && f.Policy != nil && f.Policy.Expired(now) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdatePolicy(ctx context.Context, id primitive.ObjectID, policy *models.AccessPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return ErrNotFound
	}
	cp := *policy
	f.Policy = &cp
	return nil
}

func (s *MemoryStore) FreezePolicy(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return ErrNotFound
	}
	if f.Policy != nil {
		f.Policy.Frozen = true
	}
	return nil
}

func (s *MemoryStore) IncrementFailedAttempts(ctx context.Context, id primitive.ObjectID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return 0, ErrNotFound
	}
	f.FailedAttempts++
	return f.FailedAttempts, nil
}

func (s *MemoryStore) MarkDestroyed(ctx context.Context, id primitive.ObjectID, reason models.DestructionReason, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return false, ErrNotFound
	}
	if f.Destroyed {
		return false, nil
	}
	f.Destroyed = true
	f.DestroyedAt = &at
	f.DestroyReason = reason
	return true, nil
}

func (s *MemoryStore) ClearContentHandle(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return ErrNotFound
	}
	f.ObjectName = ""
	return nil
}

func (s *MemoryStore) CountFiles(ctx context.Context, destroyed bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, f := range s.files {
		if f.Destroyed == destroyed {
			n++
		}
	}
	return n, nil
}

// --- CredentialStore ---

func (s *MemoryStore) CreateCredential(ctx context.Context, cred *models.AccessCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cred
	s.credentials[cred.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCredential(ctx context.Context, id string) (*models.AccessCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ConsumeCredential(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.State != models.CredentialActive || c.ConsumedAt != nil {
		return false, nil
	}
	c.State = models.CredentialConsumed
	c.ConsumedAt = &at
	return true, nil
}

func (s *MemoryStore) RevokeCredential(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return ErrNotFound
	}
	if c.State == models.CredentialActive {
		c.State = models.CredentialRevoked
	}
	return nil
}

func (s *MemoryStore) RevokeFileCredentials(ctx context.Context, fileID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.FileID == fileID && c.State == models.CredentialActive {
			c.State = models.CredentialRevoked
		}
	}
	return nil
}

// --- EventStore ---

func (s *MemoryStore) AppendEvent(ctx context.Context, event *models.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	event.Seq = s.seq
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) QueryEvents(ctx context.Context, limit int, severity models.Severity) ([]models.SecurityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SecurityEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0; i-- {
		if severity != "" && s.events[i].Severity != severity {
			continue
		}
		out = append(out, s.events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) ClearEvents(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}

func (s *MemoryStore) CountEvents(ctx context.Context, severities ...models.Severity) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(severities) == 0 {
		return int64(len(s.events)), nil
	}
	var n int64
	for _, e := range s.events {
		for _, sev := range severities {
			if e.Severity == sev {
				n++
				break
			}
		}
	}
	return n, nil
}
