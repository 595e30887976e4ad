package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"github.com/shadowshield/ShadowShield/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssuerService mints access credentials against a file's policy. The
// first issuance for a file freezes the policy for good.
type IssuerService struct {
	store    store.Store
	policies *PolicyService
	log      *SecurityLog
	attestor LedgerAttestor
	baseURL  string
	now      func() time.Time
}

func NewIssuerService(st store.Store, policies *PolicyService, seclog *SecurityLog, attestor LedgerAttestor, baseURL string) *IssuerService {
	return &IssuerService{
		store:    st,
		policies: policies,
		log:      seclog,
		attestor: attestor,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// Issue mints count credentials for a file. When a policy is supplied it
// must either still be editable or structurally match the frozen one;
// anything else is ErrPolicyFrozenConflict.
func (s *IssuerService) Issue(ctx context.Context, fileID primitive.ObjectID, ownerID string, policy *models.AccessPolicy, count int, singleUse bool) ([]models.AccessCredential, error) {
	if count < 1 {
		return nil, fmt.Errorf("credential count must be at least 1, got %d", count)
	}

	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && file.Owner != ownerID {
		return nil, ErrForbidden
	}
	if file.Destroyed {
		return nil, ErrFileDestroyed
	}

	switch {
	case file.Policy == nil:
		if policy == nil {
			return nil, ErrInvalidPolicy
		}
		if err := s.policies.Attach(ctx, fileID, policy); err != nil {
			return nil, err
		}
	case policy != nil && file.Policy.Frozen:
		if !file.Policy.SameRules(normalizePolicy(policy)) {
			return nil, ErrPolicyFrozenConflict
		}
	case policy != nil:
		if err := s.policies.Update(ctx, fileID, policy); err != nil {
			return nil, err
		}
	}

	// First issuance for the file locks the rules in place.
	if err := s.policies.Freeze(ctx, fileID); err != nil {
		return nil, err
	}

	file, err = s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	creds := make([]models.AccessCredential, count)
	for i := range creds {
		token, err := generateSecureToken()
		if err != nil {
			return nil, err
		}
		creds[i] = models.AccessCredential{
			ID:        token,
			FileID:    fileID,
			IssuedAt:  now,
			SingleUse: singleUse || file.Policy.OneTimeUse,
			State:     models.CredentialActive,
		}

		// Best effort: the ledger receipt is decorative and never gates
		// issuance or evaluation.
		if s.attestor != nil {
			receipt, err := s.attestor.Attest(ctx, fileID.Hex(), token, now)
			if err != nil {
				log.Printf("ledger attestation failed for file %s: %v", fileID.Hex(), err)
			} else {
				creds[i].Attestation = receipt
			}
		}
	}

	// Persist the batch in parallel.
	tasks := make([]func() error, count)
	for i := range creds {
		cred := creds[i]
		tasks[i] = func() error {
			return s.store.CreateCredential(ctx, &cred)
		}
	}
	for _, err := range utils.RunParallel(tasks) {
		if err != nil {
			return nil, fmt.Errorf("failed to persist credential: %w", err)
		}
	}

	if _, err := s.log.Append(ctx, models.SecurityEvent{
		Severity:   models.SeverityInfo,
		Category:   "issuance",
		Message:    fmt.Sprintf("%d access credential(s) issued", count),
		FileID:     fileID.Hex(),
		Confidence: 100,
	}); err != nil {
		return nil, err
	}

	return creds, nil
}

// ShareLink renders the presenter-facing reference for a credential. The
// credential id is the only secret needed to attempt access.
func (s *IssuerService) ShareLink(cred models.AccessCredential) string {
	return fmt.Sprintf("%s/access/%s", s.baseURL, cred.ID)
}
