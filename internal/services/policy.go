package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// PolicyService manages the rule set attached to a protected file. Pure
// data handling plus the frozen/unfrozen flag; it has no side effects
// beyond validation and persistence.
type PolicyService struct {
	store store.FileStore
}

func NewPolicyService(st store.FileStore) *PolicyService {
	return &PolicyService{store: st}
}

// Validate checks a policy without touching storage: the attempt limit
// must be non-negative and every allow-list entry must be an email address
// or an Ethereum-style wallet address.
func (s *PolicyService) Validate(policy *models.AccessPolicy) error {
	if policy == nil {
		return ErrInvalidPolicy
	}
	if policy.MaxFailedAttempts < 0 {
		return ErrInvalidPolicy
	}
	for _, entry := range policy.AllowList {
		entry = strings.TrimSpace(entry)
		if !emailPattern.MatchString(entry) && !walletPattern.MatchString(entry) {
			return ErrInvalidPolicy
		}
	}
	return nil
}

// Attach binds a policy to a file that has none yet.
func (s *PolicyService) Attach(ctx context.Context, fileID primitive.ObjectID, policy *models.AccessPolicy) error {
	if err := s.Validate(policy); err != nil {
		return err
	}
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.Policy != nil {
		return ErrAlreadyAttached
	}
	normalized := normalizePolicy(policy)
	return s.store.UpdatePolicy(ctx, fileID, normalized)
}

// Update replaces a policy that has not been frozen yet. Once the first
// credential is minted the policy is immutable.
func (s *PolicyService) Update(ctx context.Context, fileID primitive.ObjectID, policy *models.AccessPolicy) error {
	if err := s.Validate(policy); err != nil {
		return err
	}
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.Policy == nil {
		return s.Attach(ctx, fileID, policy)
	}
	if file.Policy.Frozen {
		return ErrPolicyFrozen
	}
	normalized := normalizePolicy(policy)
	return s.store.UpdatePolicy(ctx, fileID, normalized)
}

// Freeze marks the policy immutable. Idempotent.
func (s *PolicyService) Freeze(ctx context.Context, fileID primitive.ObjectID) error {
	return s.store.FreezePolicy(ctx, fileID)
}

// normalizePolicy lower-cases email entries so allow-list matching can be
// case-insensitive for emails while staying exact for wallet addresses.
func normalizePolicy(policy *models.AccessPolicy) *models.AccessPolicy {
	cp := *policy
	cp.Frozen = false
	cp.AllowList = nil
	for _, entry := range policy.AllowList {
		entry = strings.TrimSpace(entry)
		if emailPattern.MatchString(entry) {
			entry = strings.ToLower(entry)
		}
		cp.AllowList = append(cp.AllowList, entry)
	}
	return &cp
}

// MatchAllowList reports whether a presenter claim matches any allow-list
// entry. Emails compare case-insensitively, wallet addresses exactly. An
// empty list means the file is public and any presenter matches.
func MatchAllowList(allowList []string, claim string) bool {
	if len(allowList) == 0 {
		return true
	}
	claim = strings.TrimSpace(claim)
	for _, entry := range allowList {
		if walletPattern.MatchString(entry) {
			if entry == claim {
				return true
			}
			continue
		}
		if strings.EqualFold(entry, claim) {
			return true
		}
	}
	return false
}
