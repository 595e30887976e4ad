package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
)

// EvaluatorService is the access state machine. Every presentation runs
// Received -> Validating -> exactly one of Authorized, Unauthorized,
// Expired, Consumed. Deterministic and total: real clock comparisons and
// real allow-list checks, no randomness, no network calls.
type EvaluatorService struct {
	store      store.Store
	destroyer  *DestructionService
	log        *SecurityLog
	classifier Classifier
	now        func() time.Time
}

func NewEvaluatorService(st store.Store, destroyer *DestructionService, seclog *SecurityLog, classifier Classifier) *EvaluatorService {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &EvaluatorService{
		store:      st,
		destroyer:  destroyer,
		log:        seclog,
		classifier: classifier,
		now:        time.Now,
	}
}

// Evaluation is the result of one presentation. File is set whenever the
// credential resolved to a known file; the caller derives the content
// retrieval capability from it only on an Authorized decision.
type Evaluation struct {
	Decision models.Decision
	File     *models.ProtectedFile
	EventID  string
}

// Evaluate consumes one credential presentation. A returned error is a
// genuine fault (storage, log write): the caller must deny access, never
// authorize without an audit record. Nothing is committed if the caller
// abandoned the context before the decision point.
func (s *EvaluatorService) Evaluate(ctx context.Context, attempt models.AccessAttempt) (Evaluation, error) {
	now := s.now()
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = now
	}
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	// Annotation only. The classification never changes the decision below.
	cls := s.classifier.Classify(attempt)

	// Step 1: unknown ids are plain Unauthorized. Callers cannot tell
	// unknown from wrong, which blocks credential-existence probing.
	cred, err := s.store.GetCredential(ctx, attempt.CredentialID)
	if errors.Is(err, store.ErrNotFound) {
		return s.finish(ctx, attempt, cls, nil, models.DecisionUnauthorized,
			"presented credential is not recognized", "access blocked")
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("credential lookup failed: %w", err)
	}

	file, err := s.store.GetFile(ctx, cred.FileID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("file lookup failed: %w", err)
	}
	policy := file.Policy
	if policy == nil {
		// Credentials are only mintable once a policy exists, so this is
		// corrupted state, not a decision.
		return Evaluation{}, fmt.Errorf("file %s has credentials but no policy", file.ID.Hex())
	}

	// Step 2: revocation and destruction read as expiry to the presenter.
	if cred.State == models.CredentialRevoked || file.Destroyed {
		return s.finish(ctx, attempt, cls, file, models.DecisionExpired,
			"presentation against revoked credential or destroyed file", "access blocked")
	}

	// Step 3: policy expiry. Checked before the allow-list so an expired
	// credential never leaks allow-list membership.
	if policy.Expired(now) {
		if err := s.store.RevokeCredential(ctx, cred.ID); err != nil {
			return Evaluation{}, fmt.Errorf("failed to revoke expired credential: %w", err)
		}
		return s.finish(ctx, attempt, cls, file, models.DecisionExpired,
			"access deadline passed", "credential revoked")
	}

	// Step 4: replay of an already-consumed single-use credential.
	if cred.SingleUse && cred.ConsumedAt != nil {
		return s.finish(ctx, attempt, cls, file, models.DecisionConsumed,
			"one-time credential already consumed", "access blocked")
	}

	// Step 5: allow-list. A mismatch counts toward the kill switch.
	if len(policy.AllowList) > 0 && !MatchAllowList(policy.AllowList, attempt.Claim) {
		failed, err := s.store.IncrementFailedAttempts(ctx, file.ID)
		if err != nil {
			return Evaluation{}, fmt.Errorf("failed to record failed attempt: %w", err)
		}
		eval, err := s.finish(ctx, attempt, cls, file, models.DecisionUnauthorized,
			fmt.Sprintf("presenter identity not on allow-list (failed attempts: %d)", failed),
			"access blocked")
		if err != nil {
			return eval, err
		}
		// Step 7: attempt-based kill switch.
		if policy.MaxFailedAttempts > 0 && failed >= policy.MaxFailedAttempts {
			if derr := s.destroyer.Destroy(ctx, file.ID, models.ReasonBruteForce); derr != nil {
				return eval, derr
			}
		}
		return eval, nil
	}

	// Step 6: authorize. Single-use consumption is a compare-and-swap on
	// credential state; of N concurrent presentations exactly one wins and
	// the losers land on Consumed, never on a second Authorized.
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	if policy.OneTimeUse || cred.SingleUse {
		won, err := s.store.ConsumeCredential(ctx, cred.ID, now)
		if err != nil {
			return Evaluation{}, fmt.Errorf("failed to consume credential: %w", err)
		}
		if !won {
			return s.finish(ctx, attempt, cls, file, models.DecisionConsumed,
				"one-time credential already consumed", "access blocked")
		}
		if policy.OneTimeUse {
			// One successful access spends every outstanding credential.
			if err := s.store.RevokeFileCredentials(ctx, file.ID); err != nil {
				return Evaluation{}, fmt.Errorf("failed to revoke sibling credentials: %w", err)
			}
		}
	}

	return s.finish(ctx, attempt, cls, file, models.DecisionAuthorized,
		"access credentials verified", "content capability granted")
}

// finish writes the single security event for the attempt and fails the
// whole evaluation if the log cannot be written (fail closed).
func (s *EvaluatorService) finish(ctx context.Context, attempt models.AccessAttempt, cls Classification, file *models.ProtectedFile, decision models.Decision, message, action string) (Evaluation, error) {
	event := models.SecurityEvent{
		Timestamp:  attempt.Timestamp,
		Severity:   models.SeverityWarning,
		Category:   categoryForDecision(decision),
		Message:    message,
		IP:         attempt.IP,
		Location:   attempt.Location,
		Action:     action,
		Confidence: cls.Confidence,
	}
	if decision == models.DecisionAuthorized {
		event.Severity = models.SeverityInfo
		event.Confidence = 100
	}
	if cls.Category == "anonymous_access" && decision != models.DecisionAuthorized {
		event.Action = action + " (anonymous presenter)"
	}
	if file != nil {
		event.FileID = file.ID.Hex()
	}

	eventID, err := s.log.Append(ctx, event)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Decision: decision, File: file, EventID: eventID}, nil
}

func categoryForDecision(decision models.Decision) string {
	switch decision {
	case models.DecisionAuthorized:
		return "access_granted"
	case models.DecisionExpired:
		return "credential_expired"
	case models.DecisionConsumed:
		return "credential_replay"
	default:
		return "unauthorized_access"
	}
}
