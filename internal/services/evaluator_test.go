package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
)

func TestEvaluateUnknownCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{
		CredentialID: "deadbeefdeadbeefdeadbeefdeadbeef",
		Claim:        "a@x.com",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionUnauthorized {
		t.Fatalf("decision = %q, want %q", eval.Decision, models.DecisionUnauthorized)
	}
	if eval.File != nil {
		t.Fatal("unknown credential must not resolve to a file")
	}
	if eval.EventID == "" {
		t.Fatal("every evaluation must log an event")
	}
}

func TestEvaluateAllowListFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{
		ExpiresAt:  timePtr(time.Now().Add(time.Hour)),
		AllowList:  []string{"a@x.com"},
		OneTimeUse: true,
	})
	credID := h.seedCredential(t, fileID, true)

	// Wrong presenter first.
	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "b@x.com"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionUnauthorized {
		t.Fatalf("wrong claim: decision = %q, want %q", eval.Decision, models.DecisionUnauthorized)
	}

	// Listed presenter, case-insensitive for emails.
	eval, err = h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "A@X.com"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionAuthorized {
		t.Fatalf("listed claim: decision = %q, want %q", eval.Decision, models.DecisionAuthorized)
	}
	if eval.File == nil || eval.File.ID != fileID {
		t.Fatal("authorized evaluation must carry the file")
	}

	// Replay of the consumed credential.
	eval, err = h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "a@x.com"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionConsumed {
		t.Fatalf("replay: decision = %q, want %q", eval.Decision, models.DecisionConsumed)
	}
}

func TestEvaluateExpiryBeforeAllowList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{
		ExpiresAt: timePtr(time.Now().Add(-time.Minute)),
		AllowList: []string{"a@x.com"},
	})
	credID := h.seedCredential(t, fileID, false)

	// Even a listed presenter sees Expired, so expiry never leaks
	// allow-list membership.
	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "a@x.com"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionExpired {
		t.Fatalf("decision = %q, want %q", eval.Decision, models.DecisionExpired)
	}

	cred, err := h.store.GetCredential(ctx, credID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if cred.State != models.CredentialRevoked {
		t.Fatalf("expired presentation must revoke the credential, state = %q", cred.State)
	}

	file, err := h.store.GetFile(ctx, fileID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if file.FailedAttempts != 0 {
		t.Fatalf("expiry must not count toward failed attempts, got %d", file.FailedAttempts)
	}
}

func TestEvaluateBruteForceKillSwitch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{
		AllowList:         []string{"a@x.com"},
		MaxFailedAttempts: 3,
	})
	credID := h.seedCredential(t, fileID, false)

	for i := 0; i < 3; i++ {
		eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "intruder@x.com"})
		if err != nil {
			t.Fatalf("Evaluate #%d: %v", i+1, err)
		}
		if eval.Decision != models.DecisionUnauthorized {
			t.Fatalf("Evaluate #%d: decision = %q, want %q", i+1, eval.Decision, models.DecisionUnauthorized)
		}
	}

	file, err := h.store.GetFile(ctx, fileID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if !file.Destroyed {
		t.Fatal("reaching the attempt limit must destroy the file")
	}
	if file.DestroyReason != models.ReasonBruteForce {
		t.Fatalf("destroy reason = %q, want %q", file.DestroyReason, models.ReasonBruteForce)
	}
	if n := h.eventCount(t, models.SeverityCritical); n != 1 {
		t.Fatalf("critical events = %d, want exactly 1", n)
	}

	// The rightful presenter now sees Expired, not Authorized.
	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: "a@x.com"})
	if err != nil {
		t.Fatalf("Evaluate after destruction: %v", err)
	}
	if eval.Decision != models.DecisionExpired {
		t.Fatalf("post-destruction decision = %q, want %q", eval.Decision, models.DecisionExpired)
	}
}

func TestEvaluateConcurrentSingleUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{OneTimeUse: true})
	credID := h.seedCredential(t, fileID, true)

	const presenters = 32
	decisions := make([]models.Decision, presenters)
	errs := make([]error, presenters)

	var wg sync.WaitGroup
	for i := 0; i < presenters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID})
			decisions[i] = eval.Decision
			errs[i] = err
		}(i)
	}
	wg.Wait()

	authorized := 0
	for i := 0; i < presenters; i++ {
		if errs[i] != nil {
			t.Fatalf("Evaluate #%d: %v", i, errs[i])
		}
		switch decisions[i] {
		case models.DecisionAuthorized:
			authorized++
		case models.DecisionConsumed:
			// Losers of the race.
		default:
			t.Fatalf("Evaluate #%d: unexpected decision %q", i, decisions[i])
		}
	}
	if authorized != 1 {
		t.Fatalf("authorized = %d, want exactly 1", authorized)
	}
}

func TestEvaluateOneEventPerAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{AllowList: []string{"a@x.com"}})
	credID := h.seedCredential(t, fileID, false)

	before := h.eventCount(t)

	attempts := []string{"a@x.com", "b@x.com", "a@x.com", ""}
	for _, claim := range attempts {
		if _, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID, Claim: claim}); err != nil {
			t.Fatalf("Evaluate(%q): %v", claim, err)
		}
	}

	after := h.eventCount(t)
	if got, want := after-before, int64(len(attempts)); got != want {
		t.Fatalf("events appended = %d, want %d", got, want)
	}
}

func TestEvaluateFailsClosedOnLogFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{})
	credID := h.seedCredential(t, fileID, false)

	broken := &failingEvents{MemoryStore: h.store}
	seclog := NewSecurityLog(broken)
	destroyer := NewDestructionService(broken, nil, seclog)
	evaluator := NewEvaluatorService(broken, destroyer, seclog, HeuristicClassifier{})

	eval, err := evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID})
	if !errors.Is(err, ErrLogWrite) {
		t.Fatalf("err = %v, want ErrLogWrite", err)
	}
	if eval.Decision == models.DecisionAuthorized {
		t.Fatal("a failed log write must never yield an authorized decision")
	}
}

func TestEvaluateDestroyedFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fileID := h.seedFile(t, &models.AccessPolicy{ManualKillSwitch: true})
	credID := h.seedCredential(t, fileID, false)

	if err := h.destroyer.Destroy(ctx, fileID, models.ReasonManual); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionExpired {
		t.Fatalf("decision = %q, want %q", eval.Decision, models.DecisionExpired)
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	h := newHarness(t)

	fileID := h.seedFile(t, &models.AccessPolicy{})
	credID := h.seedCredential(t, fileID, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := h.eventCount(t)
	if _, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if after := h.eventCount(t); after != before {
		t.Fatal("an abandoned evaluation must not log an event")
	}

	cred, err := h.store.GetCredential(context.Background(), credID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if cred.State != models.CredentialActive {
		t.Fatalf("an abandoned evaluation must not consume, state = %q", cred.State)
	}
}

func TestEvaluateAnonymousPresenterOnOpenFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// No allow-list: the file is public and an empty claim authorizes.
	fileID := h.seedFile(t, &models.AccessPolicy{})
	credID := h.seedCredential(t, fileID, false)

	eval, err := h.evaluator.Evaluate(ctx, models.AccessAttempt{CredentialID: credID})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != models.DecisionAuthorized {
		t.Fatalf("decision = %q, want %q", eval.Decision, models.DecisionAuthorized)
	}

	// Non single-use credentials survive authorization.
	cred, err := h.store.GetCredential(ctx, credID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if cred.State != models.CredentialActive {
		t.Fatalf("reusable credential state = %q, want %q", cred.State, models.CredentialActive)
	}
}
