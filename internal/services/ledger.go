package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LedgerAttestor timestamps credential issuance on an external attestation
// ledger. It is an optional collaborator: attestation failures are logged
// and ignored, and the access evaluator never consults the ledger, so the
// core decision stays testable without network dependencies.
type LedgerAttestor interface {
	Attest(ctx context.Context, fileID, credentialID string, issuedAt time.Time) (string, error)
}

// LocalAttestor issues local receipts in place of a real ledger.
type LocalAttestor struct{}

func (LocalAttestor) Attest(ctx context.Context, fileID, credentialID string, issuedAt time.Time) (string, error) {
	return fmt.Sprintf("local:%s:%d", uuid.NewString(), issuedAt.Unix()), nil
}
