package models

import "time"

// Severity classifies a security event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is one immutable entry in the append-only security log.
// Seq is assigned by the store on append; it is the canonical insertion
// order (higher = newer).
type SecurityEvent struct {
	ID         string    `bson:"_id" json:"id"`
	Seq        int64     `bson:"seq" json:"seq"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Severity   Severity  `bson:"severity" json:"severity"`
	Category   string    `bson:"category" json:"category"`
	Message    string    `bson:"message" json:"message"`
	FileID     string    `bson:"file_id,omitempty" json:"file_id,omitempty"`
	IP         string    `bson:"ip,omitempty" json:"ip,omitempty"`
	Location   string    `bson:"location,omitempty" json:"location,omitempty"`
	Action     string    `bson:"action,omitempty" json:"action,omitempty"`
	Confidence int       `bson:"confidence" json:"confidence" validate:"gte=0,lte=100"`
}

// AccessAttempt is one presentation of a credential. It is not persisted;
// the security event derived from it is.
type AccessAttempt struct {
	CredentialID string    `json:"credential_id"`
	Claim        string    `json:"claim,omitempty"`
	IP           string    `json:"ip,omitempty"`
	Location     string    `json:"location,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Decision is a terminal outcome of the access evaluator. Decisions are
// values, not errors: all four are expected, frequent results.
type Decision string

const (
	DecisionAuthorized   Decision = "authorized"
	DecisionUnauthorized Decision = "unauthorized"
	DecisionExpired      Decision = "expired"
	DecisionConsumed     Decision = "consumed"
)
