package services

import (
	"net"
	"strings"

	"github.com/shadowshield/ShadowShield/internal/models"
)

// Classification is the anomaly classifier's annotation for one attempt.
type Classification struct {
	Category   string
	Confidence int // 0-100
}

// Classifier scores an access attempt. Annotation only: the evaluator
// never lets a classification change an authorization decision, which
// keeps the trust decision auditable regardless of classifier quality.
type Classifier interface {
	Classify(attempt models.AccessAttempt) Classification
}

// HeuristicClassifier scores attempts from the request shape alone:
// presenter claim, source address, reported location. Deterministic, no
// I/O, no learned state.
type HeuristicClassifier struct{}

func (HeuristicClassifier) Classify(attempt models.AccessAttempt) Classification {
	confidence := 50
	category := "credential_presentation"

	if strings.TrimSpace(attempt.Claim) == "" {
		confidence += 20
		category = "anonymous_access"
	}

	if ip := net.ParseIP(strings.TrimSpace(attempt.IP)); ip != nil {
		if !ip.IsPrivate() && !ip.IsLoopback() {
			confidence += 15
		}
	} else if attempt.IP != "" {
		// Unparsable source descriptor is itself suspicious.
		confidence += 10
	}

	if attempt.Location != "" {
		confidence += 5
	}

	if confidence > 100 {
		confidence = 100
	}
	return Classification{Category: category, Confidence: confidence}
}
