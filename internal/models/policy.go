package models

import (
	"sort"
	"time"
)

// AccessPolicy is the rule set attached to a protected file. It is mutable
// until the first credential for the file is minted, then frozen for good.
type AccessPolicy struct {
	ExpiresAt         *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	AllowList         []string   `bson:"allow_list,omitempty" json:"allow_list,omitempty"`
	MaxFailedAttempts int        `bson:"max_failed_attempts" json:"max_failed_attempts" validate:"gte=0"`
	OneTimeUse        bool       `bson:"one_time_use" json:"one_time_use"`
	ManualKillSwitch  bool       `bson:"manual_kill_switch" json:"manual_kill_switch"`
	Frozen            bool       `bson:"frozen" json:"frozen"`
}

// Expired reports whether the policy deadline has passed. A nil deadline
// never expires.
func (p *AccessPolicy) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// SameRules compares the rule fields of two policies, ignoring the frozen
// flag. Allow-list order is not significant.
func (p *AccessPolicy) SameRules(other *AccessPolicy) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.MaxFailedAttempts != other.MaxFailedAttempts ||
		p.OneTimeUse != other.OneTimeUse ||
		p.ManualKillSwitch != other.ManualKillSwitch {
		return false
	}
	if (p.ExpiresAt == nil) != (other.ExpiresAt == nil) {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.Equal(*other.ExpiresAt) {
		return false
	}
	if len(p.AllowList) != len(other.AllowList) {
		return false
	}
	a := append([]string(nil), p.AllowList...)
	b := append([]string(nil), other.AllowList...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
