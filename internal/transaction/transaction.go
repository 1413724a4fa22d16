package transaction

import (
	"errors"
	"time"
)

// MaxEntries caps the audit log; the oldest entries are evicted first.
const MaxEntries = 100

var ErrInvalid = errors.New("transaction requires a type and policy id")

// Type names the policy lifecycle event a transaction records.
type Type string

const (
	TypePolicyCreated   Type = "policy_created"
	TypePolicyUpdated   Type = "policy_updated"
	TypePolicyCancelled Type = "policy_cancelled"
)

// Transaction is one audit log entry.
type Transaction struct {
	Type        Type      `json:"type"`
	PolicyID    string    `json:"policyId"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

func describe(t Type, policyID string) string {
	switch t {
	case TypePolicyCreated:
		return "Policy " + policyID + " created"
	case TypePolicyUpdated:
		return "Policy " + policyID + " updated"
	case TypePolicyCancelled:
		return "Policy " + policyID + " cancelled"
	}

	return "Policy " + policyID + " " + string(t)
}
