// Package audit maintains the append-only trade audit log. The log is the
// sole source of truth for trade history; daily trade counts are always
// derived by scanning it, never stored.
package audit

import (
	"time"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/policy"
)

// RecordType tags an audit record.
type RecordType string

const (
	// RecordTradeExecuted covers every buy/sell execution attempt, including
	// attempts that ended in an exchange error (the execution payload carries
	// the outcome).
	RecordTradeExecuted RecordType = "trade_executed"

	// RecordTradeLoggedHold marks a hold action that was logged without any
	// exchange call.
	RecordTradeLoggedHold RecordType = "trade_logged_hold"

	// RecordPolicyRejected marks a request the policy engine rejected.
	RecordPolicyRejected RecordType = "policy_rejected"

	// RecordLegacy marks a pre-migration plain-text line reconstructed during
	// a history scan. Legacy records are read-only; new writes always use the
	// canonical schema.
	RecordLegacy RecordType = "legacy"
)

// Record is the canonical audit log entry. One record is appended per
// terminal pipeline outcome; records are never rewritten or deleted.
type Record struct {
	Type      RecordType              `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Request   *domain.TradeRequest    `json:"trade_request,omitempty"`
	Execution *domain.ExecutionResult `json:"execution,omitempty"`
	Rejection *policy.Decision        `json:"rejection,omitempty"`
}

// Action returns the structured action of the originating request, or the
// empty string when the record carries none (some legacy lines). Counting
// keys off this field exclusively, never off serialized record text.
func (r Record) Action() domain.Action {
	if r.Request == nil {
		return ""
	}
	return r.Request.Action
}
