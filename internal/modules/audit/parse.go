package audit

import (
	"encoding/json"
	"strings"
	"time"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/policy"
)

// legacyEntry matches the structured entries written by the pre-migration
// system: {"timestamp", "trade_request", "execution"} for processed requests
// and {"timestamp", "trade_request", "policy_status", "rejection_reason"} for
// rejections.
type legacyEntry struct {
	Timestamp    string               `json:"timestamp"`
	TradeRequest *domain.TradeRequest `json:"trade_request"`
	Execution    *struct {
		Status string `json:"status"`
	} `json:"execution"`
	PolicyStatus    string `json:"policy_status"`
	RejectionReason string `json:"rejection_reason"`
}

// parseRecord decodes one audit log line. It tries the canonical record
// schema first, then the legacy structured entry, then the legacy plain-text
// line. Returns ok=false for lines that match none of the three.
func parseRecord(line []byte) (Record, bool) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err == nil && rec.Type != "" {
		return rec, true
	}

	var entry legacyEntry
	if err := json.Unmarshal(line, &entry); err == nil && entry.TradeRequest != nil {
		return recordFromLegacyEntry(entry)
	}

	return parseLegacyLine(string(line))
}

func recordFromLegacyEntry(entry legacyEntry) (Record, bool) {
	ts, ok := parseLegacyTimestamp(entry.Timestamp)
	if !ok {
		return Record{}, false
	}

	rec := Record{Timestamp: ts, Request: entry.TradeRequest}

	switch {
	case strings.EqualFold(entry.PolicyStatus, "rejected"):
		rec.Type = RecordPolicyRejected
		rec.Rejection = &policy.Decision{
			Status: policy.StatusRejected,
			Reason: entry.RejectionReason,
		}
	case entry.Execution != nil && entry.Execution.Status == string(domain.ExecutionLoggedHold):
		rec.Type = RecordTradeLoggedHold
		rec.Execution = &domain.ExecutionResult{Status: domain.ExecutionLoggedHold}
	case entry.Execution != nil:
		rec.Type = RecordTradeExecuted
		rec.Execution = &domain.ExecutionResult{Status: domain.ExecutionStatus(entry.Execution.Status)}
	default:
		rec.Type = RecordLegacy
	}

	return rec, true
}

// parseLegacyLine decodes the original plain-text log format:
//
//	<timestamp> - <ACTION> - <coin_id> (<symbol>) at <price> <currency>
//
// with REJECTED lines carrying an extra " - Reason: ..." segment.
func parseLegacyLine(line string) (Record, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), " - ", 3)
	if len(parts) < 2 {
		return Record{}, false
	}

	ts, ok := parseLegacyTimestamp(parts[0])
	if !ok {
		return Record{}, false
	}

	rec := Record{Type: RecordLegacy, Timestamp: ts}

	token := strings.ToLower(strings.TrimSpace(parts[1]))
	switch token {
	case "buy", "sell", "hold":
		rec.Request = &domain.TradeRequest{Action: domain.Action(token)}
	case "rejected":
		// Rejected legacy lines carry no action field; left empty.
	default:
		return Record{}, false
	}

	if len(parts) == 3 {
		if coinID, symbol, ok := parseLegacyCoin(parts[2]); ok {
			if rec.Request == nil {
				rec.Request = &domain.TradeRequest{}
			}
			rec.Request.Asset.CoinID = coinID
			rec.Request.Asset.Symbol = symbol
		}
	}

	return rec, true
}

// parseLegacyCoin extracts coin_id and symbol from "<coin_id> (<symbol>) at ...".
func parseLegacyCoin(s string) (coinID, symbol string, ok bool) {
	open := strings.Index(s, " (")
	end := strings.Index(s, ")")
	if open <= 0 || end <= open {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), s[open+2 : end], true
}

// parseLegacyTimestamp accepts both the Z-suffixed and the zone-naive ISO
// timestamps found in pre-migration logs. Naive timestamps are taken as UTC.
func parseLegacyTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
