package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
)

// History is the result of a history query: the most recent records in
// reverse chronological order plus the derived count of today's non-hold
// trades.
type History struct {
	Records         []Record `json:"trade_history"`
	TodayTradeCount int      `json:"today_trade_count"`
}

// Log is a durable, append-only record store backed by a newline-delimited
// file. A single mutex serializes writers so concurrent pipeline invocations
// append whole records, never interleaved fragments.
type Log struct {
	path string
	mu   sync.Mutex
	file *os.File
	log  zerolog.Logger
	now  func() time.Time // injectable clock for tests
}

// Open opens (or creates) the audit log at path.
func Open(path string, log zerolog.Logger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}

	return &Log{
		path: path,
		file: f,
		log:  log.With().Str("service", "audit_log").Logger(),
		now:  time.Now,
	}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Append writes one record as a single newline-terminated line. A write
// either fully succeeds or fails with an error; failures are never swallowed,
// because losing an audit write after a real trade executed is a correctness
// incident.
func (l *Log) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}

	l.log.Debug().Str("type", string(rec.Type)).Msg("Audit record appended")
	return nil
}

// History returns the most recent limit records (newest first) and today's
// trade count. The count scans every record whose timestamp falls on the
// current UTC calendar date and whose action is not hold, regardless of
// limit. Malformed lines are skipped with a warning, not fatal: the log may
// contain legacy plain-text lines alongside structured entries.
func (l *Log) History(limit int) (History, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return History{}, fmt.Errorf("failed to open audit log for reading: %w", err)
	}
	defer f.Close()

	today := l.now().UTC()

	var records []Record
	count := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, ok := parseRecord(line)
		if !ok {
			l.log.Warn().Int("line", lineNo).Msg("Skipping malformed audit log line")
			continue
		}

		if sameUTCDate(rec.Timestamp, today) && rec.Action() != domain.ActionHold {
			count++
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return History{}, fmt.Errorf("failed to scan audit log: %w", err)
	}

	// Newest first, capped at limit.
	reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return History{Records: records, TodayTradeCount: count}, nil
}

// sameUTCDate reports whether both timestamps fall on the same UTC calendar
// date.
func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func reverse(records []Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
