// Package history keeps a log of completed scans. Entries hold scan
// summaries only; document text and flagged sentences are never stored.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/raaihank/bias-auditor/internal/bias"
)

// DefaultLimit is the number of entries Recent returns when limit is not positive
const DefaultLimit = 20

// MaxLimit caps a single Recent call
const MaxLimit = 500

// Entry summarises one completed scan
type Entry struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"request_id,omitempty"`
	Source     string         `json:"source"`
	Document   string         `json:"document,omitempty"`
	Analyzed   bool           `json:"analyzed"`
	Cached     bool           `json:"cached"`
	Sentences  int            `json:"sentences"`
	Findings   int            `json:"findings"`
	Categories map[string]int `json:"categories"`
	Score      float64        `json:"score"`
	Level      bias.Level     `json:"level"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Store records scans and lists the most recent ones, newest first
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Backend() string
	Close() error
}

// NewEntry fills in the ID and timestamp of an entry built from a report
func NewEntry(requestID, source, document string, analyzed, cached bool, report bias.Report) Entry {
	return Entry{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		Source:     source,
		Document:   document,
		Analyzed:   analyzed,
		Cached:     cached,
		Sentences:  report.Sentences,
		Findings:   len(report.Findings),
		Categories: report.CategoryCounts(),
		Score:      report.Score,
		Level:      report.Level,
		CreatedAt:  time.Now().UTC(),
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Noop discards every entry
type Noop struct{}

func (Noop) Record(context.Context, Entry) error          { return nil }
func (Noop) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
func (Noop) Backend() string                              { return "none" }
func (Noop) Close() error                                 { return nil }
