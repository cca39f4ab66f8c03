// Package reviewlog appends crawl summaries and per-article decisions to
// JSON Lines files for offline review.
package reviewlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
)

// File names inside the log directory.
const (
	CrawlFile    = "crawl_log.jsonl"
	DecisionFile = "skip_debug.jsonl"
)

// Decision actions.
const (
	ActionAccepted = "accepted"
	ActionSkipped  = "skipped"
)

// SourceRun is the per-source part of a crawl record.
type SourceRun struct {
	Source        string  `json:"source"`
	FeedUsed      string  `json:"feed_used"`
	Elapsed       float64 `json:"elapsed"`
	Error         *string `json:"error"`
	ArticlesAdded int     `json:"articles_added"`
}

// CrawlRecord summarizes one ingestion cycle.
type CrawlRecord struct {
	RunID       string      `json:"run_id"`
	Timestamp   time.Time   `json:"timestamp"`
	NewArticles int         `json:"new_articles"`
	Elapsed     float64     `json:"elapsed"`
	Aborted     string      `json:"aborted,omitempty"`
	PerSource   []SourceRun `json:"per_source"`
}

// DecisionRecord explains what happened to one candidate.
type DecisionRecord struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Action    string           `json:"action"`
	Source    string           `json:"source"`
	Domain    string           `json:"domain"`
	Title     string           `json:"title"`
	URL       string           `json:"url"`
	ID        *int64           `json:"id"`
	Status    string           `json:"status,omitempty"`
	Dedup     string           `json:"dedup,omitempty"`
	Diagnose  scorer.Diagnosis `json:"diagnose"`
}

// NewRunID returns a fresh crawl-run identifier.
func NewRunID() string { return uuid.NewString() }

// Log appends records to the two files of a directory. A nil *Log discards.
type Log struct {
	mu        sync.Mutex
	crawl     string
	decisions string
}

// Open prepares dir for writing.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Log{
		crawl:     filepath.Join(dir, CrawlFile),
		decisions: filepath.Join(dir, DecisionFile),
	}, nil
}

// Crawl appends a crawl summary.
func (l *Log) Crawl(rec CrawlRecord) error {
	if l == nil {
		return nil
	}
	return l.append(l.crawl, rec)
}

// Decision appends a decision record.
func (l *Log) Decision(rec DecisionRecord) error {
	if l == nil {
		return nil
	}
	return l.append(l.decisions, rec)
}

func (l *Log) append(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// ErrorText converts err into the nullable string of SourceRun.Error.
func ErrorText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
