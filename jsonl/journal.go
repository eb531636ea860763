// Package jsonl persists the decision journal as JSON Lines.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Decision is one recorded accept or reject, durable across sessions so a
// review can be audited after the fact.
type Decision struct {
	Time         time.Time `json:"time"`
	URI          string    `json:"uri"`
	DiffID       string    `json:"diff_id"`
	Action       string    `json:"action"`
	OriginalCode string    `json:"original_code,omitempty"`
	ModifiedCode string    `json:"modified_code,omitempty"`
}

// Decision actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Recorder appends decisions to a journal file, one JSON object per line.
type Recorder struct {
	f   *os.File
	enc *json.Encoder
}

// NewRecorder opens (creating if needed) the journal at path for append.
func NewRecorder(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Recorder{f: f, enc: json.NewEncoder(f)}, nil
}

// Record appends one decision. Encoder.Encode writes the trailing newline
// that delimits JSONL records.
func (r *Recorder) Record(d Decision) error {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	if err := r.enc.Encode(d); err != nil {
		return fmt.Errorf("recording decision for %s: %w", d.DiffID, err)
	}
	return nil
}

// Close closes the underlying journal file.
func (r *Recorder) Close() error {
	return r.f.Close()
}

// Load reads every decision from the journal at path. Blank lines are
// skipped; a missing journal is an empty one.
func Load(path string) ([]Decision, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var decisions []Decision
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var d Decision
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		decisions = append(decisions, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return decisions, nil
}
