// Package telemetry appends one JSON line per classified field to a file.
// Several formsense processes may share the file; each line is written
// under an exclusive lock on a sibling ".lock" file.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vulntor/formsense/pkg/classify"
)

// Record is a single classification event.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	File       string    `json:"file"`
	FormIndex  int       `json:"form_index"`
	FieldID    string    `json:"field_id,omitempty"`
	FieldName  string    `json:"field_name,omitempty"`
	Expected   string    `json:"expected,omitempty"`
	Actual     string    `json:"actual"`
	Correct    *bool     `json:"correct,omitempty"` // set only when Expected is known
	DurationUS int64     `json:"duration_us"`
}

// Writer writes records to a JSONL file in a thread-safe manner.
type Writer struct {
	filePath string
	runID    string
	file     *os.File
	encoder  *json.Encoder
	lock     *flock.Flock
	mu       sync.Mutex
	enabled  bool
}

// NewWriter creates a writer that appends to filePath. If filePath is
// empty, the writer is disabled. An empty runID gets a fresh UUID.
func NewWriter(filePath, runID string) (*Writer, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if filePath == "" {
		return &Writer{runID: runID, enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}

	return &Writer{
		filePath: filePath,
		runID:    runID,
		file:     file,
		encoder:  json.NewEncoder(file),
		lock:     flock.New(filePath + ".lock"),
		enabled:  true,
	}, nil
}

// Write appends rec, filling in the run ID and timestamp when unset.
func (w *Writer) Write(rec Record) error {
	if !w.enabled {
		return nil
	}
	if rec.RunID == "" {
		rec.RunID = w.runID
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return fmt.Errorf("telemetry file %s is closed", w.filePath)
	}

	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock telemetry file: %w", err)
	}
	defer func() { _ = w.lock.Unlock() }()

	if err := w.encoder.Encode(rec); err != nil {
		return fmt.Errorf("failed to write telemetry record: %w", err)
	}
	return nil
}

// WriteField records one classified field. expected overrides the field's
// own data-manual-scoring value when non-empty.
func (w *Writer) WriteField(r classify.FieldResult, expected string) error {
	if expected == "" {
		expected = r.Expected
	}
	rec := Record{
		File:       r.Source,
		FormIndex:  r.FormIndex,
		FieldID:    r.ID,
		FieldName:  r.Name,
		Expected:   expected,
		Actual:     r.Subtype,
		DurationUS: r.Duration.Microseconds(),
	}
	if expected != "" {
		correct := expected == r.Subtype
		rec.Correct = &correct
	}
	return w.Write(rec)
}

// Observer adapts the writer to classify.Observer. Write failures are
// logged, not returned.
func (w *Writer) Observer(logger zerolog.Logger) classify.Observer {
	return func(r classify.FieldResult) {
		if err := w.WriteField(r, ""); err != nil {
			logger.Warn().Err(err).Str("file", w.filePath).Msg("Telemetry write failed")
		}
	}
}

// Close closes the telemetry file.
func (w *Writer) Close() error {
	if !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close telemetry file: %w", err)
	}
	w.file = nil
	return nil
}

// IsEnabled returns true if telemetry is enabled.
func (w *Writer) IsEnabled() bool {
	return w.enabled
}

// RunID returns the run identifier stamped on every record.
func (w *Writer) RunID() string {
	return w.runID
}

// ReadFile decodes every record of a JSONL telemetry file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
