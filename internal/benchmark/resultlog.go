// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package benchmark

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/research-bench/pkg/types"
)

// ResultLog is an append-only JSONL file of per-example outcomes. Each line
// is one outcome keyed by (config_id, example_id); the log is both the audit
// trail and the membership index that makes trials resumable.
type ResultLog struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// OpenResultLog opens the log for appending, creating the file and its
// parent directory as needed.
func OpenResultLog(path string) (*ResultLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening results log: %w", err)
	}
	return &ResultLog{path: path, f: f}, nil
}

// Append writes one outcome as a single JSON line. Appends are serialized so
// concurrent example workers never interleave partial lines.
func (l *ResultLog) Append(outcome types.ExampleOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("appending outcome: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (l *ResultLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ReadAll returns every outcome in the log in append order.
func (l *ResultLog) ReadAll() ([]types.ExampleOutcome, error) {
	return ReadOutcomes(l.path)
}

// Completed returns the graded outcomes already logged for a config, keyed
// by example ID. Incomplete outcomes are excluded so interrupted examples
// run again on resume.
func (l *ResultLog) Completed(configID string) (map[string]types.ExampleOutcome, error) {
	outcomes, err := l.ReadAll()
	if err != nil {
		return nil, err
	}

	done := make(map[string]types.ExampleOutcome)
	for _, o := range outcomes {
		if o.ConfigID != configID || o.Incomplete {
			continue
		}
		done[o.ExampleID] = o
	}
	return done, nil
}

// ReadOutcomes reads a results log without opening it for writing. A missing
// file reads as empty.
func ReadOutcomes(path string) ([]types.ExampleOutcome, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening results log: %w", err)
	}
	defer f.Close()

	var outcomes []types.ExampleOutcome
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var o types.ExampleOutcome
		if err := json.Unmarshal(line, &o); err != nil {
			return nil, fmt.Errorf("parsing results line %d: %w", lineNo, err)
		}
		outcomes = append(outcomes, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results log: %w", err)
	}
	return outcomes, nil
}
