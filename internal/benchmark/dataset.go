// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package benchmark runs trial configurations over labeled question sets,
// grades the answers, and persists per-example outcomes to an append-only
// results log that doubles as the resumability index.
package benchmark

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-bench/pkg/types"
)

// datasetRecord tolerates the field names used by the common question sets:
// SimpleQA ships problem/answer, BrowseComp question/answer.
type datasetRecord struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Problem  string `json:"problem" yaml:"problem"`
	Expected string `json:"expected" yaml:"expected"`
	Answer   string `json:"answer" yaml:"answer"`
}

// LoadExamples reads benchmark examples from a JSONL (one object per line)
// or YAML (list) file. Missing IDs are assigned from the record position so
// results stay keyed identically across runs.
func LoadExamples(path string) ([]types.BenchmarkExample, error) {
	switch ext := filepath.Ext(path); ext {
	case ".jsonl":
		return loadJSONL(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q: use .jsonl or .yaml", ext)
	}
}

func loadJSONL(path string) ([]types.BenchmarkExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var examples []types.BenchmarkExample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec datasetRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parsing dataset line %d: %w", lineNo, err)
		}

		ex, err := toExample(rec, len(examples))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", lineNo, err)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return examples, nil
}

func loadYAML(path string) ([]types.BenchmarkExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var records []datasetRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	var examples []types.BenchmarkExample
	for i, rec := range records {
		ex, err := toExample(rec, i)
		if err != nil {
			return nil, fmt.Errorf("dataset entry %d: %w", i, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// toExample normalizes a raw record into a BenchmarkExample.
func toExample(rec datasetRecord, position int) (types.BenchmarkExample, error) {
	question := rec.Question
	if question == "" {
		question = rec.Problem
	}
	expected := rec.Expected
	if expected == "" {
		expected = rec.Answer
	}

	if question == "" {
		return types.BenchmarkExample{}, fmt.Errorf("missing question")
	}
	if expected == "" {
		return types.BenchmarkExample{}, fmt.Errorf("missing expected answer")
	}

	id := rec.ID
	if id == "" {
		id = fmt.Sprintf("example-%04d", position)
	}

	return types.BenchmarkExample{ID: id, Question: question, Expected: expected}, nil
}
