// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package optimizer searches the trial-config space for the best-scoring
// configuration, one trial at a time, with a resumable checkpoint.
package optimizer

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Space is the discrete parameter search space. Each dimension lists its
// candidate values; a config is one choice per dimension.
type Space struct {
	Strategies            []types.StrategyKind `yaml:"strategies"`
	Iterations            []int                `yaml:"iterations"`
	QuestionsPerIteration []int                `yaml:"questions_per_iteration"`
	Providers             []string             `yaml:"providers"`
}

// LoadSpace reads a search space declaration from a YAML file.
func LoadSpace(path string) (Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Space{}, fmt.Errorf("reading search space: %w", err)
	}

	var s Space
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Space{}, fmt.Errorf("parsing search space: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Space{}, err
	}
	return s, nil
}

// Validate rejects spaces with empty dimensions or values that could never
// pass TrialConfig validation.
func (s Space) Validate() error {
	if len(s.Strategies) == 0 {
		return &types.ConfigurationError{Field: "strategies", Reason: "dimension is empty"}
	}
	if len(s.Iterations) == 0 {
		return &types.ConfigurationError{Field: "iterations", Reason: "dimension is empty"}
	}
	if len(s.QuestionsPerIteration) == 0 {
		return &types.ConfigurationError{Field: "questions_per_iteration", Reason: "dimension is empty"}
	}
	if len(s.Providers) == 0 {
		return &types.ConfigurationError{Field: "providers", Reason: "dimension is empty"}
	}

	for _, k := range s.Strategies {
		if !k.Valid() {
			return &types.ConfigurationError{Field: "strategies", Reason: fmt.Sprintf("unknown strategy %q", k)}
		}
	}
	for _, n := range s.Iterations {
		if n < 1 {
			return &types.ConfigurationError{Field: "iterations", Reason: "values must be at least 1"}
		}
	}
	for _, n := range s.QuestionsPerIteration {
		if n < 1 {
			return &types.ConfigurationError{Field: "questions_per_iteration", Reason: "values must be at least 1"}
		}
	}
	return nil
}

// Size is the number of distinct configs in the space.
func (s Space) Size() int {
	return len(s.Strategies) * len(s.Iterations) * len(s.QuestionsPerIteration) * len(s.Providers)
}

// At decodes the i-th config in mixed-radix order: providers vary fastest,
// strategies slowest.
func (s Space) At(i int) types.TrialConfig {
	cfg := types.TrialConfig{}

	cfg.Provider = s.Providers[i%len(s.Providers)]
	i /= len(s.Providers)

	cfg.QuestionsPerIteration = s.QuestionsPerIteration[i%len(s.QuestionsPerIteration)]
	i /= len(s.QuestionsPerIteration)

	cfg.Iterations = s.Iterations[i%len(s.Iterations)]
	i /= len(s.Iterations)

	cfg.Strategy = s.Strategies[i%len(s.Strategies)]
	return cfg
}
