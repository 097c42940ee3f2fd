// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-bench/pkg/types"
)

func sampleSpace() Space {
	return Space{
		Strategies:            []types.StrategyKind{types.StrategyStandard, types.StrategyRapid},
		Iterations:            []int{1, 3},
		QuestionsPerIteration: []int{2},
		Providers:             []string{"wikipedia", "searxng"},
	}
}

func TestLoadSpace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategies: [standard, rapid]
iterations: [1, 3]
questions_per_iteration: [2]
providers: [wikipedia, searxng]
`), 0o644))

	s, err := LoadSpace(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSpace(), s)
	assert.Equal(t, 8, s.Size())
}

func TestSpaceValidate(t *testing.T) {
	s := sampleSpace()
	require.NoError(t, s.Validate())

	bad := s
	bad.Providers = nil
	var ce *types.ConfigurationError
	require.ErrorAs(t, bad.Validate(), &ce)
	assert.Equal(t, "providers", ce.Field)

	bad = s
	bad.Strategies = []types.StrategyKind{"mystery"}
	assert.ErrorContains(t, bad.Validate(), `unknown strategy "mystery"`)

	bad = s
	bad.Iterations = []int{0}
	assert.Error(t, bad.Validate())
}

func TestSpaceAt_EnumeratesEveryConfigOnce(t *testing.T) {
	s := sampleSpace()

	seen := make(map[string]bool)
	for i := 0; i < s.Size(); i++ {
		cfg := s.At(i)
		require.NoError(t, cfg.Validate())
		assert.False(t, seen[cfg.ID()], "config %d repeated", i)
		seen[cfg.ID()] = true
	}
	assert.Len(t, seen, s.Size())

	// Providers vary fastest.
	assert.Equal(t, "wikipedia", s.At(0).Provider)
	assert.Equal(t, "searxng", s.At(1).Provider)
	assert.Equal(t, s.At(0).Strategy, s.At(1).Strategy)
}
