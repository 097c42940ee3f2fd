// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridProposer_WalksTheSpaceThenStops(t *testing.T) {
	s := sampleSpace()
	p := &GridProposer{Space: s}

	var history []Trial
	for i := 0; i < s.Size(); i++ {
		cfg, ok, err := p.Propose(history)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, s.At(i), cfg)
		history = append(history, Trial{Index: i, Config: cfg, ConfigID: cfg.ID()})
	}

	_, ok, err := p.Propose(history)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRandomProposer_DeterministicPerSeed(t *testing.T) {
	s := sampleSpace()
	a := &RandomProposer{Space: s, Seed: 42}
	b := &RandomProposer{Space: s, Seed: 42}

	var history []Trial
	for i := 0; i < 4; i++ {
		cfgA, ok, err := a.Propose(history)
		require.NoError(t, err)
		require.True(t, ok)
		cfgB, _, err := b.Propose(history)
		require.NoError(t, err)

		// Same seed and history always yield the same proposal.
		assert.Equal(t, cfgA, cfgB)
		history = append(history, Trial{Index: i, Config: cfgA, ConfigID: cfgA.ID()})
	}
}

func TestRandomProposer_NeverRepeatsTriedConfigs(t *testing.T) {
	s := sampleSpace()
	p := &RandomProposer{Space: s, Seed: 7}

	var history []Trial
	seen := make(map[string]bool)
	for i := 0; i < s.Size(); i++ {
		cfg, ok, err := p.Propose(history)
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.False(t, seen[cfg.ID()])
		seen[cfg.ID()] = true
		history = append(history, Trial{Index: i, Config: cfg, ConfigID: cfg.ID()})
	}

	if len(history) == s.Size() {
		_, ok, err := p.Propose(history)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNewProposer(t *testing.T) {
	s := sampleSpace()

	p, err := NewProposer("", s, 0)
	require.NoError(t, err)
	assert.Equal(t, "grid", p.Name())

	p, err = NewProposer("random", s, 1)
	require.NoError(t, err)
	assert.Equal(t, "random", p.Name())

	_, err = NewProposer("bayesian", s, 0)
	assert.ErrorContains(t, err, `unknown proposer "bayesian"`)
}
