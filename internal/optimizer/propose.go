// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Proposer picks the next config to try given the trial history. Proposals
// are deterministic functions of the history (and a seed, for random), so a
// resumed run proposes the same sequence it would have uninterrupted.
type Proposer interface {
	Name() string

	// Propose returns the next config. ok is false when the space is
	// exhausted and the run should stop early.
	Propose(history []Trial) (cfg types.TrialConfig, ok bool, err error)
}

// NewProposer builds the named proposer over a space. Empty name means grid.
func NewProposer(name string, space Space, seed int64) (Proposer, error) {
	switch name {
	case "", "grid":
		return &GridProposer{Space: space}, nil
	case "random":
		return &RandomProposer{Space: space, Seed: seed}, nil
	default:
		return nil, &types.ConfigurationError{Field: "proposer", Reason: fmt.Sprintf("unknown proposer %q", name)}
	}
}

// GridProposer enumerates the space exhaustively in mixed-radix order.
type GridProposer struct {
	Space Space
}

func (p *GridProposer) Name() string { return "grid" }

func (p *GridProposer) Propose(history []Trial) (types.TrialConfig, bool, error) {
	i := len(history)
	if i >= p.Space.Size() {
		return types.TrialConfig{}, false, nil
	}
	return p.Space.At(i), true, nil
}

// randomProposalAttempts bounds rejection sampling against already-tried
// configs before declaring the space effectively exhausted.
const randomProposalAttempts = 64

// RandomProposer samples the space uniformly at random, never repeating a
// config already in the history. The sample for step n depends only on the
// seed and n, so resumption replays identically.
type RandomProposer struct {
	Space Space
	Seed  int64
}

func (p *RandomProposer) Name() string { return "random" }

func (p *RandomProposer) Propose(history []Trial) (types.TrialConfig, bool, error) {
	if len(history) >= p.Space.Size() {
		return types.TrialConfig{}, false, nil
	}

	tried := make(map[string]bool, len(history))
	for _, t := range history {
		tried[t.ConfigID] = true
	}

	rng := rand.New(rand.NewSource(p.Seed + int64(len(history))))
	for attempt := 0; attempt < randomProposalAttempts; attempt++ {
		cfg := p.Space.At(rng.Intn(p.Space.Size()))
		if !tried[cfg.ID()] {
			return cfg, true, nil
		}
	}
	return types.TrialConfig{}, false, nil
}
