// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-bench pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// SessionStatus tracks a ResearchSession through its lifecycle.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the session can no longer change state.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCancelled
}

// StrategyKind selects the research loop policy for a session.
type StrategyKind string

const (
	StrategyStandard    StrategyKind = "standard"
	StrategyRapid       StrategyKind = "rapid"
	StrategyIterDRAG    StrategyKind = "iterdrag"
	StrategyFocused     StrategyKind = "focused-iteration"
	StrategySourceBased StrategyKind = "source-based"
)

// StrategyKinds lists all supported strategies in a stable order.
var StrategyKinds = []StrategyKind{
	StrategyStandard,
	StrategyRapid,
	StrategyIterDRAG,
	StrategyFocused,
	StrategySourceBased,
}

// Valid reports whether k names a known strategy.
func (k StrategyKind) Valid() bool {
	for _, known := range StrategyKinds {
		if k == known {
			return true
		}
	}
	return false
}

// SourceDocument is one retrieved unit of evidence. Within a session the URL
// is the dedup key: a document fetched by two sub-questions appears once in
// the source store.
type SourceDocument struct {
	// URL is the canonical location of the document (dedup key).
	URL string `json:"url" yaml:"url"`

	// Title is the document title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Snippet is the provider-supplied excerpt or abstract.
	Snippet string `json:"snippet" yaml:"snippet"`

	// FullText holds the complete document text when the provider has it.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// Provider identifies which search backend produced this document.
	Provider string `json:"provider" yaml:"provider"`

	// RetrievedAt is when the document was fetched.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`

	// QualityScore estimates source reliability in [0,1]. Computed once,
	// at first insertion into the source store.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`
}

// Citation links a passage of the final answer to a stored document. The
// reference is by URL only; the source store owns the document.
type Citation struct {
	// Index is the 1-based citation number, matching first-insertion
	// order in the source store.
	Index int `json:"index" yaml:"index"`

	// URL identifies the cited document.
	URL string `json:"url" yaml:"url"`

	// Title is carried along for rendering reference lists.
	Title string `json:"title" yaml:"title"`
}

// Iteration is one round of the research loop: sub-question generation,
// search, and synthesis. Immutable once the engine advances past it.
type Iteration struct {
	// Index is the 0-based position within the session.
	Index int `json:"index" yaml:"index"`

	// SubQuestions are the queries generated for this round, in order.
	SubQuestions []string `json:"sub_questions" yaml:"sub_questions"`

	// ResultURLs maps each sub-question to the URLs of the documents it
	// retrieved, in provider order.
	ResultURLs map[string][]string `json:"result_urls" yaml:"result_urls"`

	// SynthesizedNotes is the model's summary of the new evidence.
	SynthesizedNotes string `json:"synthesized_notes" yaml:"synthesized_notes"`

	// Warnings records degraded sub-questions (provider failures after
	// retry exhaustion). Warnings never fail the session.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ResearchSession is one invocation of the strategy engine for a single
// question. Mutated only by the engine; terminal on completion, failure,
// or cancellation.
type ResearchSession struct {
	// ID uniquely identifies the session.
	ID string `json:"id" yaml:"id"`

	// Question is the user or benchmark question being researched.
	Question string `json:"question" yaml:"question"`

	// Strategy selects the loop policy.
	Strategy StrategyKind `json:"strategy" yaml:"strategy"`

	// MaxIterations bounds the loop.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// QuestionsPerIteration is how many sub-questions each round generates.
	QuestionsPerIteration int `json:"questions_per_iteration" yaml:"questions_per_iteration"`

	// Status is the current lifecycle state.
	Status SessionStatus `json:"status" yaml:"status"`

	// Iterations holds the completed rounds in order.
	Iterations []Iteration `json:"iterations" yaml:"iterations"`

	// Answer is the final synthesized answer, set on completion.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Citations resolve answer references against the source store.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`

	// Err holds the failure reason when Status is failed.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
