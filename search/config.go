package search

import (
	"fmt"
	"time"
)

// Config holds the stage budgets and concurrency limits of the retrieval
// funnel. The zero value is not usable; start from DefaultConfig.
type Config struct {
	// MaxWorkers bounds the number of concurrent precise-scorer calls.
	MaxWorkers int

	// CasesPerBatch is the number of cases sent to the precise scorer in
	// one call.
	CasesPerBatch int

	// TextPrefilterSize is the candidate budget after the lexical stage.
	TextPrefilterSize int

	// VectorPrefilterSize is the candidate budget after the vector stage.
	// Must not exceed TextPrefilterSize.
	VectorPrefilterSize int

	// HighConfidenceThreshold is the precise score at or above which a
	// result counts toward early termination.
	HighConfidenceThreshold float32

	// HighConfidenceMargin is how many high-confidence results beyond the
	// requested limit must accumulate before queued batches stop being
	// dispatched.
	HighConfidenceMargin int

	// MinLexicalScore excludes cases whose lexical score does not exceed
	// it. Zero keeps every case with any overlap at all.
	MinLexicalScore float32

	// MaxRetries bounds precise-scorer attempts per batch.
	MaxRetries int

	// RetryDelay is the base backoff delay between scorer retries.
	RetryDelay time.Duration

	// RequestDeadline caps the wall-clock time of one search request.
	// Zero means no deadline beyond the caller's context.
	RequestDeadline time.Duration

	// CorpusChunkSize is how many factor sets the lexical scan reads per
	// storage round trip.
	CorpusChunkSize int
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:              4,
		CasesPerBatch:           5,
		TextPrefilterSize:       200,
		VectorPrefilterSize:     50,
		HighConfidenceThreshold: 0.75,
		HighConfidenceMargin:    2,
		MinLexicalScore:         0,
		MaxRetries:              3,
		RetryDelay:              500 * time.Millisecond,
		RequestDeadline:         0,
		CorpusChunkSize:         100,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MaxWorkers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.CasesPerBatch < 1 {
		return fmt.Errorf("CasesPerBatch must be at least 1, got %d", c.CasesPerBatch)
	}
	if c.TextPrefilterSize < 1 {
		return fmt.Errorf("TextPrefilterSize must be at least 1, got %d", c.TextPrefilterSize)
	}
	if c.VectorPrefilterSize < 1 {
		return fmt.Errorf("VectorPrefilterSize must be at least 1, got %d", c.VectorPrefilterSize)
	}
	if c.VectorPrefilterSize > c.TextPrefilterSize {
		return fmt.Errorf("VectorPrefilterSize (%d) must not exceed TextPrefilterSize (%d)",
			c.VectorPrefilterSize, c.TextPrefilterSize)
	}
	if c.HighConfidenceThreshold < 0 || c.HighConfidenceThreshold > 1 {
		return fmt.Errorf("HighConfidenceThreshold must be in [0,1], got %f", c.HighConfidenceThreshold)
	}
	if c.HighConfidenceMargin < 0 {
		return fmt.Errorf("HighConfidenceMargin must not be negative, got %d", c.HighConfidenceMargin)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MaxRetries must be at least 1, got %d", c.MaxRetries)
	}
	if c.CorpusChunkSize < 1 {
		return fmt.Errorf("CorpusChunkSize must be at least 1, got %d", c.CorpusChunkSize)
	}
	return nil
}
