// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

// Config holds configuration for the backfill operation.
type Config struct {
	// BatchSize is the number of cases to process in each page
	BatchSize int

	// ReportInterval is how often to report progress (number of cases)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Force regenerates vectors even for cases that already have them
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Backfiller orchestrates factor vector generation across the whole corpus.
type Backfiller struct {
	repo      storage.CaseRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *CaseIterator
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(repo storage.CaseRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Backfiller {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.Force, config.MaxRetries, config.RetryDelay)
	iterator := NewCaseIterator(repo, config.BatchSize)

	return &Backfiller{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the backfill operation. Every analyzed case without stored
// factor vectors gets them generated (all cases when Force is set).
// Progress is reported to the configured writer.
func (b *Backfiller) Run(ctx context.Context) error {
	total, err := b.repo.CountAnalyzed(ctx)
	if err != nil {
		return fmt.Errorf("failed to count analyzed cases: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(b.progress, "No analyzed cases found (0 cases)\n")
		return nil
	}

	fmt.Fprintf(b.progress, "Starting vector backfill over %d analyzed cases (batch size: %d)\n",
		total, b.config.BatchSize)

	tracker := NewProgressTracker(b.progress, total, b.config.ReportInterval)
	tracker.Start()

	seen := 0
	written := 0

	err = b.iterator.ForEach(ctx, func(ids []core.CaseID) error {
		n, err := b.processor.Process(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		seen += len(ids)
		written += n
		tracker.Update(seen)

		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Wrote vectors for %d of %d cases in %v\n",
		written, total, elapsed.Round(time.Second))

	return nil
}
