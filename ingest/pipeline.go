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


package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

// CaseAnalysis is one preprocessed case ready for loading: the case record
// plus everything the external analysis pass extracted from its opinion.
type CaseAnalysis struct {
	Case      *core.Case      `json:"case"`
	Factors   []core.Factor   `json:"factors"`
	Holding   *core.Holding   `json:"holding,omitempty"`
	Citations []*core.Citation `json:"citations,omitempty"`
}

// Pipeline loads case analyses into storage and schedules vector generation.
type Pipeline struct {
	caseRepository     storage.CaseRepository
	citationRepository storage.CitationRepository
	embedder           ai.Embedder
	vectorPool         *ants.Pool
	logger             *slog.Logger
	wg                 sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async vector generation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.vectorPool != nil {
			p.vectorPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.vectorPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingest pipeline.
func NewPipeline(
	caseRepository storage.CaseRepository,
	citationRepository storage.CitationRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if caseRepository == nil {
		return nil, ErrCaseRepositoryRequired
	}
	if citationRepository == nil {
		return nil, ErrCitationRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		caseRepository:     caseRepository,
		citationRepository: citationRepository,
		embedder:           provider.Embedder(),
		vectorPool:         pool,
		logger:             slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest loads one or more case analyses. Cases, factors, holdings, and
// citations are written synchronously; factor vector generation is
// submitted to the worker pool and its failures only log.
func (p *Pipeline) Ingest(ctx context.Context, analyses ...*CaseAnalysis) error {
	for _, analysis := range analyses {
		if analysis == nil || analysis.Case == nil {
			return ErrMissingCase
		}

		if err := p.caseRepository.AddCases(ctx, analysis.Case); err != nil {
			return err
		}

		if len(analysis.Factors) > 0 || analysis.Holding != nil {
			if err := p.caseRepository.PutAnalysis(ctx, analysis.Case.ID, analysis.Factors, analysis.Holding); err != nil {
				return err
			}
		}

		if len(analysis.Citations) > 0 {
			if err := p.citationRepository.AddCitations(ctx, analysis.Citations...); err != nil {
				return err
			}
		}

		if len(analysis.Factors) > 0 {
			p.scheduleVectors(analysis.Case.ID, analysis.Factors)
		}
	}

	return nil
}

// scheduleVectors submits async embedding generation for one case.
func (p *Pipeline) scheduleVectors(id core.CaseID, factors []core.Factor) {
	texts := make([]string, len(factors))
	for i, f := range factors {
		texts[i] = f.Text
	}

	p.wg.Add(1)
	err := p.vectorPool.Submit(func() {
		defer p.wg.Done()

		ctx := context.Background()
		embeddings, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			p.logger.Error("error generating factor vectors", "caseID", id, "err", err)
			return
		}
		if len(embeddings) != len(texts) {
			p.logger.Error("embedding count mismatch", "caseID", id,
				"expected", len(texts), "got", len(embeddings))
			return
		}

		vectors := make([][]float32, len(embeddings))
		for i, e := range embeddings {
			vectors[i] = normalizeVector(e)
		}
		if err := p.caseRepository.PutFactorVectors(ctx, id, vectors); err != nil {
			p.logger.Error("error storing factor vectors", "caseID", id, "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.logger.Error("error submitting vector generation", "caseID", id, "err", err)
	}
}

// Wait blocks until all scheduled vector generation has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release waits for pending work and frees the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.wg.Wait()
	if p.vectorPool != nil {
		p.vectorPool.Release()
	}
}
