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


package caselaw

import (
	"context"
	"io"
	"log/slog"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/ai/openai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/embed"
	"github.com/veridict/caselaw/ingest"
	"github.com/veridict/caselaw/search"
	"github.com/veridict/caselaw/storage"
	"github.com/veridict/caselaw/storage/badger"
)

// Database bundles the storage backend, repositories, and AI provider into
// one handle. It is the entry point for embedding the engine in a program.
type Database struct {
	backend      *badger.Backend
	caseRepo     storage.CaseRepository
	citationRepo storage.CitationRepository
	provider     ai.AIProvider
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses the given provider instead of constructing one from
// configuration. Used by tests to inject mocks.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens a case database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	caseRepo, err := badger.NewCaseRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	citationRepo, err := badger.NewCitationRepository(backend)
	if err != nil {
		caseRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			citationRepo.Close()
			caseRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:      backend,
		caseRepo:     caseRepo,
		citationRepo: citationRepo,
		provider:     provider,
		logger:       slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.citationRepo.Close(); err != nil {
		db.logger.Error("error closing citation repository", "err", err)
		return err
	}
	if err := db.caseRepo.Close(); err != nil {
		db.logger.Error("error closing case repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) CaseRepository() storage.CaseRepository {
	return db.caseRepo
}

func (db *Database) CitationRepository() storage.CitationRepository {
	return db.citationRepo
}

// GetCase retrieves a single case by ID. Returns storage.ErrNotFound when
// the case does not exist.
func (db *Database) GetCase(ctx context.Context, id core.CaseID) (*core.Case, error) {
	c, err := db.caseRepo.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

// Search runs a ranked case search. A short-lived Searcher is created per
// call; programs issuing many searches should hold one via NewSearcher.
func (db *Database) Search(ctx context.Context, query string, limit int) (*core.SearchResponse, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	defer searcher.Release()

	return searcher.Search(ctx, query, limit)
}

// SearchRequest is Search with the full request shape, including the
// polarity override.
func (db *Database) SearchRequest(ctx context.Context, req search.Request) (*core.SearchResponse, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	defer searcher.Release()

	return searcher.SearchRequest(ctx, req)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.caseRepo, db.citationRepo, db.provider, opts...)
}

func (db *Database) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(db.caseRepo, db.citationRepo, db.provider, opts...)
}

func (db *Database) NewBackfiller(config *embed.Config, progress io.Writer) *embed.Backfiller {
	return embed.NewBackfiller(db.caseRepo, db.provider.Embedder(), config, progress)
}
