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

	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

const (
	// DefaultBatchSize is the default number of cases to fetch in each page
	DefaultBatchSize = 100
)

// CaseIterator pages through the IDs of all analyzed cases.
type CaseIterator struct {
	repo      storage.CaseRepository
	batchSize int
}

// NewCaseIterator creates a new case iterator.
// batchSize: number of case IDs to fetch per page (must be > 0)
func NewCaseIterator(repo storage.CaseRepository, batchSize int) *CaseIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &CaseIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all analyzed case IDs, calling fn for each page.
// Iteration stops on first error from fn or when the corpus is exhausted.
// Context cancellation is checked between pages.
func (it *CaseIterator) ForEach(ctx context.Context, fn func([]core.CaseID) error) error {
	after := core.CaseID("")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ids, err := it.repo.AnalyzedCaseIDs(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := fn(ids); err != nil {
			return err
		}

		if len(ids) < it.batchSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}
