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


// Package search provides staged retrieval over an analyzed case corpus.
//
// The Searcher type runs a funnel of progressively more expensive stages:
//   - Lexical prefilter: token-overlap scoring over every analyzed case
//   - Vector prefilter: embedding cosine similarity over the survivors
//   - Precise ranking: batched language-model scoring through a bounded
//     worker pool, with early termination and per-batch retry
//   - Citation enrichment: citing-case lookups for the final ranking
//
// Each stage narrows the candidate set before the next one runs, so the
// expensive scorer only ever sees a small fraction of the corpus. Stage
// failures degrade the ranking instead of failing the request; responses
// carry a partial flag whenever any degradation occurred.
package search
