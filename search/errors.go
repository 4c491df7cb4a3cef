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


package search

import "errors"

var (
	// ErrCaseRepositoryRequired is returned when a case repository is not provided.
	ErrCaseRepositoryRequired = errors.New("case repository required")

	// ErrCitationRepositoryRequired is returned when a citation repository is not provided.
	ErrCitationRepositoryRequired = errors.New("citation repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidLimit is returned when the requested result limit is not positive.
	ErrInvalidLimit = errors.New("result limit must be greater than 0")
)
