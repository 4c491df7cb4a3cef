package ingest

import "errors"

var (
	// ErrCaseRepositoryRequired is returned when a case repository is not provided.
	ErrCaseRepositoryRequired = errors.New("case repository required")

	// ErrCitationRepositoryRequired is returned when a citation repository is not provided.
	ErrCitationRepositoryRequired = errors.New("citation repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrMissingCase is returned when an analysis has no case record.
	ErrMissingCase = errors.New("analysis is missing its case record")
)
