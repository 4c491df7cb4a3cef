package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCase indicates a Case failed validation.
	ErrInvalidCase = errors.New("invalid case")

	// ErrEmptyCaseID indicates a missing case identifier.
	ErrEmptyCaseID = errors.New("case id cannot be empty")

	// ErrInvalidFactor indicates a Factor failed validation.
	ErrInvalidFactor = errors.New("invalid factor")

	// ErrEmptyFactorText indicates the factor Text field is empty.
	ErrEmptyFactorText = errors.New("factor text cannot be empty")

	// ErrWeightOutOfRange indicates a weight outside [0,1].
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 1")

	// ErrInvalidHolding indicates a Holding failed validation.
	ErrInvalidHolding = errors.New("invalid holding")

	// ErrInvalidDirection indicates an unknown holding direction.
	ErrInvalidDirection = errors.New("invalid holding direction")

	// ErrInvalidCitation indicates a Citation failed validation.
	ErrInvalidCitation = errors.New("invalid citation")
)
