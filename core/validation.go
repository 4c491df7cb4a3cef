package core

import "fmt"

// ValidateCase validates a Case according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Name must not be empty
//
// NOT validated (populated by the collection pipeline):
//   - OpinionText (may be empty for metadata-only records)
//   - Status (zero value is treated as unanalyzed by readers)
func ValidateCase(c *Case) error {
	if c == nil {
		return fmt.Errorf("%w: case is nil", ErrInvalidCase)
	}

	if c.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCase, ErrEmptyCaseID)
	}

	if c.Name == "" {
		return fmt.Errorf("%w: case name cannot be empty", ErrInvalidCase)
	}

	return nil
}

// ValidateFactor validates a Factor according to domain rules.
//
// Validation rules:
//   - CaseID must not be empty
//   - Text must not be empty
//   - WeightToHolding must be in [0,1]
func ValidateFactor(f *Factor) error {
	if f == nil {
		return fmt.Errorf("%w: factor is nil", ErrInvalidFactor)
	}

	if f.CaseID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFactor, ErrEmptyCaseID)
	}

	if f.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFactor, ErrEmptyFactorText)
	}

	if f.WeightToHolding < 0 || f.WeightToHolding > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidFactor, ErrWeightOutOfRange)
	}

	return nil
}

// ValidateHolding validates a Holding according to domain rules.
//
// Validation rules:
//   - CaseID must not be empty
//   - Direction must be one of the known values
//   - Confidence must be in [0,1]
func ValidateHolding(h *Holding) error {
	if h == nil {
		return fmt.Errorf("%w: holding is nil", ErrInvalidHolding)
	}

	if h.CaseID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidHolding, ErrEmptyCaseID)
	}

	if err := ValidateDirection(h.Direction); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHolding, err)
	}

	if h.Confidence < 0 || h.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidHolding, ErrWeightOutOfRange)
	}

	return nil
}

// ValidateCitation validates a Citation according to domain rules.
//
// Validation rules:
//   - CitingCaseID must not be empty
//
// NOT validated:
//   - CitedCaseID (may be empty or dangle when the target was never collected)
func ValidateCitation(c *Citation) error {
	if c == nil {
		return fmt.Errorf("%w: citation is nil", ErrInvalidCitation)
	}

	if c.CitingCaseID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCitation, ErrEmptyCaseID)
	}

	return nil
}

// ValidateDirection validates that a Direction has a known value.
func ValidateDirection(d Direction) error {
	switch d {
	case DirectionForDefendant, DirectionAgainstDefendant, DirectionMixed, DirectionUnclear:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidDirection, d)
}

// MatchesPolarity reports whether a holding direction satisfies a query
// polarity filter. PolarityNone matches everything.
func MatchesPolarity(d Direction, p Polarity) bool {
	switch p {
	case PolarityNone, "":
		return true
	case PolarityForDefendant:
		return d == DirectionForDefendant
	case PolarityPlaintiff:
		return d == DirectionAgainstDefendant
	case PolarityNeutral:
		return d == DirectionMixed || d == DirectionUnclear
	}
	return true
}
