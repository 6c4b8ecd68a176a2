package model

import "github.com/rotisserie/eris"

// Error kinds shared across the synthesis and analysis packages. Callers
// match them with errors.Is after unwrapping whatever context was added
// along the way.
var (
	// ErrInvalidArgument marks malformed counts, dates, unknown columns, or
	// a cluster count outside the allowed range.
	ErrInvalidArgument = eris.New("invalid argument")

	// ErrEmptyInput marks an operation invoked on a panel with zero rows.
	ErrEmptyInput = eris.New("empty input")

	// ErrInsufficientData marks a statistical operation with too few rows
	// to be defined.
	ErrInsufficientData = eris.New("insufficient data")
)
