package deckplan

import "errors"

var (
	// ErrInvalidPlan marks a plan that failed schema validation.
	ErrInvalidPlan = errors.New("deckplan: invalid plan")
	// ErrAdvisoryUnavailable marks a failed or timed-out advisor call.
	ErrAdvisoryUnavailable = errors.New("deckplan: advisory unavailable")
)
