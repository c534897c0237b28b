package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrNoConferences marks an empty conference scope. It is a
	// configuration problem, deliberately distinct from "player is a free
	// agent": zero conferences means there was nothing to look at.
	ErrNoConferences = errors.New("no conferences configured")

	// ErrAggregationFailed means every conference fetch in one aggregation
	// pass failed. Partial failures never raise it.
	ErrAggregationFailed = errors.New("all conference roster fetches failed")
)
