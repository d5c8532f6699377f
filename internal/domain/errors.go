package domain

import "errors"

var (
	// ErrInvalidInput is returned before any state change for empty scammer text or an unknown sender.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNetworkFailure wraps every rejected or unreachable Detection Service call.
	ErrNetworkFailure = errors.New("detection service unavailable")

	// ErrNotSent marks failures that happened before the request reached the network.
	ErrNotSent = errors.New("detection request not sent")

	// ErrStaleSession is returned when a scheduled or delayed action targets a session that was replaced.
	ErrStaleSession = errors.New("stale session")

	ErrSessionExists    = errors.New("session already exists")
	ErrScenarioNotFound = errors.New("scenario not found")
)
