package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrRecordingFailed  = errors.New("scan recording failed")

	// Infra-level errors
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrQueueFull          = errors.New("worker queue full")
)
