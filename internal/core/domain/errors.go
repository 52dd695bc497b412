package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown source or vendor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRunInProgress indicates a discovery run is already running.
	ErrRunInProgress = errors.New("discovery run in progress")

	// Source Errors.

	// ErrSourceUnavailable indicates an external directory could not be reached.
	// Discovery treats this as zero results rather than a pipeline failure.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMissingCredentials indicates a source requires an API key or token
	// that has not been configured. The source is skipped, not failed.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Detection Errors.

	// ErrNoCareersPage indicates no candidate careers URL responded.
	ErrNoCareersPage = errors.New("no careers page reachable")

	// Storage Errors.

	// ErrStoreUnavailable indicates the company registry cannot be reached.
	// Pipeline phases that need the registry fail fast on this.
	ErrStoreUnavailable = errors.New("store unavailable")
)
