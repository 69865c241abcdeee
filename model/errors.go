package model

import "errors"

// Error taxonomy for the import pipeline. Handlers map these onto HTTP
// statuses; batch items carry them as per-item failure reasons.
var (
	// ErrUnfurl means link metadata could not be retrieved (private post,
	// deleted content, unsupported domain). Surfaced to the user, not retried.
	ErrUnfurl = errors.New("could not read link metadata")

	// ErrResolverUnavailable means the external place search itself failed or
	// timed out. Callers may retry with backoff; never treated as "no results".
	ErrResolverUnavailable = errors.New("place resolver unavailable")

	// ErrDuplicateKey means the storage uniqueness constraint rejected a write,
	// usually a race against a concurrent import of the same place.
	ErrDuplicateKey = errors.New("place already saved")

	// ErrStorageUnavailable means a persistence write could not complete.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAuthRequired means the bearer credential is missing or invalid.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotFound means the requested row does not exist for this owner.
	ErrNotFound = errors.New("not found")
)
