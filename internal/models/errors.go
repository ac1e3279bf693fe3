package models

import "errors"

// Sentinel errors shared across the pipeline. Callers should test with
// errors.Is; packages wrap them with fmt.Errorf("...: %w", err) detail.
var (
	// ErrInvalidConfig is returned at construction time when a setting is
	// out of its documented bounds. Fatal to that component.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidQuery rejects a malformed question before any side effect.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDimensionMismatch reports a vector whose length does not match
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexNotBuilt is returned by search before any content was
	// inserted. Recoverable by retrying after ingestion.
	ErrIndexNotBuilt = errors.New("vector index not built")

	// ErrBackendTimeout marks a single generation attempt that exceeded
	// its time budget.
	ErrBackendTimeout = errors.New("generation backend timeout")

	// ErrBackendError marks a single generation attempt that failed or
	// produced malformed output.
	ErrBackendError = errors.New("generation backend error")

	// ErrAllBackendsExhausted means every backend in the chain failed.
	ErrAllBackendsExhausted = errors.New("all generation backends exhausted")
)
