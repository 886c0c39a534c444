package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers branch on. Duplicate
// payment ids and failed signature checks are not errors here: the first is
// the expected no-op outcome of a webhook redelivery, the second never leaves
// its handler.
var (
	// ErrNotFound means a referenced user, image or transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable means the database or the blob storage provider
	// could not be reached or returned an unexpected failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFound wraps ErrNotFound with a subject description.
func NotFound(subject string) error {
	return fmt.Errorf("%s: %w", subject, ErrNotFound)
}

// Upstream wraps an underlying provider/store error as ErrUpstreamUnavailable
// while keeping the cause in the chain.
func Upstream(op string, cause error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUpstreamUnavailable, cause)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
