// Package errors provides common domain error types for deskspin.
//
// This package defines sentinel errors for common domain conditions like "not found"
// or "unavailable" that can be used across all packages. Using typed errors enables
// consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
//
//	// Return a domain error
//	return nil, dserrors.ErrNotFound
//
//	// Check for domain errors
//	if dserrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested product or category was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrSkippedInput marks a mention the canonicalizer classified as not a desk product.
	ErrSkippedInput = errors.New("skipped input")

	// ErrFetchFailed indicates a source item could not be fetched or parsed.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMalformedLock indicates an unparseable category:id lock pair.
	ErrMalformedLock = errors.New("malformed lock")

	// ErrEmptyPool indicates a category has no candidate products.
	ErrEmptyPool = errors.New("empty candidate pool")

	// ErrUnavailable indicates a collaborator (store, source, broker) could not be reached.
	ErrUnavailable = errors.New("unavailable")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsSkippedInput reports whether any error in err's chain is ErrSkippedInput.
func IsSkippedInput(err error) bool {
	return errors.Is(err, ErrSkippedInput)
}

// IsFetchFailed reports whether any error in err's chain is ErrFetchFailed.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsMalformedLock reports whether any error in err's chain is ErrMalformedLock.
func IsMalformedLock(err error) bool {
	return errors.Is(err, ErrMalformedLock)
}

// IsEmptyPool reports whether any error in err's chain is ErrEmptyPool.
func IsEmptyPool(err error) bool {
	return errors.Is(err, ErrEmptyPool)
}

// IsUnavailable reports whether any error in err's chain is ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
