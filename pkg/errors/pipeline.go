package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCode represents a classified pipeline error.
type ErrorCode string

const (
	ErrTimeout            ErrorCode = "timeout"
	ErrContextCancelled   ErrorCode = "context_cancelled"
	ErrRateLimit          ErrorCode = "rate_limit"
	ErrParseError         ErrorCode = "parse_error"
	ErrSkippableInput     ErrorCode = "skippable_input"
	ErrFetchFailure       ErrorCode = "fetch_failure"
	ErrMalformedInput     ErrorCode = "malformed_request_input"
	ErrEmptyCandidatePool ErrorCode = "empty_candidate_pool"
	ErrStoreUnavailable   ErrorCode = "collaborator_unavailable"
	ErrProcessingError    ErrorCode = "processing_error"
)

// ItemError is a structured error for a single failed item in a pipeline stage.
type ItemError struct {
	Code    ErrorCode
	Stage   string
	Item    string
	Message string
	Cause   error
}

func (e *ItemError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Stage != "" {
		b.WriteString(": ")
		b.WriteString(e.Stage)
	}
	if e.Item != "" {
		fmt.Fprintf(&b, " [%s]", e.Item)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

// NewItemError builds an ItemError for item with an explicit code.
func NewItemError(code ErrorCode, stage, item string, cause error) *ItemError {
	ie := &ItemError{Code: code, Stage: stage, Item: item, Cause: cause}
	if cause != nil {
		ie.Message = cause.Error()
	}
	return ie
}

// ClassifyError inspects an error and returns an *ItemError with the appropriate code.
// If the error doesn't match any known pattern, the code is ErrProcessingError.
func ClassifyError(err error, stage string) *ItemError {
	if err == nil {
		return nil
	}

	var existing *ItemError
	if errors.As(err, &existing) {
		return existing
	}

	ie := &ItemError{
		Stage:   stage,
		Cause:   err,
		Message: err.Error(),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ie.Code = ErrTimeout
		ie.Message = "operation timed out"
		return ie
	case errors.Is(err, context.Canceled):
		ie.Code = ErrContextCancelled
		ie.Message = "operation cancelled"
		return ie
	case errors.Is(err, ErrSkippedInput):
		ie.Code = ErrSkippableInput
		return ie
	case errors.Is(err, ErrMalformedLock):
		ie.Code = ErrMalformedInput
		return ie
	case errors.Is(err, ErrEmptyPool):
		ie.Code = ErrEmptyCandidatePool
		return ie
	case errors.Is(err, ErrUnavailable):
		ie.Code = ErrStoreUnavailable
		return ie
	case errors.Is(err, ErrFetchFailed):
		ie.Code = ErrFetchFailure
		return ie
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		ie.Code = ErrTimeout
		return ie
	}

	lower := strings.ToLower(err.Error())

	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests") {
		ie.Code = ErrRateLimit
		return ie
	}

	if strings.Contains(lower, "invalid character") || strings.Contains(lower, "unexpected end of json") || strings.Contains(lower, "cannot unmarshal") {
		ie.Code = ErrParseError
		return ie
	}

	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") || strings.Contains(lower, "service unavailable") || strings.Contains(lower, "503") {
		ie.Code = ErrStoreUnavailable
		return ie
	}

	ie.Code = ErrProcessingError
	return ie
}

// IsTimeout returns true if the error is a classified timeout error.
func IsTimeout(err error) bool {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Code == ErrTimeout
	}
	return false
}

// IsErrorRetryable returns true if the error is likely transient and worth retrying.
func IsErrorRetryable(err error) bool {
	var ie *ItemError
	if errors.As(err, &ie) {
		return IsRetryable(ie.Code)
	}
	return false
}
