package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Fatal           bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrTimeout: {
		Code:            ErrTimeout,
		Retryable:       true,
		Description:     "Operation exceeded time limit",
		SuggestedAction: "Raise scraper.timeout or check the source host",
	},
	ErrContextCancelled: {
		Code:            ErrContextCancelled,
		Retryable:       false,
		Fatal:           true,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "Check if cancellation was intentional",
	},
	ErrRateLimit: {
		Code:            ErrRateLimit,
		Retryable:       true,
		Description:     "Source rate limit exceeded",
		SuggestedAction: "Increase scraper.delay and rerun deskspin fetch",
	},
	ErrParseError: {
		Code:            ErrParseError,
		Retryable:       false,
		Description:     "Workspace document could not be decoded",
		SuggestedAction: "Inspect the raw document; the item is skipped",
	},
	ErrSkippableInput: {
		Code:            ErrSkippableInput,
		Retryable:       false,
		Description:     "Mention is not a desk product (plants, drinkware, stationery)",
		SuggestedAction: "No action needed; the mention is dropped",
	},
	ErrFetchFailure: {
		Code:            ErrFetchFailure,
		Retryable:       false,
		Description:     "Source item could not be fetched",
		SuggestedAction: "No action needed; the item is skipped and the batch continues",
	},
	ErrMalformedInput: {
		Code:            ErrMalformedInput,
		Retryable:       false,
		Description:     "Malformed request input (lock pair without colon or numeric id)",
		SuggestedAction: "Use category:id pairs separated by commas",
	},
	ErrEmptyCandidatePool: {
		Code:            ErrEmptyCandidatePool,
		Retryable:       false,
		Description:     "Category has no candidate products",
		SuggestedAction: "Run deskspin import to populate the catalog",
	},
	ErrStoreUnavailable: {
		Code:            ErrStoreUnavailable,
		Retryable:       true,
		Fatal:           true,
		Description:     "Catalog store or source could not be reached",
		SuggestedAction: "Check connectivity: deskspin db status",
	},
	ErrProcessingError: {
		Code:            ErrProcessingError,
		Retryable:       false,
		Description:     "Unclassified processing error",
		SuggestedAction: "Check logs with --log-level debug",
	},
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// IsFatal returns true if the code must surface to the caller instead of being skipped.
func IsFatal(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Fatal
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Check logs for more details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
