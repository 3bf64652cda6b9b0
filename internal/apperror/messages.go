package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Depth-aggregation errors
	CodeTransportFatal:      "Transport connection failed",
	CodeParseSoft:           "Malformed or unrecognized frame",
	CodeNumericSoft:         "Unparseable price or quantity",
	CodeInvalidFrame:        "Frame rejected (oversize or non-mapping root)",
	CodeBusClosed:           "Event bus closed or shutting down",
	CodeCircuitOpen:         "Circuit breaker is open",
	CodeCircuitHalfOpen:     "Circuit breaker is half-open",
	CodeSnapshotFetchFailed: "REST snapshot fallback request failed",
	CodeInvalidSnapshot:     "REST snapshot fallback returned invalid data",
}
