package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-149)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidStopLoss      ErrorCode = 103
	ErrCodeInvalidTakeProfit    ErrorCode = 104
	ErrCodeNoUpdates            ErrorCode = 105

	// Authorization errors (150-199)
	ErrCodeUnauthorized ErrorCode = 150
	ErrCodeForbidden    ErrorCode = 151

	// Data errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodePositionNotFound ErrorCode = 201
	ErrCodeAccountNotFound  ErrorCode = 202
	ErrCodeQueryFailed      ErrorCode = 250
	ErrCodeUpdateFailed     ErrorCode = 251

	// Upstream errors (700-799)
	ErrCodeUpstreamFailed      ErrorCode = 700
	ErrCodeUpstreamUnavailable ErrorCode = 701
)
