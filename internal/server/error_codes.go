package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidQuery    = 1003
	ErrCodeInvalidID       = 1004
	ErrCodeInvalidStatus   = 1005
	ErrCodeInvalidPriority = 1006
	ErrCodeMissingRequired = 1007
	ErrCodeInvalidTime     = 1008
	ErrCodeInvalidAssignee = 1009
	ErrCodeInvalidRole     = 1010
	ErrCodeBatchTooLarge   = 1011

	// Domain state (2xxx)
	ErrCodeTaskNotFound         = 2001
	ErrCodeUserNotFound         = 2002
	ErrCodeExtensionNotFound    = 2003
	ErrCodeNotificationNotFound = 2004
	ErrCodeInvalidTransition    = 2101
	ErrCodePendingExtension     = 2102
	ErrCodeAlreadyDecided       = 2103
	ErrCodeConflict             = 2104

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeSweepFailed  = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodeTaskNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
