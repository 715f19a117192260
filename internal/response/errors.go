package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionExpired   ErrCode = "SESSION_EXPIRED"
	ErrSessionCompleted ErrCode = "SESSION_COMPLETED"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"

	// ─── Assessment management ─────────────────────────────────────────
	ErrReorderMismatch ErrCode = "REORDER_MISMATCH"
	ErrDuplicateEmail  ErrCode = "DUPLICATE_EMAIL"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid id format."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The resource already exists."

	case ErrSessionExpired:
		return "This assessment link has expired."
	case ErrSessionCompleted:
		return "This assessment has already been completed."
	case ErrUnknownQuestion:
		return "An answer references a question that is not part of this test."

	case ErrReorderMismatch:
		return "The supplied question ids do not match the test's questions."
	case ErrDuplicateEmail:
		return "A candidate with this email already exists."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
