package errors

// ErrorCode represents a machine-readable error identifier for frontend error handling.
type ErrorCode string

// Webhook processing errors
const (
	// Signature verification failed or the header was missing. Stripe will
	// not retry these and nothing was mutated.
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"

	// The event payload was malformed or missing required references
	// (subscription, customer, or tenant metadata on checkout completion).
	ErrCodeInvalidEvent ErrorCode = "invalid_event"

	// A checkout completion referenced a tenant business we do not know.
	// This is an integration fault, not a transient condition.
	ErrCodeUnknownTenant ErrorCode = "unknown_tenant"
)

// Validation errors (request input validation)
const (
	ErrCodeMissingField ErrorCode = "missing_field"
	ErrCodeInvalidField ErrorCode = "invalid_field"
)

// Resource/state errors
const (
	ErrCodeBusinessNotFound     ErrorCode = "business_not_found"
	ErrCodeSubscriptionNotFound ErrorCode = "subscription_not_found"
	ErrCodeSubscriptionExists   ErrorCode = "subscription_exists"
	ErrCodeContentNotFound      ErrorCode = "content_not_found"
)

// External service errors
const (
	ErrCodeStripeError  ErrorCode = "stripe_error"
	ErrCodeNetworkError ErrorCode = "network_error"
)

// Internal/system errors
const (
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
	ErrCodeConfigError   ErrorCode = "config_error"
)

// IsRetryable returns whether an error code represents a retryable error.
// Retryable errors are typically transient network/service issues, not
// validation failures.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeStripeError,
		ErrCodeNetworkError,
		ErrCodeDatabaseError,
		ErrCodeInternalError:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	// 400 Bad Request - rejected inputs. From the webhook path these signal
	// Stripe that redelivery will not help.
	case ErrCodeInvalidSignature,
		ErrCodeInvalidEvent,
		ErrCodeUnknownTenant,
		ErrCodeMissingField,
		ErrCodeInvalidField:
		return 400

	// 404 Not Found
	case ErrCodeBusinessNotFound,
		ErrCodeSubscriptionNotFound,
		ErrCodeContentNotFound:
		return 404

	// 409 Conflict - a second checkout for an already-subscribed tenant
	case ErrCodeSubscriptionExists:
		return 409

	// 502 Bad Gateway - external service errors; Stripe retries these
	case ErrCodeStripeError,
		ErrCodeNetworkError:
		return 502

	// 500 Internal Server Error - system/internal errors; Stripe retries these
	default:
		return 500
	}
}
