package stripe

import "errors"

// Error categories surfaced by the reconciler. The HTTP layer maps these to
// response codes; the distinction that matters is whether Stripe should
// retry the delivery.
var (
	// ErrInvalidSignature means the payload failed signature verification.
	// Nothing was read from or written to storage.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrValidation means the event payload is structurally wrong for its
	// type (missing subscription or customer reference, missing tenant
	// metadata). These are integration bugs; retrying the same payload
	// cannot succeed.
	ErrValidation = errors.New("invalid event payload")

	// ErrTenantNotFound means the event references a business this system
	// does not know.
	ErrTenantNotFound = errors.New("referenced tenant does not exist")

	// ErrProviderUnavailable means the outbound subscription fetch failed or
	// timed out. The delivery should be retried.
	ErrProviderUnavailable = errors.New("provider fetch failed")
)
