package types

import "errors"

// Sentinel errors for the billing domain. Handlers map these onto HTTP
// statuses; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrUnauthenticated means the request carried no usable caller identity.
	ErrUnauthenticated = errors.New("missing caller identity")
	// ErrForbidden means the caller is not an administrator of the tenant.
	ErrForbidden = errors.New("caller is not a tenant administrator")
	// ErrInvalidSignature rejects a webhook delivery; the sender retries.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidPayload rejects a webhook body that cannot be decoded.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrUnroutableEvent marks an event with no tenant mapping. It is
	// acknowledged to the sender and logged for operator review.
	ErrUnroutableEvent = errors.New("event has no tenant mapping")
	// ErrUnknownPlan marks a plan key outside the configured catalog.
	ErrUnknownPlan = errors.New("unknown plan key")
	// ErrNoActiveSubscription means cancellation was requested with nothing
	// to cancel.
	ErrNoActiveSubscription = errors.New("no active subscription")
)
