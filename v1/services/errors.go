package services

import "errors"

// Sentinel errors returned by the request and signup lifecycle services.
// Handlers translate these into HTTP status codes.
var (
	// ErrRequestClosed is returned when a decision or resubmission targets a
	// request that has already been closed
	ErrRequestClosed = errors.New("request is already closed")

	// ErrNotOwner is returned when a caller references a request that belongs
	// to a different user
	ErrNotOwner = errors.New("request does not belong to the caller")

	// ErrInvalidWebhookEvent is returned when a payment webhook carries an
	// event type the backend does not handle
	ErrInvalidWebhookEvent = errors.New("invalid webhook event type")
)
