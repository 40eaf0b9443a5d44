package service

import "errors"

// ErrNonRetryable marks failures the provider's redelivery policy cannot fix;
// callers join it onto the underlying error and test with errors.Is.
var ErrNonRetryable = errors.New("non-retryable error")

var (
	// ErrMalformedNotification means a required field was missing from the
	// notification. Always joined with ErrNonRetryable: the provider will not
	// usefully resend a self-consistent malformed payload.
	ErrMalformedNotification = errors.New("malformed recording notification")

	// ErrFetchFailure covers transport errors, timeouts, non-2xx statuses and
	// non-audio response bodies. Retryable.
	ErrFetchFailure = errors.New("media fetch failed")

	// ErrStorageFailure means the object-store write failed after a successful
	// fetch. Retryable; dedup keeps the repeat cheap.
	ErrStorageFailure = errors.New("media storage failed")
)
