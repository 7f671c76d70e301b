package domain

import "errors"

var (
	// ErrQueueEmpty means no work queue item is currently leasable. It is
	// transient: the item may exist but still be invisible under another lease.
	ErrQueueEmpty = errors.New("no leasable queue item")

	// ErrThrottled marks a collaborator call that was rejected by rate limiting.
	ErrThrottled = errors.New("request throttled")

	// ErrRejected marks a request the provider will never accept (bad credentials,
	// malformed query). Retrying it cannot succeed.
	ErrRejected = errors.New("request rejected by provider")

	// ErrInvalidInput marks text the sentiment provider refused to classify.
	ErrInvalidInput = errors.New("invalid classifier input")

	// ErrCursorRegression is returned when a result set would move the cursor backwards.
	ErrCursorRegression = errors.New("cursor regression")
)
