package domain

import (
	"context"
	"time"
)

// LeasedItem is a cursor taken from the work queue together with the handle
// needed to acknowledge or release it. A lease must end in exactly one Ack or
// Release before the cycle that took it finishes.
type LeasedItem struct {
	Cursor Cursor
	Handle string
}

// WorkQueue is an at-least-once queue carrying the latest processed cursor.
// Leased items stay invisible to other readers until acknowledged, released,
// or their visibility timeout expires.
type WorkQueue interface {
	// Lease returns ErrQueueEmpty when nothing is currently visible.
	Lease(ctx context.Context) (LeasedItem, error)
	Ack(ctx context.Context, handle string) error
	Release(ctx context.Context, handle string, timeout time.Duration) error
	Push(ctx context.Context, cursor Cursor) error
}
