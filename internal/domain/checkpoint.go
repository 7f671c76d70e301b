package domain

import "context"

// CheckpointStore holds the "has run before" flag. Reads must observe the
// latest write.
type CheckpointStore interface {
	RunState(ctx context.Context) (bool, error)
	SetRunState(ctx context.Context, ran bool) error
}
