package domain

import "context"

// StreamSink appends one JSON record to a delivery stream. Sinks must tolerate
// duplicates: the poller delivers at least once.
type StreamSink interface {
	Append(ctx context.Context, record []byte) error
}

// BlobReader returns the full content of an object as text.
type BlobReader interface {
	Read(ctx context.Context, container, key string) (string, error)
}
