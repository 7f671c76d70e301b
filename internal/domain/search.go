package domain

import (
	"context"
	"encoding/json"
)

// RawRecord is one record as returned by the search provider. Payload is the
// untouched JSON object; ID is its unique, increasing identifier.
type RawRecord struct {
	ID      Cursor
	Payload json.RawMessage
}

// SearchQuery selects records newer than SinceID, or since SinceDate
// (YYYY-MM-DD) when no cursor exists yet.
type SearchQuery struct {
	SinceID   Cursor
	SinceDate string
}

// SearchProvider returns matching records newest-first. An empty result is
// not an error.
type SearchProvider interface {
	Search(ctx context.Context, q SearchQuery) ([]RawRecord, error)
}
