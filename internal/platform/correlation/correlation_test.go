package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	ids := make(map[string]struct{}, 100)
	for range 100 {
		id := NewID()
		assert.Len(t, id, 8)
		ids[id] = struct{}{}
	}
	assert.Len(t, ids, 100)
}

func TestID(t *testing.T) {
	id, ok := ID(WithID(context.Background(), "cycle-01"))
	assert.True(t, ok)
	assert.Equal(t, "cycle-01", id)

	_, ok = ID(context.Background())
	assert.False(t, ok)

	_, ok = ID(WithID(context.Background(), ""))
	assert.False(t, ok)
}

func TestEnsure(t *testing.T) {
	ctx := Ensure(context.Background(), "req-1")
	id, _ := ID(ctx)
	assert.Equal(t, "req-1", id)

	ctx = Ensure(ctx, "req-2")
	id, _ = ID(ctx)
	assert.Equal(t, "req-1", id, "existing id wins")

	id, ok := ID(Ensure(context.Background(), ""))
	assert.True(t, ok)
	assert.Len(t, id, 8)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	inner := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewHandler(inner))
}

func TestHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.InfoContext(WithID(context.Background(), "abcd1234"), "cycle finished", "outcome", "progress")

	output := buf.String()
	assert.Contains(t, output, "correlation_id=abcd1234")
	assert.Contains(t, output, "outcome=progress")
}

func TestHandler_OmitsWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf).InfoContext(context.Background(), "startup")

	assert.NotContains(t, buf.String(), "correlation_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With("component", "curator").WithGroup("record")

	logger.InfoContext(WithID(context.Background(), "inv00001"), "dropped", "id", 7)

	output := buf.String()
	assert.Contains(t, output, "component=curator")
	assert.Contains(t, output, "record.id=7")
	assert.Contains(t, output, "inv00001")
}
