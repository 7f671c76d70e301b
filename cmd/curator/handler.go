package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/pscheid92/tweetpulse/internal/app"
	"github.com/pscheid92/tweetpulse/internal/platform/correlation"
)

type objectCurator interface {
	ProcessObject(ctx context.Context, container, key string) (app.Summary, error)
}

// handler curates every object named by an S3 notification. Objects are
// processed in order and the first failure fails the invocation, so the
// event is redelivered as a whole.
type handler struct {
	curator objectCurator
}

func newHandler(c objectCurator) *handler {
	return &handler{curator: c}
}

func (h *handler) Handle(ctx context.Context, event events.S3Event) error {
	var requestID string
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	ctx = correlation.Ensure(ctx, requestID)

	slog.InfoContext(ctx, "Invocation received", "records", len(event.Records))

	for _, rec := range event.Records {
		bucket := rec.S3.Bucket.Name
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			key = rec.S3.Object.Key
		}

		sum, err := h.curator.ProcessObject(ctx, bucket, key)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to curate batch", "bucket", bucket, "key", key, "error", err)
			return fmt.Errorf("curate s3://%s/%s: %w", bucket, key, err)
		}
		slog.InfoContext(ctx, "Batch done",
			"bucket", bucket,
			"key", key,
			"written", sum.Written,
			"dropped", sum.Dropped,
			"resync_bytes", sum.ResyncBytes,
		)
	}
	return nil
}
