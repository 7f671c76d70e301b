package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/metrics"
	"github.com/pscheid92/tweetpulse/internal/platform/retry"
	"github.com/pscheid92/tweetpulse/internal/record"
)

type CuratorConfig struct {
	// Backoff governs retries of throttled classification. MaxAttempts is forced to zero.
	Backoff retry.Policy
}

// Summary reports what one batch produced.
type Summary struct {
	Decoded     int // JSON values recovered from the batch
	Written     int
	Dropped     int
	Skipped     int // values that were not objects
	ResyncBytes int
}

// Curator recovers records from a raw batch, classifies their sentiment and
// writes the enriched result to the curated sink. Records that cannot be
// enriched are logged and dropped without affecting the rest of the batch.
type Curator struct {
	classifier domain.SentimentProvider
	curated    domain.StreamSink
	blobs      domain.BlobReader
	clock      clockwork.Clock
	cfg        CuratorConfig
}

func NewCurator(classifier domain.SentimentProvider, curated domain.StreamSink, blobs domain.BlobReader, clock clockwork.Clock, cfg CuratorConfig) *Curator {
	cfg.Backoff.MaxAttempts = 0
	cfg.Backoff.Clock = clock
	return &Curator{
		classifier: classifier,
		curated:    curated,
		blobs:      blobs,
		clock:      clock,
		cfg:        cfg,
	}
}

// ProcessObject reads one stored batch and curates it.
func (c *Curator) ProcessObject(ctx context.Context, container, key string) (Summary, error) {
	batch, err := c.blobs.Read(ctx, container, key)
	if err != nil {
		return Summary{}, fmt.Errorf("read batch %s/%s: %w", container, key, err)
	}

	slog.InfoContext(ctx, "Curating batch", "container", container, "key", key, "bytes", len(batch))
	return c.Process(ctx, batch)
}

// Process curates one batch. Only a curated sink failure aborts the batch.
func (c *Curator) Process(ctx context.Context, batch string) (Summary, error) {
	var sum Summary
	scanner := record.NewScanner(batch)

	for {
		raw, ok := scanner.Next()
		if !ok {
			break
		}
		sum.Decoded++

		written, err := c.curate(ctx, raw)
		switch {
		case err != nil:
			sum.ResyncBytes = scanner.Skipped()
			return sum, err
		case written:
			sum.Written++
		case !record.IsObject(raw):
			sum.Skipped++
		default:
			sum.Dropped++
		}
	}

	sum.ResyncBytes = scanner.Skipped()
	if sum.ResyncBytes > 0 {
		metrics.CuratorResyncBytes.Add(float64(sum.ResyncBytes))
		slog.WarnContext(ctx, "Skipped malformed batch input", "bytes", sum.ResyncBytes, "last_error", scanner.LastErr())
	}

	slog.InfoContext(ctx, "Batch curated",
		"decoded", sum.Decoded, "written", sum.Written, "dropped", sum.Dropped, "skipped", sum.Skipped)
	return sum, nil
}

// curate handles one recovered value. It reports whether a record was written;
// the error is non-nil only for sink failures.
func (c *Curator) curate(ctx context.Context, raw json.RawMessage) (bool, error) {
	rec, err := record.Decode(raw)
	if errors.Is(err, record.ErrNotObject) {
		metrics.CuratorRecordsTotal.WithLabelValues("skipped").Inc()
		slog.DebugContext(ctx, "Skipping non-object value", "value", truncate(string(raw), 64))
		return false, nil
	}
	if err != nil {
		metrics.CuratorRecordsTotal.WithLabelValues("dropped_parse").Inc()
		slog.ErrorContext(ctx, "Dropping undecodable record", "error", err, "raw", truncate(string(raw), 256))
		return false, nil
	}

	dropped := func(result, msg string, cleaned string, err error) (bool, error) {
		metrics.CuratorRecordsTotal.WithLabelValues(result).Inc()
		slog.ErrorContext(ctx, msg,
			"record_id", rec.ID(),
			"created_at", rec.CreatedAt(),
			"text", rec.Text(),
			"cleaned", cleaned,
			"error", err,
		)
		return false, nil
	}

	stamp, err := record.NormalizeTimestamp(rec.CreatedAt())
	if err != nil {
		return dropped("dropped_timestamp", "Dropping record with unparsable timestamp", "", err)
	}

	cleaned := record.CleanText(rec.Text())
	if cleaned == "" {
		return dropped("dropped_text", "Dropping record without classifiable text", cleaned, domain.ErrInvalidInput)
	}

	sentiment, err := c.classify(ctx, cleaned)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("classify record %d: %w", rec.ID(), ctxErr)
		}
		return dropped("dropped_sentiment", "Unable to record sentiment, dropping record", cleaned, err)
	}

	out, err := json.Marshal(domain.EnrichedRecord{
		Timestamp:       stamp,
		Text:            rec.Text(),
		RecordID:        rec.ID(),
		SentimentLabel:  sentiment.Label,
		SentimentScores: sentiment.Scores,
	})
	if err != nil {
		return dropped("dropped_parse", "Failed to encode enriched record", cleaned, err)
	}

	if err := c.curated.Append(ctx, out); err != nil {
		metrics.SinkAppendsTotal.WithLabelValues("curated", "error").Inc()
		return false, fmt.Errorf("write curated record %d: %w", rec.ID(), err)
	}
	metrics.SinkAppendsTotal.WithLabelValues("curated", "success").Inc()
	metrics.CuratorRecordsTotal.WithLabelValues("written").Inc()
	return true, nil
}

func (c *Curator) classify(ctx context.Context, text string) (domain.Sentiment, error) {
	policy := c.cfg.Backoff
	policy.OnRetry = func(attempt int, err error, action retry.Action, backoff time.Duration) {
		metrics.RetriesTotal.WithLabelValues("sentiment", action.String()).Inc()
		slog.WarnContext(ctx, "Sentiment throttled, backing off", "attempt", attempt, "backoff", backoff, "error", err)
	}

	start := c.clock.Now()
	defer func() { metrics.SentimentRequestDuration.Observe(c.clock.Since(start).Seconds()) }()

	return retry.Do(ctx, policy, classifySentiment, func() (domain.Sentiment, error) {
		return c.classifier.Classify(ctx, text)
	})
}

func classifySentiment(err error) retry.Action {
	if errors.Is(err, domain.ErrThrottled) {
		return retry.After
	}
	return retry.Stop
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
