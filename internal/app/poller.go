package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/metrics"
	"github.com/pscheid92/tweetpulse/internal/platform/correlation"
	"github.com/pscheid92/tweetpulse/internal/platform/retry"
)

const releaseTimeout = 5 * time.Second

type CycleOutcome int

const (
	OutcomeProgress   CycleOutcome = iota // records forwarded, cursor advanced
	OutcomeNoProgress                     // search returned nothing, lease released
	OutcomeQueueEmpty                     // no cursor leasable yet
)

func (o CycleOutcome) String() string {
	switch o {
	case OutcomeProgress:
		return "progress"
	case OutcomeNoProgress:
		return "no_progress"
	case OutcomeQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

type PollerConfig struct {
	// SinceDate (YYYY-MM-DD) bounds the search until a cursor exists.
	SinceDate string
	// PollInterval is the pause after an empty queue or an empty result.
	PollInterval time.Duration
	// Backoff governs search retries. MaxAttempts is forced to zero.
	Backoff retry.Policy
}

// Poller moves records from the search provider to the raw sink and keeps
// the newest cursor on the work queue. Each cycle follows
// lease -> search -> forward -> push -> ack, or releases the lease when
// nothing new was found.
type Poller struct {
	checkpoint domain.CheckpointStore
	queue      domain.WorkQueue
	search     domain.SearchProvider
	raw        domain.StreamSink
	clock      clockwork.Clock
	cfg        PollerConfig

	// bootstrap is set once this process wrote the first-run marker and stays
	// set until it publishes the first cursor. Until then the queue is empty by
	// construction, so cycles search by date instead of waiting for a lease.
	bootstrap bool
}

func NewPoller(checkpoint domain.CheckpointStore, queue domain.WorkQueue, search domain.SearchProvider, raw domain.StreamSink, clock clockwork.Clock, cfg PollerConfig) *Poller {
	cfg.Backoff.MaxAttempts = 0
	cfg.Backoff.Clock = clock
	return &Poller{
		checkpoint: checkpoint,
		queue:      queue,
		search:     search,
		raw:        raw,
		clock:      clock,
		cfg:        cfg,
	}
}

// Run executes cycles until ctx is cancelled or a cycle fails. Cancellation
// is a clean stop and returns nil; any other error is fatal.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		cycleCtx := correlation.WithID(ctx, correlation.NewID())
		outcome, err := p.Cycle(cycleCtx)
		if err != nil {
			if ctx.Err() != nil {
				slog.InfoContext(cycleCtx, "Poller stopped mid-cycle", "error", err)
				return nil
			}
			return err
		}

		if outcome == OutcomeProgress {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(p.cfg.PollInterval):
		}
	}
}

// Cycle runs one fetch/forward/checkpoint pass. A lease taken by the cycle is
// always acknowledged or released before Cycle returns, except when the new
// cursor is already pushed and only the acknowledgement failed.
func (p *Poller) Cycle(ctx context.Context) (CycleOutcome, error) {
	start := p.clock.Now()

	query, lease, err := p.source(ctx)
	if errors.Is(err, domain.ErrQueueEmpty) {
		slog.DebugContext(ctx, "No cursor leasable, waiting", "interval", p.cfg.PollInterval)
		p.observe(OutcomeQueueEmpty, start)
		return OutcomeQueueEmpty, nil
	}
	if err != nil {
		return 0, err
	}

	outcome, err := p.advance(ctx, query, lease)
	if err != nil {
		return 0, err
	}
	p.observe(outcome, start)
	return outcome, nil
}

// source decides where this cycle reads from: the start date on first run,
// otherwise the leased cursor.
func (p *Poller) source(ctx context.Context) (domain.SearchQuery, *domain.LeasedItem, error) {
	byDate := domain.SearchQuery{SinceDate: p.cfg.SinceDate}

	ran, err := p.checkpoint.RunState(ctx)
	if err != nil {
		return domain.SearchQuery{}, nil, fmt.Errorf("read run state: %w", err)
	}

	if !ran {
		if err := p.checkpoint.SetRunState(ctx, true); err != nil {
			return domain.SearchQuery{}, nil, fmt.Errorf("write run state: %w", err)
		}
		p.bootstrap = true
		slog.InfoContext(ctx, "First run, searching from start date", "since", p.cfg.SinceDate)
		return byDate, nil, nil
	}

	if p.bootstrap {
		return byDate, nil, nil
	}

	item, err := p.queue.Lease(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrQueueEmpty) {
			return domain.SearchQuery{}, nil, err
		}
		return domain.SearchQuery{}, nil, fmt.Errorf("lease cursor: %w", err)
	}

	if item.Cursor.IsZero() {
		slog.WarnContext(ctx, "Leased item carries no cursor, searching from start date")
		return byDate, &item, nil
	}
	return domain.SearchQuery{SinceID: item.Cursor}, &item, nil
}

func (p *Poller) advance(ctx context.Context, query domain.SearchQuery, lease *domain.LeasedItem) (CycleOutcome, error) {
	records, err := p.fetch(ctx, query)
	if err != nil {
		p.abandon(ctx, lease)
		return 0, fmt.Errorf("search: %w", err)
	}
	metrics.RecordsFetchedTotal.Add(float64(len(records)))

	if len(records) == 0 {
		if lease != nil {
			if err := p.queue.Release(ctx, lease.Handle, 0); err != nil {
				return 0, fmt.Errorf("release lease: %w", err)
			}
		}
		slog.DebugContext(ctx, "No new records", "since_id", query.SinceID, "since", query.SinceDate)
		return OutcomeNoProgress, nil
	}

	// Provider order is newest-first.
	next := records[0].ID
	if next.IsZero() {
		p.abandon(ctx, lease)
		return 0, fmt.Errorf("newest record has no id: %w", domain.ErrCursorRegression)
	}
	if lease != nil && !lease.Cursor.IsZero() && next.Before(lease.Cursor) {
		p.abandon(ctx, lease)
		return 0, fmt.Errorf("%w: %s is older than leased %s", domain.ErrCursorRegression, next, lease.Cursor)
	}

	for _, rec := range records {
		if err := p.raw.Append(ctx, rec.Payload); err != nil {
			metrics.SinkAppendsTotal.WithLabelValues("raw", "error").Inc()
			p.abandon(ctx, lease)
			return 0, fmt.Errorf("forward record %s: %w", rec.ID, err)
		}
		metrics.SinkAppendsTotal.WithLabelValues("raw", "success").Inc()
	}

	if err := p.queue.Push(ctx, next); err != nil {
		if p.bootstrap {
			slog.ErrorContext(ctx, "First cursor was not published; reset the run-state flag to false before restarting",
				"cursor", next, "error", err)
		}
		p.abandon(ctx, lease)
		return 0, fmt.Errorf("push cursor %s: %w", next, err)
	}
	p.bootstrap = false

	// The old lease goes only after the new cursor is durable.
	if lease != nil {
		if err := p.queue.Ack(ctx, lease.Handle); err != nil {
			return 0, fmt.Errorf("ack cursor %s: %w", lease.Cursor, err)
		}
	}

	slog.InfoContext(ctx, "Records forwarded", "count", len(records), "cursor", next)
	return OutcomeProgress, nil
}

func (p *Poller) fetch(ctx context.Context, query domain.SearchQuery) ([]domain.RawRecord, error) {
	policy := p.cfg.Backoff
	policy.OnRetry = func(attempt int, err error, action retry.Action, backoff time.Duration) {
		metrics.RetriesTotal.WithLabelValues("search", action.String()).Inc()
		slog.WarnContext(ctx, "Search failed, backing off", "attempt", attempt, "action", action.String(), "backoff", backoff, "error", err)
	}
	return retry.Do(ctx, policy, classifySearch, func() ([]domain.RawRecord, error) {
		return p.search.Search(ctx, query)
	})
}

func classifySearch(err error) retry.Action {
	switch {
	case errors.Is(err, domain.ErrRejected):
		return retry.Stop
	case errors.Is(err, domain.ErrThrottled):
		return retry.After
	default:
		return retry.Retry
	}
}

// abandon makes a held lease reclaimable before a failed cycle returns.
// It runs detached from ctx so shutdown does not strand the lease.
func (p *Poller) abandon(ctx context.Context, lease *domain.LeasedItem) {
	if lease == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := p.queue.Release(releaseCtx, lease.Handle, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to release lease after error", "cursor", lease.Cursor, "error", err)
	}
}

func (p *Poller) observe(outcome CycleOutcome, start time.Time) {
	metrics.PollCyclesTotal.WithLabelValues(outcome.String()).Inc()
	metrics.PollCycleDuration.Observe(p.clock.Since(start).Seconds())
}
