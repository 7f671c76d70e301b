package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/pscheid92/tweetpulse/internal/adapter/aws"
	"github.com/pscheid92/tweetpulse/internal/adapter/httpserver"
	"github.com/pscheid92/tweetpulse/internal/adapter/kafka"
	"github.com/pscheid92/tweetpulse/internal/adapter/redis"
	"github.com/pscheid92/tweetpulse/internal/adapter/twitter"
	"github.com/pscheid92/tweetpulse/internal/app"
	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/platform/config"
	"github.com/pscheid92/tweetpulse/internal/platform/correlation"
	"github.com/pscheid92/tweetpulse/internal/platform/logging"
	"github.com/pscheid92/tweetpulse/internal/platform/retry"
)

const (
	setupTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// checkpoint is a CheckpointStore the readiness probe can reach.
type checkpoint interface {
	domain.CheckpointStore
	httpserver.Pinger
}

func setupConfig() *config.Config {
	cfg, err := config.LoadPoller()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupAWS(ctx context.Context, cfg *config.Config) awssdk.Config {
	awsCfg, err := aws.LoadConfig(ctx, aws.Settings{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		slog.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}
	return awsCfg
}

func setupSearch(ctx context.Context, cfg *config.Config, awsCfg awssdk.Config) *twitter.Client {
	var creds twitter.Credentials
	if err := aws.NewSecretsLoader(awsCfg).Decode(ctx, cfg.SearchSecretID, &creds); err != nil {
		slog.Error("Failed to load search credentials", "secret_id", cfg.SearchSecretID, "error", err)
		os.Exit(1)
	}

	client, err := twitter.NewClient(creds, twitter.Options{
		Endpoint:          cfg.SearchURL,
		Keyword:           cfg.SearchKeyword,
		Count:             cfg.SearchCount,
		ResultType:        cfg.SearchResultType,
		RequestsPerWindow: cfg.SearchRequestsPerWindow,
		RateWindow:        cfg.SearchRateWindow,
	})
	if err != nil {
		slog.Error("Failed to create search client", "error", err)
		os.Exit(1)
	}
	return client
}

// setupCheckpoint returns the store and a cleanup func for backends holding connections.
func setupCheckpoint(cfg *config.Config, awsCfg awssdk.Config, clock clockwork.Clock) (checkpoint, func()) {
	switch cfg.CheckpointBackend {
	case config.CheckpointDynamoDB:
		return aws.NewDynamoCheckpoint(awsCfg, cfg.DynamoTable, cfg.RunStateParam, clock), func() {}
	case config.CheckpointRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		return redis.NewCheckpoint(client, ""), func() { _ = client.Close() }
	default:
		return aws.NewSSMCheckpoint(awsCfg, cfg.RunStateParam), func() {}
	}
}

func setupSink(cfg *config.Config, awsCfg awssdk.Config) (domain.StreamSink, func()) {
	if cfg.SinkBackend == config.SinkKafka {
		sink, err := kafka.NewSink(cfg.Brokers(), cfg.RawStreamName)
		if err != nil {
			slog.Error("Failed to create Kafka sink", "error", err)
			os.Exit(1)
		}
		return sink, func() {
			if err := sink.Close(); err != nil {
				slog.Error("Failed to close Kafka sink", "error", err)
			}
		}
	}
	return aws.NewFirehoseSink(awsCfg, cfg.RawStreamName), func() {}
}

func workerID(cfg *config.Config) string {
	if cfg.WorkerID != "" {
		return cfg.WorkerID
	}
	return uuid.NewString()
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat, "poller")
	id := workerID(cfg)
	slog.Info("Poller starting",
		"env", cfg.AppEnv,
		"worker_id", id,
		"checkpoint_backend", cfg.CheckpointBackend,
		"sink_backend", cfg.SinkBackend,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(correlation.WithID(ctx, correlation.NewID()), setupTimeout)
	awsCfg := setupAWS(setupCtx, cfg)
	search := setupSearch(setupCtx, cfg, awsCfg)
	queue, err := aws.NewSQSQueue(setupCtx, awsCfg, cfg.QueueName, cfg.QueueWaitTime)
	cancel()
	if err != nil {
		slog.Error("Failed to resolve work queue", "queue", cfg.QueueName, "error", err)
		os.Exit(1)
	}

	store, closeStore := setupCheckpoint(cfg, awsCfg, clock)
	defer closeStore()

	sink, closeSink := setupSink(cfg, awsCfg)
	defer closeSink()

	poller := app.NewPoller(store, queue, search, sink, clock, app.PollerConfig{
		SinceDate:    cfg.SinceDate,
		PollInterval: cfg.PollInterval,
		Backoff: retry.Policy{
			Unit:             cfg.BackoffUnit,
			MaxBackoff:       cfg.MaxBackoff,
			RateLimitBackoff: cfg.SearchRateWindow / time.Duration(cfg.SearchRequestsPerWindow),
		},
	})

	srv := httpserver.NewServer(cfg.Port, id, clock, []httpserver.HealthCheck{
		httpserver.PingCheck("checkpoint", store),
		httpserver.PingCheck("queue", queue),
	})

	if err := run(ctx, poller, srv); err != nil {
		slog.Error("Poller stopped", "error", err)
		closeSink()
		closeStore()
		os.Exit(1)
	}
	slog.Info("Poller stopped")
}

// run drives the poll loop and the HTTP server until either fails or ctx is cancelled.
func run(ctx context.Context, poller *app.Poller, srv *httpserver.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := poller.Run(gctx); err != nil {
			return fmt.Errorf("poll loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
