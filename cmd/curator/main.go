package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/tweetpulse/internal/adapter/aws"
	"github.com/pscheid92/tweetpulse/internal/adapter/kafka"
	"github.com/pscheid92/tweetpulse/internal/app"
	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/platform/config"
	"github.com/pscheid92/tweetpulse/internal/platform/logging"
	"github.com/pscheid92/tweetpulse/internal/platform/retry"
)

func main() {
	cfg, err := config.LoadCurator()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat, "curator")

	awsCfg, err := aws.LoadConfig(context.Background(), aws.Settings{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		slog.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// The Lambda runtime freezes the process between invocations, so the
	// Kafka writer is never closed explicitly.
	var curated domain.StreamSink
	if cfg.SinkBackend == config.SinkKafka {
		curated, err = kafka.NewSink(cfg.Brokers(), cfg.CuratedStreamName)
		if err != nil {
			slog.Error("Failed to create Kafka sink", "error", err)
			os.Exit(1)
		}
	} else {
		curated = aws.NewFirehoseSink(awsCfg, cfg.CuratedStreamName)
	}

	curator := app.NewCurator(
		aws.NewComprehend(awsCfg),
		curated,
		aws.NewS3Reader(awsCfg, cfg.AWSEndpoint != ""),
		clockwork.NewRealClock(),
		app.CuratorConfig{
			Backoff: retry.Policy{Unit: cfg.BackoffUnit, MaxBackoff: cfg.MaxBackoff},
		},
	)

	slog.Info("Curator ready", "env", cfg.AppEnv, "sink_backend", cfg.SinkBackend)
	lambda.Start(newHandler(curator).Handle)
}
