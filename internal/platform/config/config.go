package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	CheckpointSSM      = "ssm"
	CheckpointDynamoDB = "dynamodb"
	CheckpointRedis    = "redis"

	SinkFirehose = "firehose"
	SinkKafka    = "kafka"
)

// Config is shared by both binaries; each has its own Load with its own required set.
type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
	Port      string `env:"PORT" default:"9090"`
	WorkerID  string `env:"WORKER_ID"`

	AWSRegion          string `env:"AWS_REGION" default:"us-east-1"`
	AWSEndpoint        string `env:"AWS_ENDPOINT"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	SearchKeyword           string        `env:"SEARCH_KEYWORD"`
	SearchURL               string        `env:"SEARCH_URL" default:"https://api.twitter.com/1.1/search/tweets.json"`
	SearchCount             int           `env:"SEARCH_COUNT" default:"100"`
	SearchResultType        string        `env:"SEARCH_RESULT_TYPE" default:"recent"`
	SearchRequestsPerWindow int           `env:"SEARCH_REQUESTS_PER_WINDOW" default:"180"`
	SearchRateWindow        time.Duration `env:"SEARCH_RATE_WINDOW" default:"15m"`
	SinceDate               string        `env:"SINCE_DATE" default:"2019-03-01"`
	SearchSecretID          string        `env:"SEARCH_SECRET_ID" default:"prod/twitter-secrets"`

	QueueName         string        `env:"QUEUE_NAME"`
	QueueWaitTime     time.Duration `env:"QUEUE_WAIT_TIME" default:"0s"`
	PollInterval      time.Duration `env:"POLL_INTERVAL" default:"10s"`
	CheckpointBackend string        `env:"CHECKPOINT_BACKEND" default:"ssm"`
	RunStateParam     string        `env:"RUN_STATE_PARAM" default:"TwitterPollerHasRun"`
	DynamoTable       string        `env:"DYNAMO_TABLE"`
	RedisURL          string        `env:"REDIS_URL"`

	SinkBackend       string `env:"SINK_BACKEND" default:"firehose"`
	RawStreamName     string `env:"RAW_STREAM_NAME"`
	CuratedStreamName string `env:"CURATED_STREAM_NAME"`
	KafkaBrokers      string `env:"KAFKA_BROKERS"`

	BackoffUnit time.Duration `env:"BACKOFF_UNIT" default:"1s"`
	MaxBackoff  time.Duration `env:"MAX_BACKOFF" default:"15m"`
}

// LoadPoller reads the environment and validates the poller's settings.
func LoadPoller() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := validatePoller(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCurator reads the environment and validates the curator's settings.
func LoadCurator() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := validateCurator(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Brokers() []string {
	return splitCSV(c.KafkaBrokers)
}

func load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return &cfg, nil
}

func validatePoller(cfg *Config) error {
	required := map[string]string{
		"SEARCH_KEYWORD":  cfg.SearchKeyword,
		"QUEUE_NAME":      cfg.QueueName,
		"RAW_STREAM_NAME": cfg.RawStreamName,
	}
	if err := requireAll(required); err != nil {
		return err
	}

	if _, err := url.ParseRequestURI(cfg.SearchURL); err != nil {
		return fmt.Errorf("SEARCH_URL must be a valid URL: %w", err)
	}
	if _, err := time.Parse(time.DateOnly, cfg.SinceDate); err != nil {
		return fmt.Errorf("SINCE_DATE must be YYYY-MM-DD: %w", err)
	}
	if cfg.SearchCount < 1 || cfg.SearchCount > 100 {
		return fmt.Errorf("SEARCH_COUNT must be between 1 and 100, got %d", cfg.SearchCount)
	}
	if cfg.SearchRequestsPerWindow < 1 {
		return errors.New("SEARCH_REQUESTS_PER_WINDOW must be positive")
	}
	if cfg.SearchRateWindow <= 0 {
		return errors.New("SEARCH_RATE_WINDOW must be positive")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}

	switch cfg.CheckpointBackend {
	case CheckpointSSM:
		if cfg.RunStateParam == "" {
			return errors.New("RUN_STATE_PARAM is required")
		}
	case CheckpointDynamoDB:
		if cfg.DynamoTable == "" {
			return errors.New("DYNAMO_TABLE is required when CHECKPOINT_BACKEND=dynamodb")
		}
	case CheckpointRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when CHECKPOINT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CHECKPOINT_BACKEND must be one of ssm, dynamodb, redis, got %q", cfg.CheckpointBackend)
	}

	if err := validateSink(cfg); err != nil {
		return err
	}
	return validateBackoff(cfg)
}

func validateCurator(cfg *Config) error {
	if cfg.CuratedStreamName == "" {
		return errors.New("CURATED_STREAM_NAME is required")
	}
	if err := validateSink(cfg); err != nil {
		return err
	}
	return validateBackoff(cfg)
}

func validateSink(cfg *Config) error {
	switch cfg.SinkBackend {
	case SinkFirehose:
		return nil
	case SinkKafka:
		if len(cfg.Brokers()) == 0 {
			return errors.New("KAFKA_BROKERS is required when SINK_BACKEND=kafka")
		}
		return nil
	default:
		return fmt.Errorf("SINK_BACKEND must be one of firehose, kafka, got %q", cfg.SinkBackend)
	}
}

func validateBackoff(cfg *Config) error {
	if cfg.BackoffUnit <= 0 {
		return errors.New("BACKOFF_UNIT must be positive")
	}
	if cfg.MaxBackoff < 0 {
		return errors.New("MAX_BACKOFF must not be negative")
	}
	return nil
}

func requireAll(required map[string]string) error {
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%s is required", strings.Join(missing, ", "))
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
