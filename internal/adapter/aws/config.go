package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

// Settings selects region, credentials and an optional endpoint override
// (LocalStack and similar).
type Settings struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func LoadConfig(ctx context.Context, s Settings) (awssdk.Config, error) {
	if s.Region == "" {
		return awssdk.Config{}, errors.New("aws region required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if s.Endpoint != "" {
		cfg.BaseEndpoint = awssdk.String(s.Endpoint)
	}
	return cfg, nil
}

var throttlingCodes = map[string]struct{}{
	"ThrottlingException":                    {},
	"Throttling":                             {},
	"TooManyRequestsException":               {},
	"ProvisionedThroughputExceededException": {},
	"RequestLimitExceeded":                   {},
	"ServiceUnavailableException":            {},
}

// translate maps throttling API errors onto domain.ErrThrottled and leaves
// everything else wrapped as-is.
func translate(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrThrottled, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
