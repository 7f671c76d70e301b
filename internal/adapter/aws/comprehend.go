package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/aws/smithy-go"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

type comprehendAPI interface {
	DetectSentiment(ctx context.Context, params *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
}

var _ domain.SentimentProvider = (*Comprehend)(nil)

var rejectedInputCodes = map[string]struct{}{
	"InvalidRequestException":        {},
	"TextSizeLimitExceededException": {},
	"UnsupportedLanguageException":   {},
	"ValidationException":            {},
}

// Comprehend classifies English text with DetectSentiment.
type Comprehend struct {
	api      comprehendAPI
	language types.LanguageCode
}

func NewComprehend(cfg awssdk.Config) *Comprehend {
	return newComprehendWithAPI(comprehend.NewFromConfig(cfg))
}

func newComprehendWithAPI(api comprehendAPI) *Comprehend {
	return &Comprehend{api: api, language: types.LanguageCodeEn}
}

func (c *Comprehend) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	out, err := c.api.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         awssdk.String(text),
		LanguageCode: c.language,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if _, ok := rejectedInputCodes[apiErr.ErrorCode()]; ok {
				return domain.Sentiment{}, fmt.Errorf("detect sentiment: %w: %w", domain.ErrInvalidInput, err)
			}
		}
		return domain.Sentiment{}, translate("detect sentiment", err)
	}

	if out.Sentiment == "" || out.SentimentScore == nil {
		return domain.Sentiment{}, errors.New("detect sentiment: response carries no sentiment")
	}

	score := out.SentimentScore
	return domain.Sentiment{
		Label: string(out.Sentiment),
		Scores: domain.SentimentScores{
			Positive: float64(awssdk.ToFloat32(score.Positive)),
			Negative: float64(awssdk.ToFloat32(score.Negative)),
			Neutral:  float64(awssdk.ToFloat32(score.Neutral)),
			Mixed:    float64(awssdk.ToFloat32(score.Mixed)),
		},
	}, nil
}
