package domain

import "context"

// SentimentScores holds per-class confidence. JSON keys match the curated
// table schema.
type SentimentScores struct {
	Positive float64 `json:"Positive"`
	Negative float64 `json:"Negative"`
	Neutral  float64 `json:"Neutral"`
	Mixed    float64 `json:"Mixed"`
}

// Sentiment is a classifier verdict: a label (POSITIVE, NEGATIVE, NEUTRAL or
// MIXED) plus its scores.
type Sentiment struct {
	Label  string
	Scores SentimentScores
}

// SentimentProvider classifies text. Implementations return errors wrapping
// ErrThrottled when rate limited and ErrInvalidInput when the text is refused.
type SentimentProvider interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}

// EnrichedRecord is the curated output for one record.
type EnrichedRecord struct {
	Timestamp       string          `json:"time_stamp"`
	Text            string          `json:"tweet"`
	RecordID        int64           `json:"tweet_id"`
	SentimentLabel  string          `json:"sentiment"`
	SentimentScores SentimentScores `json:"sentiment_details"`
}
