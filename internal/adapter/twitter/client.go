package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/metrics"
	"github.com/pscheid92/tweetpulse/internal/platform/version"
)

const (
	DefaultEndpoint = "https://api.twitter.com/1.1/search/tweets.json"

	statusEnhanceYourCalm = 420
	maxErrorBody          = 512
)

// Credentials are the four OAuth1 values, stored as one JSON secret.
type Credentials struct {
	ConsumerKey       string `json:"consumer_key"`
	ConsumerSecret    string `json:"consumer_secret"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
}

func (c Credentials) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"consumer_key":        c.ConsumerKey,
		"consumer_secret":     c.ConsumerSecret,
		"access_token":        c.AccessToken,
		"access_token_secret": c.AccessTokenSecret,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("search credentials missing %v", missing)
	}
	return nil
}

type Options struct {
	Endpoint   string
	Keyword    string
	Count      int
	ResultType string
	// RequestsPerWindow requests are allowed per RateWindow, spread evenly.
	RequestsPerWindow int
	RateWindow        time.Duration
	Timeout           time.Duration
}

var _ domain.SearchProvider = (*Client)(nil)

// Client queries the standard search endpoint. Requests are paced client
// side so the provider's window limit is rarely hit.
type Client struct {
	http     *http.Client
	opts     Options
	endpoint string
	limiter  *rate.Limiter
}

func NewClient(creds Credentials, opts Options) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if opts.Keyword == "" {
		return nil, errors.New("search keyword required")
	}

	cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	return newClientWithHTTP(cfg.Client(context.Background(), token), opts), nil
}

func newClientWithHTTP(httpClient *http.Client, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Count <= 0 {
		opts.Count = 100
	}
	if opts.ResultType == "" {
		opts.ResultType = "recent"
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	limit := rate.Inf
	if opts.RequestsPerWindow > 0 && opts.RateWindow > 0 {
		limit = rate.Every(opts.RateWindow / time.Duration(opts.RequestsPerWindow))
	}

	return &Client{
		http:     httpClient,
		opts:     opts,
		endpoint: opts.Endpoint,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type searchResponse struct {
	Statuses []json.RawMessage `json:"statuses"`
}

type statusID struct {
	IDStr string      `json:"id_str"`
	ID    json.Number `json:"id"`
}

// Search returns matching records newest-first.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for search slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+c.params(q).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.SearchRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()

	records := make([]domain.RawRecord, 0, len(body.Statuses))
	for i, status := range body.Statuses {
		var id statusID
		if err := json.Unmarshal(status, &id); err != nil {
			return nil, fmt.Errorf("decode status %d: %w", i, err)
		}
		cursor := id.IDStr
		if cursor == "" {
			cursor = id.ID.String()
		}
		records = append(records, domain.RawRecord{ID: domain.Cursor(cursor), Payload: status})
	}
	return records, nil
}

func (c *Client) params(q domain.SearchQuery) url.Values {
	v := url.Values{}
	v.Set("q", c.opts.Keyword)
	v.Set("result_type", c.opts.ResultType)
	v.Set("count", strconv.Itoa(c.opts.Count))
	v.Set("include_entities", "false")
	v.Set("tweet_mode", "extended")
	if !q.SinceID.IsZero() {
		v.Set("since_id", q.SinceID.String())
	} else if q.SinceDate != "" {
		v.Set("since", q.SinceDate)
	}
	return v
}

// checkStatus maps rate limiting onto domain.ErrThrottled and other client
// errors onto domain.ErrRejected. Server errors stay plain and retryable.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	base := fmt.Errorf("search returned %d: %s", resp.StatusCode, snippet)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == statusEnhanceYourCalm:
		metrics.SearchRequestsTotal.WithLabelValues("throttled").Inc()
		if reset := resp.Header.Get("x-rate-limit-reset"); reset != "" {
			return fmt.Errorf("%w (window resets at %s): %w", domain.ErrThrottled, reset, base)
		}
		return fmt.Errorf("%w: %w", domain.ErrThrottled, base)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		metrics.SearchRequestsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %w", domain.ErrRejected, base)
	default:
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return base
	}
}
