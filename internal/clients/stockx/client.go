package stockx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/ratelimit"
)

// Client reads current market snapshots from the StockX API. All requests are
// serialized through a shared minimum-interval gate; rate-limit responses are
// retried with exponential backoff before being surfaced.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	gate    *ratelimit.Gate
	backoff ratelimit.Backoff
	log     zerolog.Logger
}

// NewClient creates a new StockX market data client
func NewClient(baseURL, apiKey string, gate *ratelimit.Gate, backoff ratelimit.Backoff, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		gate:    gate,
		backoff: backoff,
		log:     log.With().Str("client", "stockx").Logger(),
	}
}

// GetSnapshot fetches the current bid/ask/velocity snapshot for a product.
// Fails with *domain.NotFoundError when the marketplace has no listing and
// *domain.RateLimitedError once backoff is exhausted.
func (c *Client) GetSnapshot(ctx context.Context, entityID string) (*domain.MarketSnapshot, error) {
	var snapshot *domain.MarketSnapshot

	err := c.backoff.Do(ctx, func() error {
		if err := c.gate.Wait(ctx); err != nil {
			return err
		}

		var fetchErr error
		snapshot, fetchErr = c.fetchSnapshot(ctx, entityID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *Client) fetchSnapshot(ctx context.Context, entityID string) (*domain.MarketSnapshot, error) {
	endpoint := fmt.Sprintf("%s/products/%s/market", c.baseURL, url.PathEscape(entityID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, &domain.NotFoundError{EntityID: entityID}
	case http.StatusTooManyRequests:
		c.log.Warn().Str("entity_id", entityID).Msg("Marketplace rate limit hit")
		return nil, &domain.RateLimitedError{RetryAfter: retryAfter(resp)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("market request returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload marketDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode market response: %w", err)
	}

	snapshot := &domain.MarketSnapshot{
		LowestAsk:       payload.Market.LowestAsk,
		HighestBid:      payload.Market.HighestBid,
		TradeVelocity30: payload.Market.Velocity30d,
		AskCount:        payload.Market.NumberOfAsks,
		BidCount:        payload.Market.NumberOfBids,
		RecordedAt:      time.Now().UTC(),
	}

	c.log.Debug().
		Str("entity_id", entityID).
		Float64("lowest_ask", snapshot.LowestAsk).
		Float64("highest_bid", snapshot.HighestBid).
		Msg("Fetched market snapshot")

	return snapshot, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
