// Package finnhub is a Finnhub REST API client covering the endpoints the
// scorecard needs: profiles, peers, metrics, recommendations, reported
// financials, earnings, and company news. All calls go through a shared
// rate limiter sized to the free-tier quota.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const baseURL = "https://finnhub.io/api/v1"

// maxRateLimitAttempts bounds how often a 429 is retried before giving up
const maxRateLimitAttempts = 3

// Client is a Finnhub API client
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	limiter   *rate.Limiter
	retryWait time.Duration
	log       zerolog.Logger
}

// NewClient creates a Finnhub client. callsPerMinute bounds the request
// rate; the free tier allows 60.
func NewClient(apiKey string, callsPerMinute int, log zerolog.Logger) *Client {
	if callsPerMinute <= 0 {
		callsPerMinute = 60
	}

	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		apiKey:    apiKey,
		limiter:   rate.NewLimiter(rate.Limit(float64(callsPerMinute)/60.0), 1),
		retryWait: time.Second,
		log:       log.With().Str("client", "finnhub").Logger(),
	}
}

// Enabled reports whether the client has an API key configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// GetProfile fetches the company profile
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var profile Profile
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/stock/profile2", params, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" && profile.Ticker == "" {
		return nil, fmt.Errorf("no profile data for %s", symbol)
	}
	return &profile, nil
}

// GetPeers fetches peer tickers for a symbol, excluding the symbol itself
// and capped at maxPeers
func (c *Client) GetPeers(ctx context.Context, symbol string, maxPeers int) ([]string, error) {
	var raw []string
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/stock/peers", params, &raw); err != nil {
		return nil, err
	}

	peers := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == symbol {
			continue
		}
		peers = append(peers, p)
		if maxPeers > 0 && len(peers) >= maxPeers {
			break
		}
	}
	return peers, nil
}

// GetBasicFinancials fetches the full metric map for a symbol
func (c *Client) GetBasicFinancials(ctx context.Context, symbol string) (*BasicFinancials, error) {
	var metrics BasicFinancials
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	if err := c.get(ctx, "/stock/metric", params, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// GetRecommendations fetches monthly analyst recommendation trends
func (c *Client) GetRecommendations(ctx context.Context, symbol string) ([]RecommendationTrend, error) {
	var trends []RecommendationTrend
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/stock/recommendation", params, &trends); err != nil {
		return nil, err
	}
	return trends, nil
}

// GetQuarterlyFinancials fetches reported quarterly financial statements
func (c *Client) GetQuarterlyFinancials(ctx context.Context, symbol string) (*FinancialsReported, error) {
	var reported FinancialsReported
	params := url.Values{"symbol": {symbol}, "freq": {"quarterly"}}
	if err := c.get(ctx, "/stock/financials-reported", params, &reported); err != nil {
		return nil, err
	}
	return &reported, nil
}

// GetEarnings fetches recent quarterly EPS reports
func (c *Client) GetEarnings(ctx context.Context, symbol string, limit int) ([]EarningsReport, error) {
	if limit <= 0 {
		limit = 12
	}

	var reports []EarningsReport
	params := url.Values{"symbol": {symbol}, "limit": {fmt.Sprintf("%d", limit)}}
	if err := c.get(ctx, "/stock/earnings", params, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetCompanyNews fetches company news for the trailing window, newest first
func (c *Client) GetCompanyNews(ctx context.Context, symbol string, days, maxItems int) ([]News, error) {
	if days <= 0 {
		days = 30
	}
	if maxItems <= 0 {
		maxItems = 20
	}

	now := time.Now()
	params := url.Values{
		"symbol": {symbol},
		"from":   {now.AddDate(0, 0, -days).Format("2006-01-02")},
		"to":     {now.Format("2006-01-02")},
	}

	var news []News
	if err := c.get(ctx, "/company-news", params, &news); err != nil {
		return nil, err
	}

	if len(news) > maxItems {
		news = news[:maxItems]
	}
	return news, nil
}

// get performs a rate-limited GET and decodes the JSON response into dest.
// A 429 is retried with exponential backoff up to maxRateLimitAttempts;
// every other non-200 status fails immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("finnhub API key not configured")
	}

	params.Set("token", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	var body []byte
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call finnhub: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == maxRateLimitAttempts {
				return fmt.Errorf("finnhub rate limit exceeded after %d attempts", attempt)
			}

			waitTime := c.retryWait * time.Duration(1<<uint(attempt-1)) // exponential backoff
			c.log.Warn().
				Str("path", path).
				Int("attempt", attempt).
				Dur("wait", waitTime).
				Msg("Rate limited, retrying")

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			errBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("finnhub returned status %d: %s", resp.StatusCode, string(errBody))
		}

		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		break
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse finnhub response: %w", err)
	}

	return nil
}
