// Package yahoo is a Yahoo Finance chart API client. The chart endpoint
// doubles as the quote source: its meta block carries price, exchange, and
// instrument type without needing the crumb-protected quote API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
)

const baseURL = "https://query1.finance.yahoo.com"

// chartParams maps a timeframe to the chart API range and interval
var chartParams = map[domain.Timeframe]struct {
	Range    string
	Interval string
}{
	domain.TimeframeHourly: {Range: "5d", Interval: "1h"},
	domain.TimeframeDaily:  {Range: "6mo", Interval: "1d"},
	domain.TimeframeWeekly: {Range: "2y", Interval: "1wk"},
}

// Client is a Yahoo Finance API client
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// GetChart fetches OHLCV bars for one symbol and timeframe
func (c *Client) GetChart(ctx context.Context, symbol string, timeframe domain.Timeframe) (*domain.ChartData, error) {
	params, ok := chartParams[timeframe]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", timeframe)
	}

	raw, err := c.fetchChart(ctx, symbol, params.Range, params.Interval)
	if err != nil {
		return nil, err
	}

	bars := rawToBars(raw)
	c.log.Debug().
		Str("symbol", symbol).
		Str("timeframe", string(timeframe)).
		Int("bars", len(bars)).
		Msg("Fetched chart")

	return &domain.ChartData{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
	}, nil
}

// GetQuote fetches the current price and identity from the chart meta block
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	raw, err := c.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := raw.Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("no price in chart meta for %s", symbol)
	}

	change := 0.0
	changePct := 0.0
	if meta.ChartPreviousClose > 0 {
		change = meta.RegularMarketPrice - meta.ChartPreviousClose
		changePct = change / meta.ChartPreviousClose * 100
	}

	return &Quote{
		Symbol:         symbol,
		Price:          meta.RegularMarketPrice,
		PreviousClose:  meta.ChartPreviousClose,
		Change:         change,
		ChangePercent:  changePct,
		Currency:       meta.Currency,
		Exchange:       meta.ExchangeName,
		FullExchange:   meta.FullExchangeName,
		InstrumentType: meta.InstrumentType,
		LongName:       meta.LongName,
		MarketState:    meta.MarketState,
	}, nil
}

// GetCurrentPrice gets the current price with exponential backoff retries
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string, maxRetries int) (*float64, error) {
	if maxRetries == 0 {
		maxRetries = 3 // default
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		quote, err := c.GetQuote(ctx, symbol)
		if err == nil && quote.Price > 0 {
			return &quote.Price, nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			waitTime := time.Duration(1<<uint(attempt)) * time.Second // exponential backoff
			c.log.Warn().Err(err).
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", waitTime).
				Msg("Failed to get price, retrying")

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
	}
	return nil, fmt.Errorf("failed to get valid price after %d attempts", maxRetries)
}

// fetchChart calls the v8 chart endpoint and returns the first result
func (c *Client) fetchChart(ctx context.Context, symbol, rng, interval string) (*chartResult, error) {
	params := url.Values{}
	params.Add("range", rng)
	params.Add("interval", interval)

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data returned for symbol %s", symbol)
	}

	return &result.Chart.Result[0], nil
}

// rawToBars converts the columnar chart payload into bars, skipping null rows
func rawToBars(raw *chartResult) []domain.Bar {
	if len(raw.Indicators.Quote) == 0 {
		return nil
	}
	quote := raw.Indicators.Quote[0]

	var bars []domain.Bar
	for i, ts := range raw.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		open, high := quote.Open[i], quote.High[i]
		low, closePx := quote.Low[i], quote.Close[i]

		// Yahoo encodes missing rows as nulls, which decode to nil pointers
		if open == nil || high == nil || low == nil || closePx == nil {
			continue
		}

		volume := 0.0
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		bars = append(bars, domain.Bar{
			Timestamp: time.Unix(ts, 0),
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closePx,
			Volume:    volume,
		})
	}

	return bars
}
