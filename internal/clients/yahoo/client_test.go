package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
)

const chartFixture = `{
	"chart": {
		"result": [{
			"meta": {
				"currency": "USD",
				"symbol": "AAPL",
				"exchangeName": "NMS",
				"fullExchangeName": "NasdaqGS",
				"instrumentType": "EQUITY",
				"regularMarketPrice": 189.5,
				"chartPreviousClose": 187.0,
				"longName": "Apple Inc.",
				"marketState": "CLOSED"
			},
			"timestamp": [1756200600, 1756287000, 1756373400],
			"indicators": {
				"quote": [{
					"open": [186.1, null, 188.2],
					"high": [188.0, null, 190.1],
					"low": [185.5, null, 187.9],
					"close": [187.0, null, 189.5],
					"volume": [51000000, null, 48000000]
				}]
			}
		}],
		"error": null
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(zerolog.Nop())
	c.baseURL = srv.URL
	return c
}

func TestGetChartSkipsNullBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartFixture))
	})

	chart, err := c.GetChart(context.Background(), "AAPL", domain.TimeframeDaily)
	if err != nil {
		t.Fatalf("GetChart failed: %v", err)
	}

	if len(chart.Bars) != 2 {
		t.Fatalf("got %d bars, want 2 (null row skipped)", len(chart.Bars))
	}
	if chart.Bars[0].Close != 187.0 || chart.Bars[1].Close != 189.5 {
		t.Errorf("unexpected closes: %v, %v", chart.Bars[0].Close, chart.Bars[1].Close)
	}
	if chart.Bars[1].Volume != 48000000 {
		t.Errorf("volume = %v, want 48000000", chart.Bars[1].Volume)
	}
}

func TestGetChartUnknownTimeframe(t *testing.T) {
	c := NewClient(zerolog.Nop())
	if _, err := c.GetChart(context.Background(), "AAPL", domain.Timeframe("monthly")); err == nil {
		t.Error("expected error for unknown timeframe")
	}
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartFixture))
	})

	quote, err := c.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if quote.Price != 189.5 {
		t.Errorf("price = %v, want 189.5", quote.Price)
	}
	if quote.Change != 2.5 {
		t.Errorf("change = %v, want 2.5", quote.Change)
	}
	if quote.IsETF() {
		t.Error("EQUITY instrument flagged as ETF")
	}
	if quote.Exchange != "NMS" {
		t.Errorf("exchange = %q, want NMS", quote.Exchange)
	}
}

func TestGetChartAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	if _, err := c.GetChart(context.Background(), "NOPE", domain.TimeframeDaily); err == nil {
		t.Error("expected error from API error payload")
	}
}
