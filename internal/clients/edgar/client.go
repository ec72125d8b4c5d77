// Package edgar is a client for the SEC EDGAR data APIs. The SEC requires
// a descriptive User-Agent on every request and asks for no more than ten
// requests per second; both are enforced here.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	dataBaseURL = "https://data.sec.gov"
	wwwBaseURL  = "https://www.sec.gov"

	// maxRateLimitAttempts bounds how often a 429 is retried before giving up
	maxRateLimitAttempts = 3
)

// Client is an SEC EDGAR API client
type Client struct {
	client      *http.Client
	dataBaseURL string
	wwwBaseURL  string
	userAgent   string
	limiter     *rate.Limiter
	retryWait   time.Duration
	log         zerolog.Logger
}

// NewClient creates an EDGAR client. userAgent must identify the caller
// per SEC fair-access policy, e.g. "myapp admin@example.com".
func NewClient(userAgent string, callsPerSecond int, log zerolog.Logger) *Client {
	if callsPerSecond <= 0 {
		callsPerSecond = 10
	}

	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		dataBaseURL: dataBaseURL,
		wwwBaseURL:  wwwBaseURL,
		userAgent:   userAgent,
		limiter:     rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		retryWait:   time.Second,
		log:         log.With().Str("client", "edgar").Logger(),
	}
}

// NormalizeCIK pads a CIK to the ten digits EDGAR paths expect
func NormalizeCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// LookupCIK resolves a ticker to its CIK via the company tickers index.
// The index is one large document, so callers should cache the result.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	var index map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}

	if err := c.get(ctx, c.wwwBaseURL+"/files/company_tickers.json", &index); err != nil {
		return "", fmt.Errorf("failed to fetch company tickers index: %w", err)
	}

	upper := strings.ToUpper(ticker)
	for _, entry := range index {
		if entry.Ticker == upper {
			return NormalizeCIK(fmt.Sprintf("%d", entry.CIK)), nil
		}
	}

	return "", fmt.Errorf("no CIK found for ticker %s", ticker)
}

// GetCompanyFacts fetches all XBRL facts filed by a company
func (c *Client) GetCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	var facts CompanyFacts
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.dataBaseURL, NormalizeCIK(cik))
	if err := c.get(ctx, url, &facts); err != nil {
		return nil, fmt.Errorf("failed to fetch company facts: %w", err)
	}
	return &facts, nil
}

// GetSubmissions fetches a company's filing history
func (c *Client) GetSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	var subs Submissions
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, NormalizeCIK(cik))
	if err := c.get(ctx, url, &subs); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return &subs, nil
}

// FilingURL builds the public URL of a filed document
func FilingURL(cik, accessionNumber, primaryDocument string) string {
	accession := strings.ReplaceAll(accessionNumber, "-", "")
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
		strings.TrimLeft(cik, "0"), accession, primaryDocument)
}

// get performs a rate-limited GET and decodes the JSON response into dest.
// A 429 is retried with exponential backoff up to maxRateLimitAttempts;
// every other non-200 status fails immediately.
func (c *Client) get(ctx context.Context, url string, dest interface{}) error {
	var body []byte
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call EDGAR: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == maxRateLimitAttempts {
				return fmt.Errorf("EDGAR rate limit exceeded after %d attempts", attempt)
			}

			waitTime := c.retryWait * time.Duration(1<<uint(attempt-1)) // exponential backoff
			c.log.Warn().
				Str("url", url).
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
			return fmt.Errorf("EDGAR returned status %d: %s", resp.StatusCode, string(errBody))
		}

		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		break
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse EDGAR response: %w", err)
	}

	return nil
}
