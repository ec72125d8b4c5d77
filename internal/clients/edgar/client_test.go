package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNormalizeCIK(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"320193", "0000320193"},
		{"0000320193", "0000320193"},
		{" 789019 ", "0000789019"},
	}
	for _, tt := range tests {
		if got := NormalizeCIK(tt.in); got != tt.want {
			t.Errorf("NormalizeCIK(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilingURL(t *testing.T) {
	got := FilingURL("0000320193", "0000320193-24-000123", "aapl-20240928.htm")
	want := "https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm"
	if got != want {
		t.Errorf("FilingURL = %q, want %q", got, want)
	}
}

func TestLookupCIK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-app test@example.com" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-app test@example.com", 100, zerolog.Nop())
	c.wwwBaseURL = srv.URL

	cik, err := c.LookupCIK(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("LookupCIK failed: %v", err)
	}
	if cik != "0000320193" {
		t.Errorf("cik = %q, want 0000320193", cik)
	}

	if _, err := c.LookupCIK(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for unknown ticker")
	}
}

func TestGetCompanyFacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/xbrl/companyfacts/CIK0000320193.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"cik": 320193,
			"entityName": "Apple Inc.",
			"facts": {
				"us-gaap": {
					"Revenues": {
						"label": "Revenues",
						"units": {
							"USD": [
								{"start": "2024-06-30", "end": "2024-09-28", "val": 94930000000, "form": "10-Q", "filed": "2024-11-01", "accn": "0000320193-24-000123"}
							]
						}
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-app test@example.com", 100, zerolog.Nop())
	c.dataBaseURL = srv.URL

	facts, err := c.GetCompanyFacts(context.Background(), "320193")
	if err != nil {
		t.Fatalf("GetCompanyFacts failed: %v", err)
	}

	gaap := facts.USGAAP()
	if gaap == nil {
		t.Fatal("expected us-gaap facts")
	}
	entries := gaap["Revenues"].Units["USD"]
	if len(entries) != 1 || entries[0].Val != 94930000000 {
		t.Errorf("unexpected fact entries: %+v", entries)
	}
}

func TestGetRetriesRateLimit(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"cik": 320193, "entityName": "Apple Inc.", "facts": {}}`))
	}))
	defer srv.Close()

	c := NewClient("test-app test@example.com", 100, zerolog.Nop())
	c.dataBaseURL = srv.URL
	c.retryWait = time.Millisecond

	facts, err := c.GetCompanyFacts(context.Background(), "320193")
	if err != nil {
		t.Fatalf("GetCompanyFacts failed after transient 429: %v", err)
	}
	if facts.EntityName != "Apple Inc." {
		t.Errorf("entityName = %q, want Apple Inc.", facts.EntityName)
	}
	if hits != 2 {
		t.Errorf("requests issued = %d, want 2", hits)
	}
}

func TestGetGivesUpOnPersistentRateLimit(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-app test@example.com", 100, zerolog.Nop())
	c.dataBaseURL = srv.URL
	c.retryWait = time.Millisecond

	if _, err := c.GetCompanyFacts(context.Background(), "320193"); err == nil {
		t.Error("expected error on persistent 429")
	}
	if hits != maxRateLimitAttempts {
		t.Errorf("requests issued = %d, want %d", hits, maxRateLimitAttempts)
	}
}
