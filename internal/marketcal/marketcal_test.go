package marketcal

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return New(zerolog.Nop(), 15*time.Minute, 24*time.Hour)
}

func nyTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return ts
}

func TestIsMarketOpenAt(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"weekday mid-session", "2026-03-04 11:00", true},
		{"weekday before open", "2026-03-04 09:00", false},
		{"weekday at open", "2026-03-04 09:30", true},
		{"weekday after close", "2026-03-04 16:30", false},
		{"saturday", "2026-03-07 11:00", false},
		{"sunday", "2026-03-08 11:00", false},
		{"thanksgiving", "2026-11-26 11:00", false},
		{"juneteenth", "2026-06-19 11:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsMarketOpenAt("NYSE", nyTime(t, tt.at)); got != tt.want {
				t.Errorf("IsMarketOpenAt(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestUnknownExchangeDefaultsToNYSE(t *testing.T) {
	s := newTestService()

	if got := s.IsMarketOpenAt("UNKNOWN", nyTime(t, "2026-03-04 11:00")); !got {
		t.Error("unknown exchange should default to NYSE calendar")
	}
}

func TestPriceTTLAt(t *testing.T) {
	s := newTestService()

	if got := s.PriceTTLAt("NYSE", nyTime(t, "2026-03-04 11:00")); got != 15*time.Minute {
		t.Errorf("open market TTL = %v, want 15m", got)
	}
	if got := s.PriceTTLAt("NYSE", nyTime(t, "2026-03-04 20:00")); got != 24*time.Hour {
		t.Errorf("closed market TTL = %v, want 24h", got)
	}
}

func TestNextClose(t *testing.T) {
	s := newTestService()

	// Mid-session Wednesday: close is the same day at 16:00.
	got := s.NextClose("NYSE", nyTime(t, "2026-03-04 11:00"))
	want := nyTime(t, "2026-03-04 16:00")
	if !got.Equal(want) {
		t.Errorf("NextClose = %v, want %v", got, want)
	}

	// Friday evening: next close is Monday's.
	got = s.NextClose("NYSE", nyTime(t, "2026-03-06 18:00"))
	want = nyTime(t, "2026-03-09 16:00")
	if !got.Equal(want) {
		t.Errorf("NextClose over weekend = %v, want %v", got, want)
	}

	// Wednesday before Thanksgiving, after hours: skips the holiday to Friday.
	got = s.NextClose("NYSE", nyTime(t, "2026-11-25 18:00"))
	want = nyTime(t, "2026-11-27 16:00")
	if !got.Equal(want) {
		t.Errorf("NextClose over holiday = %v, want %v", got, want)
	}
}

func TestYahooExchangeAliases(t *testing.T) {
	s := newTestService()

	for _, alias := range []string{"NMS", "NYQ", "NasdaqGS"} {
		cal := s.GetCalendar(alias)
		if cal.TimezoneStr != "America/New_York" {
			t.Errorf("alias %s resolved to %s, want a US calendar", alias, cal.Name)
		}
	}
}
