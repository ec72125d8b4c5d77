// Package marketcal tracks exchange trading calendars. The scorecard uses it
// to pick cache lifetimes for quotes and charts: short while a market trades,
// long once it has closed.
package marketcal

import (
	"time"

	"github.com/rs/zerolog"
)

// TradingWindow represents a single trading period within a day
type TradingWindow struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// ExchangeCalendar defines trading hours and holidays for an exchange
type ExchangeCalendar struct {
	Code           string
	Name           string
	TimezoneStr    string
	Timezone       *time.Location
	TradingWindows []TradingWindow
	Holidays2026   []time.Time // Year-specific holidays
}

// Service provides market status and cache lifetime information
type Service struct {
	calendars map[string]*ExchangeCalendar
	log       zerolog.Logger

	openTTL   time.Duration
	closedTTL time.Duration
}

// New creates a market calendar service. openTTL and closedTTL bound how
// long price data may be served from cache while the market is open or
// closed respectively.
func New(log zerolog.Logger, openTTL, closedTTL time.Duration) *Service {
	service := &Service{
		calendars: make(map[string]*ExchangeCalendar),
		log:       log.With().Str("component", "market_calendar").Logger(),
		openTTL:   openTTL,
		closedTTL: closedTTL,
	}

	service.initializeCalendars()
	return service
}

// initializeCalendars sets up trading hours and holidays for the covered exchanges
func (s *Service) initializeCalendars() {
	// US Markets (NYSE, NASDAQ) - Regular session 9:30-16:00 ET
	nyLoc, _ := time.LoadLocation("America/New_York")
	usHolidays := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, nyLoc),   // New Year's Day
		time.Date(2026, 1, 19, 0, 0, 0, 0, nyLoc),  // MLK Day
		time.Date(2026, 2, 16, 0, 0, 0, 0, nyLoc),  // Presidents Day
		time.Date(2026, 4, 10, 0, 0, 0, 0, nyLoc),  // Good Friday
		time.Date(2026, 5, 25, 0, 0, 0, 0, nyLoc),  // Memorial Day
		time.Date(2026, 6, 19, 0, 0, 0, 0, nyLoc),  // Juneteenth
		time.Date(2026, 7, 3, 0, 0, 0, 0, nyLoc),   // Independence Day (observed)
		time.Date(2026, 9, 7, 0, 0, 0, 0, nyLoc),   // Labor Day
		time.Date(2026, 11, 26, 0, 0, 0, 0, nyLoc), // Thanksgiving
		time.Date(2026, 12, 25, 0, 0, 0, 0, nyLoc), // Christmas
	}

	s.calendars["NYSE"] = &ExchangeCalendar{
		Code:        "XNYS",
		Name:        "NYSE",
		TimezoneStr: "America/New_York",
		Timezone:    nyLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
		},
		Holidays2026: usHolidays,
	}

	s.calendars["NASDAQ"] = &ExchangeCalendar{
		Code:        "XNAS",
		Name:        "NASDAQ",
		TimezoneStr: "America/New_York",
		Timezone:    nyLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
		},
		Holidays2026: usHolidays,
	}

	// Yahoo reports US listings under these exchange codes
	s.calendars["NMS"] = s.calendars["NASDAQ"]
	s.calendars["NGM"] = s.calendars["NASDAQ"]
	s.calendars["NCM"] = s.calendars["NASDAQ"]
	s.calendars["NasdaqGS"] = s.calendars["NASDAQ"]
	s.calendars["NasdaqCM"] = s.calendars["NASDAQ"]
	s.calendars["NYQ"] = s.calendars["NYSE"]
	s.calendars["ASE"] = s.calendars["NYSE"]
	s.calendars["PCX"] = s.calendars["NYSE"]

	// Toronto Stock Exchange (TSX) - Regular session 9:30-16:00 ET
	torontoLoc, _ := time.LoadLocation("America/Toronto")
	s.calendars["TSX"] = &ExchangeCalendar{
		Code:        "XTSE",
		Name:        "TSX",
		TimezoneStr: "America/Toronto",
		Timezone:    torontoLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
		},
		Holidays2026: []time.Time{
			time.Date(2026, 1, 1, 0, 0, 0, 0, torontoLoc),   // New Year's Day
			time.Date(2026, 2, 16, 0, 0, 0, 0, torontoLoc),  // Family Day
			time.Date(2026, 4, 10, 0, 0, 0, 0, torontoLoc),  // Good Friday
			time.Date(2026, 5, 18, 0, 0, 0, 0, torontoLoc),  // Victoria Day
			time.Date(2026, 7, 1, 0, 0, 0, 0, torontoLoc),   // Canada Day
			time.Date(2026, 8, 3, 0, 0, 0, 0, torontoLoc),   // Civic Holiday
			time.Date(2026, 9, 7, 0, 0, 0, 0, torontoLoc),   // Labour Day
			time.Date(2026, 10, 12, 0, 0, 0, 0, torontoLoc), // Thanksgiving
			time.Date(2026, 12, 25, 0, 0, 0, 0, torontoLoc), // Christmas
			time.Date(2026, 12, 26, 0, 0, 0, 0, torontoLoc), // Boxing Day
		},
	}

	// London Stock Exchange - Regular session 8:00-16:30 GMT
	londonLoc, _ := time.LoadLocation("Europe/London")
	s.calendars["LSE"] = &ExchangeCalendar{
		Code:        "XLON",
		Name:        "LSE",
		TimezoneStr: "Europe/London",
		Timezone:    londonLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 8, OpenMinute: 0, CloseHour: 16, CloseMinute: 30},
		},
		Holidays2026: []time.Time{
			time.Date(2026, 1, 1, 0, 0, 0, 0, londonLoc),   // New Year's Day
			time.Date(2026, 4, 10, 0, 0, 0, 0, londonLoc),  // Good Friday
			time.Date(2026, 4, 13, 0, 0, 0, 0, londonLoc),  // Easter Monday
			time.Date(2026, 5, 4, 0, 0, 0, 0, londonLoc),   // Early May Bank Holiday
			time.Date(2026, 5, 25, 0, 0, 0, 0, londonLoc),  // Spring Bank Holiday
			time.Date(2026, 8, 31, 0, 0, 0, 0, londonLoc),  // Summer Bank Holiday
			time.Date(2026, 12, 25, 0, 0, 0, 0, londonLoc), // Christmas
			time.Date(2026, 12, 26, 0, 0, 0, 0, londonLoc), // Boxing Day
		},
	}

	// XETRA (Frankfurt) - Regular session 9:00-17:30 CET
	frankfurtLoc, _ := time.LoadLocation("Europe/Berlin")
	s.calendars["XETRA"] = &ExchangeCalendar{
		Code:        "XETR",
		Name:        "XETRA",
		TimezoneStr: "Europe/Berlin",
		Timezone:    frankfurtLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 0, CloseHour: 17, CloseMinute: 30},
		},
		Holidays2026: []time.Time{
			time.Date(2026, 1, 1, 0, 0, 0, 0, frankfurtLoc),   // New Year's Day
			time.Date(2026, 4, 10, 0, 0, 0, 0, frankfurtLoc),  // Good Friday
			time.Date(2026, 4, 13, 0, 0, 0, 0, frankfurtLoc),  // Easter Monday
			time.Date(2026, 5, 1, 0, 0, 0, 0, frankfurtLoc),   // Labor Day
			time.Date(2026, 12, 24, 0, 0, 0, 0, frankfurtLoc), // Christmas Eve
			time.Date(2026, 12, 25, 0, 0, 0, 0, frankfurtLoc), // Christmas
			time.Date(2026, 12, 31, 0, 0, 0, 0, frankfurtLoc), // New Year's Eve
		},
	}
	s.calendars["XETR"] = s.calendars["XETRA"]
	s.calendars["GER"] = s.calendars["XETRA"]

	s.log.Info().Int("calendars", len(s.calendars)).Msg("Market calendars initialized")
}

// GetCalendar returns the calendar for an exchange name
func (s *Service) GetCalendar(exchangeName string) *ExchangeCalendar {
	if cal, ok := s.calendars[exchangeName]; ok {
		return cal
	}

	// Default to NYSE if not found
	s.log.Debug().Str("exchange", exchangeName).Msg("Unknown exchange, defaulting to NYSE")
	return s.calendars["NYSE"]
}

// IsMarketOpen checks if a market is currently open for trading
func (s *Service) IsMarketOpen(exchangeName string) bool {
	return s.IsMarketOpenAt(exchangeName, time.Now())
}

// IsMarketOpenAt checks if a market is open at the given instant
func (s *Service) IsMarketOpenAt(exchangeName string, at time.Time) bool {
	cal := s.GetCalendar(exchangeName)
	now := at.In(cal.Timezone)

	if !isTradingDay(cal, now) {
		return false
	}

	currentMinutes := now.Hour()*60 + now.Minute()
	for _, window := range cal.TradingWindows {
		openMinutes := window.OpenHour*60 + window.OpenMinute
		closeMinutes := window.CloseHour*60 + window.CloseMinute

		if currentMinutes >= openMinutes && currentMinutes < closeMinutes {
			return true
		}
	}

	return false
}

// PriceTTL returns the cache lifetime for price data on the exchange:
// the short TTL while the market trades, the long one otherwise.
func (s *Service) PriceTTL(exchangeName string) time.Duration {
	return s.PriceTTLAt(exchangeName, time.Now())
}

// PriceTTLAt is PriceTTL evaluated at a given instant
func (s *Service) PriceTTLAt(exchangeName string, at time.Time) time.Duration {
	if s.IsMarketOpenAt(exchangeName, at) {
		return s.openTTL
	}
	return s.closedTTL
}

// NextClose returns the end of the current or next trading session.
// Cached bars fetched after a close stay valid until the following close.
func (s *Service) NextClose(exchangeName string, at time.Time) time.Time {
	cal := s.GetCalendar(exchangeName)
	now := at.In(cal.Timezone)

	// Scan forward day by day; two weeks covers any holiday cluster
	for i := 0; i < 14; i++ {
		day := now.AddDate(0, 0, i)
		if !isTradingDay(cal, day) {
			continue
		}

		last := cal.TradingWindows[len(cal.TradingWindows)-1]
		closeAt := time.Date(day.Year(), day.Month(), day.Day(), last.CloseHour, last.CloseMinute, 0, 0, cal.Timezone)
		if closeAt.After(now) {
			return closeAt
		}
	}

	// Unreachable with a sane calendar
	return now.Add(24 * time.Hour)
}

func isTradingDay(cal *ExchangeCalendar, day time.Time) bool {
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return false
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, cal.Timezone)
	for _, holiday := range cal.Holidays2026 {
		if holiday.Equal(date) {
			return false
		}
	}

	return true
}

// MarketStatus represents the status of a market
type MarketStatus struct {
	Exchange string `json:"exchange"`
	IsOpen   bool   `json:"is_open"`
	Timezone string `json:"timezone"`
}

// GetAllMarketStatuses returns status for all configured markets
func (s *Service) GetAllMarketStatuses() []MarketStatus {
	statuses := make([]MarketStatus, 0, len(s.calendars))
	seen := make(map[string]bool)

	for name, cal := range s.calendars {
		// Skip aliases (only report each unique calendar once)
		if seen[cal.Code] {
			continue
		}
		seen[cal.Code] = true

		statuses = append(statuses, MarketStatus{
			Exchange: name,
			IsOpen:   s.IsMarketOpen(name),
			Timezone: cal.TimezoneStr,
		})
	}

	return statuses
}
