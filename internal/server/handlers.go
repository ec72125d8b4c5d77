package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/stock-scorecard/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "stock-scorecard",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleOverview returns the company overview for a ticker
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	overview, err := s.stocks.GetCompanyOverview(r.Context(), ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to build overview")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, overview)
}

// handleChart returns raw OHLCV bars for a ticker and timeframe
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	timeframe, err := parseTimeframe(chi.URLParam(r, "timeframe"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chart, err := s.stocks.GetChart(r.Context(), ticker, timeframe)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Str("timeframe", string(timeframe)).Msg("Failed to fetch chart")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, chart)
}

// handleFundamental returns the fundamental analysis for a ticker
func (s *Server) handleFundamental(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	analysis, err := s.stocks.GetFundamentalAnalysis(r.Context(), ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Fundamental analysis failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if analysis == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no fundamental data available for %s", ticker))
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// handleTechnical returns the technical analysis for a ticker and timeframe
func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	timeframe, err := parseTimeframe(chi.URLParam(r, "timeframe"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.stocks.GetTechnicalAnalysis(r.Context(), ticker, timeframe)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Str("timeframe", string(timeframe)).Msg("Technical analysis failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if analysis == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("not enough %s price history for %s", timeframe, ticker))
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// handleScorecard returns the fused scorecard for a ticker
func (s *Server) handleScorecard(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	card, err := s.stocks.GenerateScorecard(r.Context(), ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Scorecard generation failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if card == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("insufficient daily price history to score %s", ticker))
		return
	}

	s.writeJSON(w, http.StatusOK, card)
}

// handleEarnings returns the reconciled quarterly earnings view for a ticker
func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	view, err := s.stocks.GetEarningsView(r.Context(), ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Earnings view failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if view == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no quarterly earnings data for %s", ticker))
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

// handleEarningsHistory returns reported-vs-estimate EPS history
func (s *Server) handleEarningsHistory(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	limit := queryInt(r, "limit", 8)

	history, err := s.stocks.GetEarningsHistory(r.Context(), ticker, limit)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Earnings history failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"history": history,
	})
}

// handleNews returns recent company news
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	days := queryInt(r, "days", 7)
	maxItems := queryInt(r, "limit", 20)

	items, err := s.stocks.GetNews(r.Context(), ticker, days, maxItems)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("News fetch failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"items":  items,
	})
}

// handleRecommendations returns analyst recommendation trends
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	trends, err := s.stocks.GetRecommendations(r.Context(), ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Recommendations fetch failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"trends": trends,
	})
}

// handleMarketsStatus returns open/closed status for all tracked exchanges
func (s *Server) handleMarketsStatus(w http.ResponseWriter, r *http.Request) {
	if s.markets == nil {
		s.writeError(w, http.StatusServiceUnavailable, "market calendar not configured")
		return
	}

	statuses := s.markets.GetAllMarketStatuses()

	openCount := 0
	for _, status := range statuses {
		if status.IsOpen {
			openCount++
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets":      statuses,
		"open_count":   openCount,
		"closed_count": len(statuses) - openCount,
		"last_updated": time.Now().UTC().Format(time.RFC3339),
	})
}

// tickerParam extracts and normalizes the ticker route parameter
func tickerParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))
}

// parseTimeframe validates a timeframe route parameter
func parseTimeframe(raw string) (domain.Timeframe, error) {
	switch domain.Timeframe(strings.ToLower(raw)) {
	case domain.TimeframeHourly:
		return domain.TimeframeHourly, nil
	case domain.TimeframeDaily:
		return domain.TimeframeDaily, nil
	case domain.TimeframeWeekly:
		return domain.TimeframeWeekly, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q, expected hourly, daily or weekly", raw)
	}
}

// queryInt reads an integer query parameter with a default
func queryInt(r *http.Request, key string, defaultValue int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
