// Package scorecard fuses the fundamental and per-timeframe technical
// analyses into one overall score, signal, and swing trade assessment.
package scorecard

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// Technical consensus weights across timeframes
const (
	weightDaily  = 0.50
	weightWeekly = 0.35
	weightHourly = 0.15
)

// Inputs collects the analyses the engine fuses. Daily is required;
// everything else degrades gracefully.
type Inputs struct {
	Fundamental *domain.FundamentalAnalysis
	Daily       *domain.TechnicalAnalysis
	Weekly      *domain.TechnicalAnalysis
	Hourly      *domain.TechnicalAnalysis
}

// Engine builds scorecards. It only reads the analyzers' outputs and knows
// nothing about how they were produced.
type Engine struct {
	log zerolog.Logger
}

// NewEngine builds a scorecard engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "scorecard").Logger()}
}

// Build fuses the analyses into a scorecard. Returns nil when no daily
// technical analysis is available; without it neither the consensus nor
// the swing assessment mean anything.
func (e *Engine) Build(symbol string, in Inputs) *domain.Scorecard {
	if in.Daily == nil {
		return nil
	}

	dailyScore := in.Daily.Overall
	weeklyScore := timeframeScore(in.Weekly)
	hourlyScore := timeframeScore(in.Hourly)
	consensus := dailyScore*weightDaily + weeklyScore*weightWeekly + hourlyScore*weightHourly

	// Fundamentals join the blend only when they carry real data. A zero
	// overall or zero confidence means "nothing measured", not "terrible
	// company"; ETFs and data-poor listings score on technicals alone.
	fundScore := scoring.NeutralScore
	fundUsable := false
	if in.Fundamental != nil {
		fundScore = in.Fundamental.Overall
		fundUsable = in.Fundamental.Confidence > 0 && in.Fundamental.Overall > 0
	}

	overall := consensus
	if fundUsable {
		overall = fundScore*0.5 + consensus*0.5
	}

	signal := scoring.Signal(overall)
	overrideNote := ""
	if fundUsable {
		signal, overrideNote = applyOverride(fundScore, consensus, signal)
	}

	var technicals []*domain.TechnicalAnalysis
	for _, tech := range []*domain.TechnicalAnalysis{in.Daily, in.Weekly, in.Hourly} {
		if tech != nil {
			technicals = append(technicals, tech)
		}
	}

	card := &domain.Scorecard{
		Symbol:  symbol,
		Overall: round1(overall),
		Grade:   scoring.Grade(overall),
		Signal:  signal,
		Breakdown: domain.ScoreBreakdown{
			Fundamental:        round1(fundScore),
			TechnicalConsensus: round1(consensus),
			Daily:              round1(dailyScore),
			Weekly:             round1(weeklyScore),
			Hourly:             round1(hourlyScore),
		},
		Fundamental:  in.Fundamental,
		Technicals:   technicals,
		Swing:        e.assessSwing(in.Daily, fundScore, fundUsable),
		OverrideNote: overrideNote,
		GeneratedAt:  time.Now().UTC(),
	}

	e.log.Info().
		Str("symbol", symbol).
		Float64("overall", card.Overall).
		Str("signal", card.Signal).
		Bool("override", overrideNote != "").
		Msg("scorecard generated")

	return card
}

// timeframeScore defaults a missing timeframe to neutral
func timeframeScore(tech *domain.TechnicalAnalysis) float64 {
	if tech == nil {
		return scoring.NeutralScore
	}
	return tech.Overall
}

// applyOverride downgrades a signal to HOLD when fundamentals and
// technicals strongly disagree in opposite directions.
func applyOverride(fundScore, consensus float64, signal string) (string, string) {
	if fundScore < 30 && consensus > 70 {
		if signal == "STRONG BUY" || signal == "BUY" {
			return "HOLD", "Weak fundamentals override bullish technicals"
		}
	}
	if fundScore > 70 && consensus < 30 {
		if signal == "STRONG SELL" || signal == "SELL" {
			return "HOLD", "Strong fundamentals override bearish technicals"
		}
	}
	return signal, ""
}

// assessSwing derives an entry zone, stop, and target from the daily
// support/resistance structure
func (e *Engine) assessSwing(daily *domain.TechnicalAnalysis, fundScore float64, fundUsable bool) *domain.SwingTradeAssessment {
	if len(daily.SR.Supports) == 0 || len(daily.SR.Resistances) == 0 {
		return &domain.SwingTradeAssessment{
			Viability: "None",
			Notes:     []string{"insufficient support/resistance structure"},
		}
	}

	support := daily.SR.Supports[0].Price
	resistance := daily.SR.Resistances[0].Price
	price := daily.Price

	stop := support * 0.98
	risk := price - stop
	if risk <= 0 {
		return &domain.SwingTradeAssessment{
			Viability: "None",
			Notes:     []string{"price already sits below the stop level"},
		}
	}
	rr := (resistance - price) / risk

	var viability string
	var notes []string
	switch {
	case rr >= 3:
		viability = "Strong"
		notes = append(notes, fmt.Sprintf("excellent risk/reward of %.1f:1", rr))
	case rr >= 2:
		viability = "Strong"
		notes = append(notes, fmt.Sprintf("good risk/reward of %.1f:1", rr))
	case rr >= 1.5:
		viability = "Moderate"
		notes = append(notes, fmt.Sprintf("acceptable risk/reward of %.1f:1", rr))
	case rr >= 1:
		viability = "Weak"
		notes = append(notes, fmt.Sprintf("marginal risk/reward of %.1f:1", rr))
	default:
		viability = "None"
		notes = append(notes, fmt.Sprintf("poor risk/reward of %.1f:1", rr))
	}

	if daily.RSIValue != nil {
		switch {
		case *daily.RSIValue < 35:
			notes = append(notes, "RSI oversold, favorable entry")
		case *daily.RSIValue > 65:
			notes = append(notes, "RSI elevated, wait for a pullback")
			if viability == "Strong" {
				viability = "Moderate"
			}
		}
	}

	if fundUsable {
		switch {
		case fundScore >= 70:
			notes = append(notes, "strong fundamental backing")
		case fundScore < 40:
			notes = append(notes, "weak fundamentals add risk")
			if viability == "Strong" {
				viability = "Moderate"
			}
		}
	}

	return &domain.SwingTradeAssessment{
		Viability:  viability,
		EntryLow:   round2(support * 0.995),
		EntryHigh:  round2(support * 1.02),
		StopLoss:   round2(stop),
		Target:     round2(resistance),
		RiskReward: round2(rr),
		Notes:      notes,
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
