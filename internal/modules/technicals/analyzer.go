// Package technicals scores one timeframe of OHLCV bars across six indicator
// families (trend, MACD, RSI, levels, volume, patterns) and fuses them into a
// single 0-100 score.
package technicals

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/pkg/formulas"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// minBars is the shortest series worth analyzing
const minBars = 20

// Indicator family weights in the per-timeframe composite
const (
	weightTrend    = 0.25
	weightMACD     = 0.20
	weightRSI      = 0.15
	weightLevels   = 0.15
	weightVolume   = 0.15
	weightPatterns = 0.10
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	rsiPeriod  = 14
)

// maDistanceBreakpoints score the percent distance between price and a
// moving average
var maDistanceBreakpoints = []scoring.Breakpoint{
	{Value: -15, Score: 10}, {Value: -8, Score: 25}, {Value: -3, Score: 40},
	{Value: 0, Score: 50}, {Value: 3, Score: 60}, {Value: 8, Score: 75},
	{Value: 15, Score: 90},
}

// Analyzer computes per-timeframe technical analyses
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer builds a technical analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "technicals").Logger()}
}

// Analyze scores a candle series. Returns nil when the series is too short
// to say anything useful.
func (a *Analyzer) Analyze(chart *domain.ChartData) *domain.TechnicalAnalysis {
	if chart == nil || len(chart.Bars) < minBars {
		return nil
	}

	opens := chart.Opens()
	highs := chart.Highs()
	lows := chart.Lows()
	closes := chart.Closes()
	volumes := chart.Volumes()
	price := closes[len(closes)-1]

	trend, smaOut, emaOut := a.scoreTrend(closes, price, chart.Timeframe)
	macd := a.scoreMACD(closes)
	rsi, rsiValue := a.scoreRSI(closes)
	levels, sr := a.scoreLevels(highs, lows, price)
	volume := a.scoreVolume(closes, volumes)
	hits, patterns := a.detectPatterns(opens, highs, lows, closes)

	overall := trend.Score*weightTrend +
		macd.Score*weightMACD +
		rsi.Score*weightRSI +
		levels.Score*weightLevels +
		volume.Score*weightVolume +
		patterns.Score*weightPatterns

	result := &domain.TechnicalAnalysis{
		Symbol:       chart.Symbol,
		Timeframe:    chart.Timeframe,
		Price:        round2(price),
		Trend:        trend,
		MACD:         macd,
		RSI:          rsi,
		Levels:       levels,
		Volume:       volume,
		Patterns:     patterns,
		RSIValue:     rsiValue,
		SMA:          smaOut,
		EMA:          emaOut,
		SR:           sr,
		PatternHits:  hits,
		Overall:      round1(overall),
		Signal:       scoring.Signal(overall),
		BarsAnalyzed: len(chart.Bars),
		AnalyzedAt:   time.Now().UTC(),
	}

	a.log.Debug().
		Str("symbol", chart.Symbol).
		Str("timeframe", string(chart.Timeframe)).
		Float64("score", result.Overall).
		Str("signal", result.Signal).
		Msg("technical analysis complete")

	return result
}

// trendPeriods returns the SMA and EMA windows for a timeframe
func trendPeriods(tf domain.Timeframe) (sma, ema []int) {
	switch tf {
	case domain.TimeframeHourly:
		return []int{20, 50, 120, 200}, []int{12, 26}
	case domain.TimeframeWeekly:
		return []int{10, 20, 50, 120, 200}, []int{12, 26}
	default:
		return []int{20, 50, 100, 120, 200}, []int{12, 26, 50}
	}
}

func (a *Analyzer) scoreTrend(closes []float64, price float64, tf domain.Timeframe) (domain.IndicatorScore, map[string]float64, map[string]float64) {
	smaPeriods, emaPeriods := trendPeriods(tf)
	smaOut := make(map[string]float64)
	emaOut := make(map[string]float64)

	var scores []float64
	above, total := 0, 0

	for _, period := range smaPeriods {
		value := formulas.SMA(closes, period)
		if value == nil {
			continue
		}
		smaOut[strconv.Itoa(period)] = round2(*value)
		scores = append(scores, maDistanceScore(price, *value))
		total++
		if price > *value {
			above++
		}
	}

	for _, period := range emaPeriods {
		value := formulas.EMA(closes, period)
		if value == nil {
			continue
		}
		emaOut[strconv.Itoa(period)] = round2(*value)
		scores = append(scores, maDistanceScore(price, *value))
		total++
		if price > *value {
			above++
		}
	}

	if crossScore, ok := goldenDeathScore(closes); ok {
		scores = append(scores, crossScore)
	}

	score := scoring.NeutralScore
	if len(scores) > 0 {
		score = formulas.Mean(scores)
	}

	return domain.IndicatorScore{
		Score:   round1(score),
		Signal:  directionFor(score),
		Details: fmt.Sprintf("price above %d of %d moving averages", above, total),
	}, smaOut, emaOut
}

func maDistanceScore(price, ma float64) float64 {
	if ma == 0 {
		return scoring.NeutralScore
	}
	pctDiff := (price - ma) / ma * 100
	return scoring.Interpolate(pctDiff, maDistanceBreakpoints)
}

// goldenDeathScore detects a golden or death cross between the 50 and 200
// bar SMAs, comparing against the state five bars back to flag fresh
// crossings. ok is false when the series is too short.
func goldenDeathScore(closes []float64) (score float64, ok bool) {
	n := len(closes)
	if n < 205 {
		return 0, false
	}

	sma50 := formulas.Mean(closes[n-50:])
	sma200 := formulas.Mean(closes[n-200:])
	prev50 := formulas.Mean(closes[n-55 : n-5])
	prev200 := formulas.Mean(closes[n-205 : n-5])

	if sma50 > sma200 {
		if prev50 <= prev200 {
			return 90, true // fresh golden cross
		}
		return 75, true
	}
	if prev50 >= prev200 {
		return 10, true // fresh death cross
	}
	return 25, true
}

func (a *Analyzer) scoreMACD(closes []float64) domain.IndicatorScore {
	result := formulas.CalculateMACD(closes, macdFast, macdSlow, macdSignal)
	if result == nil {
		return neutralIndicator("insufficient history")
	}
	line, signal, hist, ok := result.Last()
	if !ok {
		return neutralIndicator("insufficient history")
	}

	score := scoring.NeutralScore
	if line > signal {
		score += 15
	} else {
		score -= 15
	}

	prevLine, prevSignal, prevHist, prevOK := result.Prev()
	if prevOK {
		if math.Abs(hist) > math.Abs(prevHist) {
			if hist > 0 {
				score += 10
			} else {
				score -= 10
			}
		} else {
			if hist > 0 {
				score += 5
			} else {
				score -= 5
			}
		}
	}

	if line > 0 {
		score += 10
	} else {
		score -= 10
	}

	crossover := false
	if prevOK {
		prevDiff := prevLine - prevSignal
		currDiff := line - signal
		switch {
		case prevDiff <= 0 && currDiff > 0:
			score += 15
			crossover = true
		case prevDiff >= 0 && currDiff < 0:
			score -= 15
			crossover = true
		}
	}

	score = scoring.Clamp(score)
	details := fmt.Sprintf("line %.4f, signal %.4f, histogram %.4f", line, signal, hist)
	if crossover {
		details += ", recent crossover"
	}

	return domain.IndicatorScore{
		Score:   round1(score),
		Signal:  directionFor(score),
		Details: details,
	}
}

func (a *Analyzer) scoreRSI(closes []float64) (domain.IndicatorScore, *float64) {
	rsi := formulas.CalculateRSI(closes, rsiPeriod)
	if rsi == nil {
		return neutralIndicator("insufficient history"), nil
	}

	// RSI extremes read differently in an established uptrend: oversold
	// dips are buyable, overbought stretches less alarming.
	inUptrend := false
	if len(closes) >= 50 {
		inUptrend = closes[len(closes)-1] > formulas.Mean(closes[len(closes)-50:])
	}

	var score float64
	var signal string
	switch {
	case *rsi < 30:
		score, signal = pick(inUptrend, 85, 80), "oversold"
	case *rsi < 40:
		score, signal = pick(inUptrend, 70, 60), "neutral"
	case *rsi < 60:
		score, signal = pick(inUptrend, 55, 45), "neutral"
	case *rsi < 70:
		score, signal = pick(inUptrend, 45, 30), "neutral"
	case *rsi < 80:
		score, signal = pick(inUptrend, 35, 15), "overbought"
	default:
		score, signal = pick(inUptrend, 20, 5), "overbought"
	}

	value := round1(*rsi)
	return domain.IndicatorScore{
		Score:   score,
		Signal:  signal,
		Details: fmt.Sprintf("RSI(%d) %.1f", rsiPeriod, value),
	}, &value
}

func neutralIndicator(details string) domain.IndicatorScore {
	return domain.IndicatorScore{Score: scoring.NeutralScore, Signal: "neutral", Details: details}
}

func directionFor(score float64) string {
	switch {
	case score > 55:
		return "bullish"
	case score < 45:
		return "bearish"
	default:
		return "neutral"
	}
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
