package domain

import (
	"fmt"
	"time"
)

// Timeframe identifies a chart resolution
type Timeframe string

const (
	TimeframeHourly Timeframe = "hourly"
	TimeframeDaily  Timeframe = "daily"
	TimeframeWeekly Timeframe = "weekly"
)

// Bar represents one OHLCV candle
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ChartData represents a candle series for one symbol and timeframe
type ChartData struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Bars      []Bar     `json:"bars"`
}

// Closes returns the close series
func (c *ChartData) Closes() []float64 {
	closes := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the volume series
func (c *ChartData) Volumes() []float64 {
	volumes := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		volumes[i] = b.Volume
	}
	return volumes
}

// Opens returns the open series
func (c *ChartData) Opens() []float64 {
	opens := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		opens[i] = b.Open
	}
	return opens
}

// Highs returns the high series
func (c *ChartData) Highs() []float64 {
	highs := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		highs[i] = b.High
	}
	return highs
}

// Lows returns the low series
func (c *ChartData) Lows() []float64 {
	lows := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		lows[i] = b.Low
	}
	return lows
}

// CompanyInfo represents basic company identity and classification
type CompanyInfo struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Industry   string  `json:"industry"`
	Exchange   string  `json:"exchange"`
	Currency   string  `json:"currency"`
	MarketCap  float64 `json:"market_cap"`
	IsETF      bool    `json:"is_etf"`
	WebURL     string  `json:"web_url,omitempty"`
	Logo       string  `json:"logo,omitempty"`
	SharesOut  float64 `json:"shares_outstanding,omitempty"`
	IPODate    string  `json:"ipo_date,omitempty"`
	Country    string  `json:"country,omitempty"`
	Identifier string  `json:"cik,omitempty"`
}

// Metrics holds the merged fundamental metric map for a symbol.
// Values are keyed by canonical metric name; missing metrics are absent,
// never zero.
type Metrics map[string]float64

// Get returns the metric as a nullable pointer
func (m Metrics) Get(key string) *float64 {
	if v, ok := m[key]; ok {
		value := v
		return &value
	}
	return nil
}

// Has reports whether the metric is present
func (m Metrics) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// MetricScore represents one scored fundamental metric
type MetricScore struct {
	Value       *float64 `json:"value"`
	Score       float64  `json:"score"`
	Grade       string   `json:"grade"`
	Description string   `json:"description"`
}

// PillarScore represents one fundamental pillar with its per-metric breakdown
type PillarScore struct {
	Score   float64                `json:"score"`
	Grade   string                 `json:"grade"`
	Weight  float64                `json:"weight"`
	Metrics map[string]MetricScore `json:"metrics"`
}

// FundamentalAnalysis is the full three-pillar fundamental result
type FundamentalAnalysis struct {
	Symbol     string      `json:"symbol"`
	Valuation  PillarScore `json:"valuation"`
	Growth     PillarScore `json:"growth"`
	Quality    PillarScore `json:"quality"`
	Overall    float64     `json:"overall_score"`
	Grade      string      `json:"grade"`
	Confidence float64     `json:"confidence"`
	DataGaps   []string    `json:"data_gaps"`
	IsBank     bool        `json:"is_bank"`
	AnalyzedAt time.Time   `json:"analyzed_at"`
}

// IndicatorScore represents one technical indicator's contribution
type IndicatorScore struct {
	Score   float64 `json:"score"`
	Signal  string  `json:"signal"`
	Details string  `json:"details,omitempty"`
}

// PriceLevel represents a support or resistance level with touch count
type PriceLevel struct {
	Price   float64 `json:"price"`
	Touches int     `json:"touches"`
}

// SupportResistance holds the clustered levels around the current price
type SupportResistance struct {
	Supports    []PriceLevel `json:"supports"`
	Resistances []PriceLevel `json:"resistances"`
}

// PatternHit represents one detected chart or candlestick pattern
type PatternHit struct {
	Name string  `json:"name"`
	Bias float64 `json:"bias"` // -1 bearish .. +1 bullish
}

// TechnicalAnalysis is one timeframe's technical result
type TechnicalAnalysis struct {
	Symbol         string             `json:"symbol"`
	Timeframe      Timeframe          `json:"timeframe"`
	Price          float64            `json:"price"`
	Trend          IndicatorScore     `json:"trend"`
	MACD           IndicatorScore     `json:"macd"`
	RSI            IndicatorScore     `json:"rsi"`
	Levels         IndicatorScore     `json:"levels"`
	Volume         IndicatorScore     `json:"volume"`
	Patterns       IndicatorScore     `json:"patterns"`
	RSIValue       *float64           `json:"rsi_value,omitempty"`
	SMA            map[string]float64 `json:"sma,omitempty"`
	EMA            map[string]float64 `json:"ema,omitempty"`
	SR             SupportResistance  `json:"support_resistance"`
	PatternHits    []PatternHit       `json:"pattern_hits,omitempty"`
	Overall        float64            `json:"overall_score"`
	Signal         string             `json:"signal"`
	BarsAnalyzed   int                `json:"bars_analyzed"`
	AnalyzedAt     time.Time          `json:"analyzed_at"`
}

// ScoreBreakdown shows how the composite was assembled
type ScoreBreakdown struct {
	Fundamental        float64 `json:"fundamental"`
	TechnicalConsensus float64 `json:"technical_consensus"`
	Daily              float64 `json:"daily"`
	Weekly             float64 `json:"weekly"`
	Hourly             float64 `json:"hourly"`
}

// SwingTradeAssessment is the entry/stop/target plan derived from levels
type SwingTradeAssessment struct {
	Viability  string   `json:"viability"` // Strong, Moderate, Weak, None
	EntryLow   float64  `json:"entry_low"`
	EntryHigh  float64  `json:"entry_high"`
	StopLoss   float64  `json:"stop_loss"`
	Target     float64  `json:"target"`
	RiskReward float64  `json:"risk_reward"`
	Notes      []string `json:"notes,omitempty"`
}

// Scorecard is the fused fundamental + technical verdict for one symbol
type Scorecard struct {
	Symbol       string                `json:"symbol"`
	Overall      float64               `json:"overall_score"`
	Grade        string                `json:"grade"`
	Signal       string                `json:"signal"`
	Breakdown    ScoreBreakdown        `json:"breakdown"`
	Fundamental  *FundamentalAnalysis  `json:"fundamental,omitempty"`
	Technicals   []*TechnicalAnalysis  `json:"technicals,omitempty"`
	Swing        *SwingTradeAssessment `json:"swing_trade,omitempty"`
	OverrideNote string                `json:"override_note,omitempty"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// QuarterlyIncome represents one standalone fiscal quarter
type QuarterlyIncome struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	FiscalYear      int       `json:"fiscal_year"`
	FiscalQuarter   int       `json:"fiscal_quarter"`
	Revenue         *float64  `json:"revenue"`
	NetIncome       *float64  `json:"net_income"`
	OperatingIncome *float64  `json:"operating_income"`
	Source          string    `json:"source"` // finnhub, edgar, yahoo
}

// Label renders the quarter as e.g. "Q4 2024"
func (q QuarterlyIncome) Label() string {
	return quarterLabel(q.FiscalQuarter, q.FiscalYear)
}

// QuarterlySeries is a de-accumulated quarterly income series, most recent quarter first
type QuarterlySeries struct {
	Symbol   string            `json:"symbol"`
	Quarters []QuarterlyIncome `json:"quarters"`
	Source   string            `json:"source"`
}

// CashFlowQuarter represents one quarter of cash flow statement data
type CashFlowQuarter struct {
	PeriodEnd    time.Time `json:"period_end"`
	OperatingCF  *float64  `json:"operating_cash_flow"`
	CapEx        *float64  `json:"capital_expenditure"`
	FreeCashFlow *float64  `json:"free_cash_flow"`
}

// EarningsPeriod represents one reported EPS period
type EarningsPeriod struct {
	Period   time.Time `json:"period"`
	Actual   *float64  `json:"actual"`
	Estimate *float64  `json:"estimate"`
	Surprise *float64  `json:"surprise_percent"`
}

// Recommendation represents one month's analyst recommendation counts
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
}

// NewsItem represents one company news headline
type NewsItem struct {
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
}

// CompanyOverview bundles identity, quote, and key metrics for the overview view
type CompanyOverview struct {
	Info          CompanyInfo `json:"info"`
	Price         float64     `json:"price"`
	Change        float64     `json:"change"`
	ChangePercent float64     `json:"change_percent"`
	Metrics       Metrics     `json:"metrics"`
	AsOf          time.Time   `json:"as_of"`
}

func quarterLabel(quarter, year int) string {
	if quarter < 1 || quarter > 4 {
		return ""
	}
	return fmt.Sprintf("Q%d %d", quarter, year)
}
