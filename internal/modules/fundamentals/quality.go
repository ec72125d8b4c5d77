package fundamentals

import (
	"fmt"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

var roicBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 5}, {Value: 3, Score: 18}, {Value: 6, Score: 35},
	{Value: 8, Score: 48}, {Value: 10, Score: 58}, {Value: 12, Score: 68},
	{Value: 15, Score: 78}, {Value: 20, Score: 88}, {Value: 30, Score: 95},
}

var fcfYieldBreakpoints = []scoring.Breakpoint{
	{Value: -5, Score: 5}, {Value: 0, Score: 20}, {Value: 1, Score: 38},
	{Value: 2, Score: 50}, {Value: 3, Score: 60}, {Value: 4, Score: 67},
	{Value: 5, Score: 73}, {Value: 7, Score: 82}, {Value: 10, Score: 90},
	{Value: 15, Score: 95},
}

var debtToEquityBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 92}, {Value: 0.3, Score: 85}, {Value: 0.5, Score: 78},
	{Value: 0.8, Score: 68}, {Value: 1.0, Score: 60}, {Value: 1.5, Score: 50},
	{Value: 2.0, Score: 40}, {Value: 3.0, Score: 28}, {Value: 5.0, Score: 15},
}

var cashConversionBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 15}, {Value: 0.3, Score: 30}, {Value: 0.5, Score: 45},
	{Value: 0.7, Score: 58}, {Value: 0.9, Score: 68}, {Value: 1.1, Score: 80},
	{Value: 1.4, Score: 88}, {Value: 2.0, Score: 92},
}

var currentRatioBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 5}, {Value: 0.3, Score: 15}, {Value: 0.5, Score: 30},
	{Value: 0.7, Score: 42}, {Value: 0.9, Score: 53}, {Value: 1.0, Score: 58},
	{Value: 1.3, Score: 68}, {Value: 1.5, Score: 75}, {Value: 2.0, Score: 85},
	{Value: 3.0, Score: 88},
}

var interestCoverageBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 5}, {Value: 1, Score: 15}, {Value: 2, Score: 30},
	{Value: 3, Score: 40}, {Value: 5, Score: 55}, {Value: 8, Score: 65},
	{Value: 12, Score: 75}, {Value: 20, Score: 85}, {Value: 50, Score: 92},
	{Value: 100, Score: 95},
}

// Banks run on deposit leverage, so the standard table would punish every
// one of them
var bankDebtToEquityBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 92}, {Value: 1.5, Score: 85}, {Value: 3.0, Score: 68},
	{Value: 4.0, Score: 55}, {Value: 6.0, Score: 38}, {Value: 10.0, Score: 18},
}

var roeBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 5}, {Value: 3, Score: 20}, {Value: 7, Score: 42},
	{Value: 10, Score: 60}, {Value: 13, Score: 72}, {Value: 15, Score: 80},
	{Value: 20, Score: 90}, {Value: 25, Score: 95},
}

var roaBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 10}, {Value: 0.3, Score: 25}, {Value: 0.5, Score: 38},
	{Value: 0.8, Score: 55}, {Value: 1.0, Score: 65}, {Value: 1.3, Score: 76},
	{Value: 1.5, Score: 82}, {Value: 2.0, Score: 92}, {Value: 2.5, Score: 95},
}

// Payout sweet spot is 20-40%: shareholder returns without starving the
// balance sheet
var payoutBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 78}, {Value: 10, Score: 82}, {Value: 25, Score: 85},
	{Value: 40, Score: 72}, {Value: 50, Score: 62}, {Value: 60, Score: 50},
	{Value: 75, Score: 33}, {Value: 90, Score: 18}, {Value: 100, Score: 5},
}

var ocfGrowingBreakpoints = []scoring.Breakpoint{
	{Value: -50, Score: 25}, {Value: -20, Score: 35}, {Value: -5, Score: 48},
	{Value: 0, Score: 55}, {Value: 5, Score: 63}, {Value: 10, Score: 70},
	{Value: 20, Score: 80}, {Value: 50, Score: 90},
}

var ocfNegativeBreakpoints = []scoring.Breakpoint{
	{Value: -50, Score: 5}, {Value: -20, Score: 12}, {Value: 0, Score: 20},
	{Value: 50, Score: 30},
}

// scoreQuality builds the quality pillar, dispatching to the bank variant
// for financial-sector issuers
func scoreQuality(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, cashflows []domain.CashFlowQuarter, gaps *gapList) domain.PillarScore {
	if info.Category == CategoryBank {
		return scoreBankQuality(info, gaps)
	}
	return scoreStandardQuality(info, sectorBench, series, cashflows, gaps)
}

func scoreStandardQuality(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, cashflows []domain.CashFlowQuarter, gaps *gapList) domain.PillarScore {
	roic := scoreROIC(info, gaps)
	fcf := scoreFCFYield(info, cashflows, gaps)
	om := scoreOperatingMargin(info, sectorBench, gaps)
	de := scoreDebtToEquity(info, gaps)
	cc := scoreCashConversion(info, series, cashflows, gaps)
	ocf := scoreOCFTrend(cashflows, gaps)
	cr := scoreCurrentRatio(info, gaps)
	ic := scoreInterestCoverage(info, gaps)

	composite := scoring.WeightedAverage([]scoring.WeightedMetric{
		{Value: roic.Value, Score: roic.Score, Weight: 0.18},
		{Value: fcf.Value, Score: fcf.Score, Weight: 0.18},
		{Value: om.Value, Score: om.Score, Weight: 0.13},
		{Value: de.Value, Score: de.Score, Weight: 0.13},
		{Value: cc.Value, Score: cc.Score, Weight: 0.12},
		{Value: ocf.Value, Score: ocf.Score, Weight: 0.12},
		{Value: cr.Value, Score: cr.Score, Weight: 0.07},
		{Value: ic.Value, Score: ic.Score, Weight: 0.07},
	})

	return domain.PillarScore{
		Score:  round1(composite),
		Grade:  scoring.Grade(composite),
		Weight: 0.35,
		Metrics: map[string]domain.MetricScore{
			"roic":              roic,
			"fcf_yield":         fcf,
			"operating_margin":  om,
			"debt_to_equity":    de,
			"cash_conversion":   cc,
			"ocf_trend":         ocf,
			"current_ratio":     cr,
			"interest_coverage": ic,
		},
	}
}

func scoreBankQuality(info *Info, gaps *gapList) domain.PillarScore {
	roe := scoreROE(info, gaps)
	roa := scoreROA(info, gaps)
	de := scoreBankDebtToEquity(info, gaps)
	pr := scorePayoutRatio(info, gaps)

	composite := scoring.WeightedAverage([]scoring.WeightedMetric{
		{Value: roe.Value, Score: roe.Score, Weight: 0.35},
		{Value: roa.Value, Score: roa.Score, Weight: 0.25},
		{Value: de.Value, Score: de.Score, Weight: 0.20},
		{Value: pr.Value, Score: pr.Score, Weight: 0.20},
	})

	return domain.PillarScore{
		Score:  round1(composite),
		Grade:  scoring.Grade(composite),
		Weight: 0.35,
		Metrics: map[string]domain.MetricScore{
			"roe":            roe,
			"roa":            roa,
			"debt_to_equity": de,
			"payout_ratio":   pr,
		},
	}
}

func scoreROIC(info *Info, gaps *gapList) domain.MetricScore {
	if info.ROIC == nil {
		gaps.add("ROIC")
		return missing("Not available")
	}
	roic := *info.ROIC
	score := scoring.Interpolate(roic, roicBreakpoints)

	var desc string
	switch {
	case roic >= 15:
		desc = fmt.Sprintf("ROIC %.1f%%, Excellent capital returns", roic)
	case roic >= 10:
		desc = fmt.Sprintf("ROIC %.1f%%, Good capital returns", roic)
	case roic >= 6:
		desc = fmt.Sprintf("ROIC %.1f%%, Moderate capital returns", roic)
	default:
		desc = fmt.Sprintf("ROIC %.1f%%, Weak capital returns", roic)
	}
	return scored(roic, 2, score, desc)
}

func scoreFCFYield(info *Info, cashflows []domain.CashFlowQuarter, gaps *gapList) domain.MetricScore {
	var fcfYield *float64

	if info.FreeCashFlow != nil && info.MarketCap != nil && *info.MarketCap > 0 {
		y := *info.FreeCashFlow / *info.MarketCap * 100
		fcfYield = &y
	} else if info.MarketCap != nil && *info.MarketCap > 0 {
		// Trailing four standalone quarters from the cash flow history
		if ttm := trailingFCF(cashflows); ttm != nil {
			y := *ttm / *info.MarketCap * 100
			fcfYield = &y
		}
	}

	// EV/FCF approximation when no direct figure exists
	if fcfYield == nil && info.EVFcf != nil && *info.EVFcf > 0 {
		y := 1 / *info.EVFcf * 100
		fcfYield = &y
	}

	if fcfYield == nil {
		gaps.add("FCF Yield")
		return missing("Not available")
	}

	score := scoring.Interpolate(*fcfYield, fcfYieldBreakpoints)

	var desc string
	switch {
	case *fcfYield > 8:
		desc = fmt.Sprintf("FCF yield %.1f%%, Excellent cash generation", *fcfYield)
	case *fcfYield > 4:
		desc = fmt.Sprintf("FCF yield %.1f%%, Good cash generation", *fcfYield)
	case *fcfYield > 1:
		desc = fmt.Sprintf("FCF yield %.1f%%, Moderate cash generation", *fcfYield)
	case *fcfYield > 0:
		desc = fmt.Sprintf("FCF yield %.1f%%, Low but positive", *fcfYield)
	default:
		desc = fmt.Sprintf("FCF yield %.1f%%, Negative free cash flow", *fcfYield)
	}
	return scored(*fcfYield, 2, score, desc)
}

func scoreOperatingMargin(info *Info, sectorBench benchmarks.Benchmark, gaps *gapList) domain.MetricScore {
	if info.OperatingMargin == nil {
		gaps.add("Operating Margin")
		return missing("Not available")
	}
	pct := *info.OperatingMargin * 100
	benchmark := sectorBench.OperatingMargin

	var score float64
	if benchmark > 0 {
		score = scoring.Interpolate(pct/benchmark, relativeGrowthBreakpoints)
	} else {
		switch {
		case pct > 30:
			score = 90
		case pct > 20:
			score = 75
		case pct > 10:
			score = 60
		case pct > 0:
			score = 40
		default:
			score = 15
		}
	}

	desc := fmt.Sprintf("Operating margin %.1f%% (sector avg: %.0f%%)", pct, benchmark)
	return scored(pct, 1, score, desc)
}

func scoreDebtToEquity(info *Info, gaps *gapList) domain.MetricScore {
	de := normalizedDebtToEquity(info)
	if de == nil {
		gaps.add("Debt/Equity")
		return missing("Not available")
	}
	score := scoring.Interpolate(*de, debtToEquityBreakpoints)

	var desc string
	switch {
	case *de < 0.5:
		desc = fmt.Sprintf("D/E %.2f, Very low leverage", *de)
	case *de < 1.0:
		desc = fmt.Sprintf("D/E %.2f, Moderate leverage", *de)
	case *de < 2.0:
		desc = fmt.Sprintf("D/E %.2f, Elevated leverage", *de)
	default:
		desc = fmt.Sprintf("D/E %.2f, High leverage", *de)
	}
	return scored(*de, 2, score, desc)
}

// normalizedDebtToEquity rescales percent-shaped D/E figures; a ratio above
// 10 is almost certainly a percentage
func normalizedDebtToEquity(info *Info) *float64 {
	if info.DebtToEquity == nil {
		return nil
	}
	de := *info.DebtToEquity
	if de > 10 {
		de /= 100
	}
	return &de
}

func scoreCashConversion(info *Info, series *domain.QuarterlySeries, cashflows []domain.CashFlowQuarter, gaps *gapList) domain.MetricScore {
	fcf := info.FreeCashFlow
	if fcf == nil {
		fcf = trailingFCF(cashflows)
	}
	netIncome := trailingNetIncome(series)

	if fcf == nil || netIncome == nil {
		gaps.add("Cash Conversion")
		return missing("Not available")
	}

	switch {
	case *netIncome < 0 && *fcf > 0:
		return domain.MetricScore{Score: 80, Grade: scoring.Grade(80), Description: "Positive cash flow despite accounting loss"}
	case *netIncome < 0 && *fcf < 0:
		return domain.MetricScore{Score: 25, Grade: scoring.Grade(25), Description: "Negative earnings and cash flow"}
	case *netIncome == 0:
		gaps.add("Cash Conversion")
		return missing("Net income is zero")
	}

	ratio := *fcf / *netIncome
	score := scoring.Interpolate(ratio, cashConversionBreakpoints)

	var desc string
	switch {
	case ratio >= 1.0:
		desc = fmt.Sprintf("Cash conversion %.2f, Earnings fully backed by cash", ratio)
	case ratio >= 0.7:
		desc = fmt.Sprintf("Cash conversion %.2f, Solid cash backing", ratio)
	case ratio >= 0.4:
		desc = fmt.Sprintf("Cash conversion %.2f, Partial cash backing", ratio)
	default:
		desc = fmt.Sprintf("Cash conversion %.2f, Earnings poorly backed by cash", ratio)
	}
	return scored(ratio, 2, score, desc)
}

func scoreOCFTrend(cashflows []domain.CashFlowQuarter, gaps *gapList) domain.MetricScore {
	var ocfs []float64
	for _, q := range cashflows {
		if q.OperatingCF != nil {
			ocfs = append(ocfs, *q.OperatingCF)
		}
		if len(ocfs) == 3 {
			break
		}
	}
	if len(ocfs) < 2 {
		gaps.add("OCF Trend")
		return missing("Limited OCF data")
	}

	var growthPct float64
	if ocfs[1] != 0 {
		growthPct = (ocfs[0] - ocfs[1]) / abs(ocfs[1]) * 100
	} else if ocfs[0] > 0 {
		growthPct = 100
	} else {
		growthPct = -100
	}

	var score float64
	var desc string
	if ocfs[0] > 0 {
		score = scoring.Interpolate(growthPct, ocfGrowingBreakpoints)
		switch {
		case growthPct > 10:
			desc = fmt.Sprintf("OCF growing %+.0f%%, Strong and improving", growthPct)
		case growthPct > 0:
			desc = fmt.Sprintf("OCF growing %+.0f%%, Positive and stable", growthPct)
		default:
			desc = fmt.Sprintf("OCF declining %+.0f%%, Positive but weakening", growthPct)
		}
	} else {
		score = scoring.Interpolate(growthPct, ocfNegativeBreakpoints)
		desc = "Negative operating cash flow"
	}

	return scored(ocfs[0], 0, score, desc)
}

func scoreCurrentRatio(info *Info, gaps *gapList) domain.MetricScore {
	if info.CurrentRatio == nil {
		gaps.add("Current Ratio")
		return missing("Not available")
	}
	cr := *info.CurrentRatio
	score := scoring.Interpolate(cr, currentRatioBreakpoints)

	var desc string
	switch {
	case cr >= 2.0:
		desc = fmt.Sprintf("Current ratio %.2f, Strong liquidity", cr)
	case cr >= 1.0:
		desc = fmt.Sprintf("Current ratio %.2f, Adequate liquidity", cr)
	case cr >= 0.7:
		desc = fmt.Sprintf("Current ratio %.2f, Tight liquidity", cr)
	default:
		desc = fmt.Sprintf("Current ratio %.2f, Weak liquidity", cr)
	}
	return scored(cr, 2, score, desc)
}

func scoreInterestCoverage(info *Info, gaps *gapList) domain.MetricScore {
	if info.InterestCoverage == nil {
		gaps.add("Interest Coverage")
		return missing("Not available")
	}
	ic := *info.InterestCoverage
	score := scoring.Interpolate(ic, interestCoverageBreakpoints)

	var desc string
	switch {
	case ic >= 20:
		desc = fmt.Sprintf("Interest coverage %.1fx, Excellent debt serviceability", ic)
	case ic >= 8:
		desc = fmt.Sprintf("Interest coverage %.1fx, Comfortable", ic)
	case ic >= 3:
		desc = fmt.Sprintf("Interest coverage %.1fx, Adequate", ic)
	case ic >= 1:
		desc = fmt.Sprintf("Interest coverage %.1fx, Tight", ic)
	default:
		desc = fmt.Sprintf("Interest coverage %.1fx, Cannot cover interest", ic)
	}
	return scored(ic, 1, score, desc)
}

func scoreBankDebtToEquity(info *Info, gaps *gapList) domain.MetricScore {
	de := normalizedDebtToEquity(info)
	if de == nil {
		gaps.add("Debt/Equity")
		return missing("Not available")
	}
	score := scoring.Interpolate(*de, bankDebtToEquityBreakpoints)

	var desc string
	switch {
	case *de < 2:
		desc = fmt.Sprintf("D/E %.2f, Low leverage for a bank", *de)
	case *de < 4:
		desc = fmt.Sprintf("D/E %.2f, Normal bank leverage", *de)
	case *de < 6:
		desc = fmt.Sprintf("D/E %.2f, Elevated for a bank", *de)
	default:
		desc = fmt.Sprintf("D/E %.2f, High leverage even for a bank", *de)
	}
	return scored(*de, 2, score, desc)
}

func scoreROE(info *Info, gaps *gapList) domain.MetricScore {
	if info.ROE == nil {
		gaps.add("Return on Equity")
		return missing("Not available")
	}
	roe := *info.ROE
	score := scoring.Interpolate(roe, roeBreakpoints)

	var desc string
	switch {
	case roe >= 15:
		desc = fmt.Sprintf("ROE %.1f%%, Excellent return on equity", roe)
	case roe >= 10:
		desc = fmt.Sprintf("ROE %.1f%%, Good return on equity", roe)
	case roe >= 5:
		desc = fmt.Sprintf("ROE %.1f%%, Moderate return on equity", roe)
	default:
		desc = fmt.Sprintf("ROE %.1f%%, Weak return on equity", roe)
	}
	return scored(roe, 2, score, desc)
}

func scoreROA(info *Info, gaps *gapList) domain.MetricScore {
	if info.ROA == nil {
		gaps.add("Return on Assets")
		return missing("Not available")
	}
	roa := *info.ROA
	score := scoring.Interpolate(roa, roaBreakpoints)

	var desc string
	switch {
	case roa >= 1.5:
		desc = fmt.Sprintf("ROA %.2f%%, Excellent asset efficiency", roa)
	case roa >= 1.0:
		desc = fmt.Sprintf("ROA %.2f%%, Good asset efficiency", roa)
	case roa >= 0.5:
		desc = fmt.Sprintf("ROA %.2f%%, Moderate asset efficiency", roa)
	default:
		desc = fmt.Sprintf("ROA %.2f%%, Weak asset efficiency", roa)
	}
	return scored(roa, 2, score, desc)
}

func scorePayoutRatio(info *Info, gaps *gapList) domain.MetricScore {
	if info.PayoutRatio == nil {
		gaps.add("Payout Ratio")
		return missing("Not available")
	}
	pr := *info.PayoutRatio
	score := scoring.Interpolate(pr, payoutBreakpoints)

	var desc string
	switch {
	case pr < 30:
		desc = fmt.Sprintf("Payout %.0f%%, Conservative, retaining most earnings", pr)
	case pr < 50:
		desc = fmt.Sprintf("Payout %.0f%%, Balanced returns and retention", pr)
	case pr < 70:
		desc = fmt.Sprintf("Payout %.0f%%, Elevated payout", pr)
	default:
		desc = fmt.Sprintf("Payout %.0f%%, High payout, limited retained earnings", pr)
	}
	return scored(pr, 1, score, desc)
}

// trailingFCF sums free cash flow over up to four newest quarters
func trailingFCF(cashflows []domain.CashFlowQuarter) *float64 {
	total := 0.0
	count := 0
	for _, q := range cashflows {
		if q.FreeCashFlow != nil {
			total += *q.FreeCashFlow
			count++
		}
		if count == 4 {
			break
		}
	}
	if count == 0 {
		return nil
	}
	return &total
}

// trailingNetIncome sums net income over up to four newest quarters
func trailingNetIncome(series *domain.QuarterlySeries) *float64 {
	if series == nil {
		return nil
	}
	total := 0.0
	count := 0
	for _, q := range series.Quarters {
		if q.NetIncome != nil {
			total += *q.NetIncome
			count++
		}
		if count == 4 {
			break
		}
	}
	if count == 0 {
		return nil
	}
	return &total
}
