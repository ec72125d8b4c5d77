// Package earnings reconciles quarterly financial statements from Finnhub
// and SEC EDGAR into standalone quarters.
//
// SEC 10-Q income statements report cumulative year-to-date figures: Q1 is
// standalone, Q2 covers six months, Q3 covers nine. The de-accumulator
// subtracts each prior cumulative period so every quarter stands alone.
package earnings

import (
	"sort"
	"time"

	"github.com/aristath/stock-scorecard/internal/clients/edgar"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/domain"
)

// Metric keys used across the de-accumulator
const (
	keyRevenue         = "revenue"
	keyNetIncome       = "net_income"
	keyOperatingIncome = "operating_income"
	keyOperatingCF     = "operating_cash_flow"
	keyCapEx           = "capital_expenditure"
)

// XBRL concept aliases, ordered by preference. Companies tag the same line
// item differently; the first concept present wins.
var revenueConcepts = []string{
	"us-gaap_Revenues",
	"us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax",
	"us-gaap_SalesRevenueNet",
	"us-gaap_InterestAndDividendIncomeOperating", // banks
}

var netIncomeConcepts = []string{
	"us-gaap_NetIncomeLoss",
	"us-gaap_ProfitLoss",
}

var operatingIncomeConcepts = []string{
	"us-gaap_OperatingIncomeLoss",
}

var operatingCFConcepts = []string{
	"us-gaap_NetCashProvidedByUsedInOperatingActivities",
	"us-gaap_NetCashProvidedByUsedInOperatingActivitiesContinuingOperations",
}

var capexConcepts = []string{
	"us-gaap_PaymentsToAcquirePropertyPlantAndEquipment",
	"us-gaap_PaymentsToAcquireProductiveAssets",
}

// incomeKeys and cashFlowKeys are the metric sets carried through
// de-accumulation for each statement type
var incomeKeys = []string{keyRevenue, keyNetIncome, keyOperatingIncome}
var cashFlowKeys = []string{keyOperatingCF, keyCapEx}

// metricRow is one reported period with its extracted metrics
type metricRow struct {
	start    time.Time
	end      time.Time
	hasStart bool
	values   map[string]float64
}

func (r metricRow) days() int {
	if !r.hasStart {
		return 0
	}
	return int(r.end.Sub(r.start).Hours() / 24)
}

// ParseFinnhubQuarterly converts Finnhub financials-reported filings into
// standalone quarterly income data, de-accumulating cumulative YTD periods
func ParseFinnhubQuarterly(filings []finnhub.ReportedFiling) []domain.QuarterlyIncome {
	rows := finnhubRows(filings, map[string][]string{
		keyRevenue:         revenueConcepts,
		keyNetIncome:       netIncomeConcepts,
		keyOperatingIncome: operatingIncomeConcepts,
	})

	// Periods with neither revenue nor net income carry no signal
	filtered := rows[:0]
	for _, row := range rows {
		if _, hasRev := row.values[keyRevenue]; hasRev {
			filtered = append(filtered, row)
			continue
		}
		if _, hasNI := row.values[keyNetIncome]; hasNI {
			filtered = append(filtered, row)
		}
	}

	quarters := deaccumulate(filtered, incomeKeys)
	return toQuarterlyIncome(quarters, "finnhub")
}

// ParseFinnhubCashFlow extracts standalone quarterly cash flow data from the
// same filings, using the cash flow statement sections
func ParseFinnhubCashFlow(filings []finnhub.ReportedFiling) []domain.CashFlowQuarter {
	rows := finnhubRows(filings, map[string][]string{
		keyOperatingCF: operatingCFConcepts,
		keyCapEx:       capexConcepts,
	})

	filtered := rows[:0]
	for _, row := range rows {
		if _, ok := row.values[keyOperatingCF]; ok {
			filtered = append(filtered, row)
		}
	}

	quarters := deaccumulate(filtered, cashFlowKeys)
	return toCashFlowQuarters(quarters)
}

// finnhubRows flattens each filing's statement sections and extracts the
// requested metrics via first-match concept lookup
func finnhubRows(filings []finnhub.ReportedFiling, conceptSets map[string][]string) []metricRow {
	var rows []metricRow

	for _, filing := range filings {
		end, ok := parseDate(filing.EndDate)
		if !ok {
			continue
		}
		start, hasStart := parseDate(filing.StartDate)

		flat := make(map[string]float64)
		for _, section := range [][]finnhub.ReportItem{filing.Report.IC, filing.Report.BS, filing.Report.CF} {
			for _, item := range section {
				if item.Concept == "" {
					continue
				}
				if v := item.Float(); v != nil {
					flat[item.Concept] = *v
				}
			}
		}

		values := make(map[string]float64)
		for key, concepts := range conceptSets {
			if v, ok := firstMatch(flat, concepts); ok {
				values[key] = v
			}
		}
		if len(values) == 0 {
			continue
		}

		rows = append(rows, metricRow{start: start, end: end, hasStart: hasStart, values: values})
	}

	return rows
}

// deaccumulate turns a mix of standalone and cumulative YTD rows into
// standalone quarters keyed by period end date.
//
// A row is standalone when it has no start date or spans roughly 90 days.
// Cumulative rows share their fiscal-year start date; within each group,
// sorted by end date, each row minus its predecessor yields one quarter.
// The first cumulative row subtracts the standalone Q1 with the same start
// date when one exists, otherwise it is taken as-is.
func deaccumulate(rows []metricRow, keys []string) map[string]metricRow {
	var standalone []metricRow
	groups := make(map[string][]metricRow)

	for _, row := range rows {
		days := row.days()
		if days <= 0 || (days >= 85 && days <= 100) {
			standalone = append(standalone, row)
			continue
		}
		startKey := row.start.Format("2006-01-02")
		groups[startKey] = append(groups[startKey], row)
	}

	result := make(map[string]metricRow)
	for _, row := range standalone {
		result[row.end.Format("2006-01-02")] = row
	}

	for fyStart, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].end.Before(group[j].end) })

		for i, row := range group {
			var prior *metricRow
			if i == 0 {
				for s := range standalone {
					if standalone[s].hasStart && standalone[s].start.Format("2006-01-02") == fyStart {
						prior = &standalone[s]
						break
					}
				}
				if prior == nil {
					// No standalone Q1 captured; the cumulative row is
					// likely Q1 itself with an off date range
					result[row.end.Format("2006-01-02")] = row
					continue
				}
			} else {
				prior = &group[i-1]
			}

			diff := metricRow{start: row.start, end: row.end, hasStart: row.hasStart, values: make(map[string]float64)}
			for _, key := range keys {
				cum, hasCum := row.values[key]
				prev, hasPrev := prior.values[key]
				if hasCum && hasPrev {
					diff.values[key] = cum - prev
				}
			}
			if len(diff.values) > 0 {
				result[row.end.Format("2006-01-02")] = diff
			}
		}
	}

	return result
}

// ParseEdgarQuarterly converts EDGAR company facts into standalone quarterly
// income data. EDGAR entries carry explicit period spans, so cumulative
// aggregates are filtered by duration instead of de-accumulated.
func ParseEdgarQuarterly(facts *edgar.CompanyFacts) []domain.QuarterlyIncome {
	gaap := facts.USGAAP()
	if gaap == nil {
		return nil
	}

	periods := make(map[string]map[string]float64)

	extract := func(concepts []string, key string) {
		for _, concept := range concepts {
			// EDGAR concepts lack the us-gaap_ prefix
			clean := trimPrefix(concept)
			fact, ok := gaap[clean]
			if !ok {
				continue
			}
			entries := fact.Units["USD"]
			if len(entries) == 0 {
				continue
			}

			// Keep the latest filing per period end date
			type dated struct {
				val   float64
				filed string
			}
			best := make(map[string]dated)
			for _, entry := range entries {
				if entry.Form != "10-Q" && entry.Form != "10-Q/A" {
					continue
				}
				if entry.End == "" {
					continue
				}
				if entry.Start != "" {
					start, sok := parseDate(entry.Start)
					end, eok := parseDate(entry.End)
					if sok && eok && int(end.Sub(start).Hours()/24) > 120 {
						continue // cumulative YTD aggregate
					}
				}
				if prev, ok := best[entry.End]; !ok || entry.Filed > prev.filed {
					best[entry.End] = dated{val: entry.Val, filed: entry.Filed}
				}
			}

			for end, d := range best {
				if periods[end] == nil {
					periods[end] = make(map[string]float64)
				}
				if _, exists := periods[end][key]; !exists {
					periods[end][key] = d.val
				}
			}
		}
	}

	extract(revenueConcepts, keyRevenue)
	extract(netIncomeConcepts, keyNetIncome)
	extract(operatingIncomeConcepts, keyOperatingIncome)

	result := make(map[string]metricRow)
	for end, values := range periods {
		_, hasRev := values[keyRevenue]
		_, hasNI := values[keyNetIncome]
		if !hasRev && !hasNI {
			continue
		}
		endDate, ok := parseDate(end)
		if !ok {
			continue
		}
		result[end] = metricRow{end: endDate, values: values}
	}

	return toQuarterlyIncome(result, "edgar")
}

// toQuarterlyIncome converts keyed rows to a slice sorted newest first
func toQuarterlyIncome(rows map[string]metricRow, source string) []domain.QuarterlyIncome {
	quarters := make([]domain.QuarterlyIncome, 0, len(rows))
	for _, row := range rows {
		quarter, year := calendarQuarter(row.end)
		q := domain.QuarterlyIncome{
			PeriodStart:   row.start,
			PeriodEnd:     row.end,
			FiscalYear:    year,
			FiscalQuarter: quarter,
			Source:        source,
		}
		if v, ok := row.values[keyRevenue]; ok {
			q.Revenue = ptr(v)
		}
		if v, ok := row.values[keyNetIncome]; ok {
			q.NetIncome = ptr(v)
		}
		if v, ok := row.values[keyOperatingIncome]; ok {
			q.OperatingIncome = ptr(v)
		}
		quarters = append(quarters, q)
	}

	sort.Slice(quarters, func(i, j int) bool { return quarters[i].PeriodEnd.After(quarters[j].PeriodEnd) })
	return quarters
}

func toCashFlowQuarters(rows map[string]metricRow) []domain.CashFlowQuarter {
	quarters := make([]domain.CashFlowQuarter, 0, len(rows))
	for _, row := range rows {
		q := domain.CashFlowQuarter{PeriodEnd: row.end}
		if v, ok := row.values[keyOperatingCF]; ok {
			q.OperatingCF = ptr(v)
		}
		if v, ok := row.values[keyCapEx]; ok {
			q.CapEx = ptr(v)
		}
		if q.OperatingCF != nil && q.CapEx != nil {
			q.FreeCashFlow = ptr(*q.OperatingCF - *q.CapEx)
		}
		quarters = append(quarters, q)
	}

	sort.Slice(quarters, func(i, j int) bool { return quarters[i].PeriodEnd.After(quarters[j].PeriodEnd) })
	return quarters
}

func firstMatch(flat map[string]float64, concepts []string) (float64, bool) {
	for _, concept := range concepts {
		if v, ok := flat[concept]; ok {
			return v, true
		}
	}
	return 0, false
}

// calendarQuarter maps a period end date to its calendar quarter
func calendarQuarter(end time.Time) (quarter, year int) {
	switch {
	case end.Month() <= 3:
		return 1, end.Year()
	case end.Month() <= 6:
		return 2, end.Year()
	case end.Month() <= 9:
		return 3, end.Year()
	default:
		return 4, end.Year()
	}
}

func parseDate(s string) (time.Time, bool) {
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func trimPrefix(concept string) string {
	const prefix = "us-gaap_"
	if len(concept) > len(prefix) && concept[:len(prefix)] == prefix {
		return concept[len(prefix):]
	}
	return concept
}

func ptr(v float64) *float64 {
	return &v
}
