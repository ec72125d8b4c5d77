package finnhub

// Profile is the /stock/profile2 response
type Profile struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	Exchange          string  `json:"exchange"`
	Currency          string  `json:"currency"`
	Country           string  `json:"country"`
	FinnhubIndustry   string  `json:"finnhubIndustry"`
	IPO               string  `json:"ipo"`
	Logo              string  `json:"logo"`
	WebURL            string  `json:"weburl"`
	MarketCap         float64 `json:"marketCapitalization"` // millions
	SharesOutstanding float64 `json:"shareOutstanding"`     // millions
}

// BasicFinancials is the /stock/metric response. Metric holds the flat
// TTM/annual metric map; absent metrics are simply missing keys.
type BasicFinancials struct {
	Symbol string                 `json:"symbol"`
	Metric map[string]interface{} `json:"metric"`
}

// MetricFloat returns a metric as a nullable float. Finnhub sends numbers
// as JSON numbers but occasionally nulls, so missing and null look the same.
func (b *BasicFinancials) MetricFloat(key string) *float64 {
	if b == nil || b.Metric == nil {
		return nil
	}
	if v, ok := b.Metric[key]; ok && v != nil {
		if f, ok := v.(float64); ok {
			value := f
			return &value
		}
	}
	return nil
}

// RecommendationTrend is one month of analyst recommendation counts
type RecommendationTrend struct {
	Symbol     string `json:"symbol"`
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// FinancialsReported is the /stock/financials-reported response
type FinancialsReported struct {
	Symbol string           `json:"symbol"`
	CIK    string           `json:"cik"`
	Data   []ReportedFiling `json:"data"`
}

// ReportedFiling is one filed report with its statement sections
type ReportedFiling struct {
	AccessNumber string `json:"accessNumber"`
	Symbol       string `json:"symbol"`
	CIK          string `json:"cik"`
	Year         int    `json:"year"`
	Quarter      int    `json:"quarter"`
	Form         string `json:"form"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	FiledDate    string `json:"filedDate"`
	Report       struct {
		IC []ReportItem `json:"ic"`
		BS []ReportItem `json:"bs"`
		CF []ReportItem `json:"cf"`
	} `json:"report"`
}

// ReportItem is one XBRL concept line within a statement section.
// Value is interface{} because Finnhub mixes numbers and strings ("N/A").
type ReportItem struct {
	Concept string      `json:"concept"`
	Label   string      `json:"label"`
	Unit    string      `json:"unit"`
	Value   interface{} `json:"value"`
}

// Float returns the item value as a nullable float
func (r ReportItem) Float() *float64 {
	if f, ok := r.Value.(float64); ok {
		value := f
		return &value
	}
	return nil
}

// EarningsReport is one quarterly EPS report from /stock/earnings
type EarningsReport struct {
	Symbol          string   `json:"symbol"`
	Period          string   `json:"period"`
	Actual          *float64 `json:"actual"`
	Estimate        *float64 `json:"estimate"`
	SurprisePercent *float64 `json:"surprisePercent"`
	Quarter         int      `json:"quarter"`
	Year            int      `json:"year"`
}

// News is one company news item
type News struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
