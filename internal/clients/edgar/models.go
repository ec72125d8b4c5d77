package edgar

// CompanyFacts is the companyfacts API response: every XBRL concept the
// company has reported, grouped by taxonomy and unit
type CompanyFacts struct {
	CIK        int64                      `json:"cik"`
	EntityName string                     `json:"entityName"`
	Facts      map[string]map[string]Fact `json:"facts"`
}

// Fact is one XBRL concept with its reported values per unit
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactEntry `json:"units"`
}

// FactEntry is one reported value of a concept
type FactEntry struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
	Accn  string  `json:"accn"`
}

// USGAAP returns the us-gaap facts map, or nil if the company has none
func (c *CompanyFacts) USGAAP() map[string]Fact {
	if c == nil {
		return nil
	}
	return c.Facts["us-gaap"]
}

// Submissions is the submissions API response
type Submissions struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds the columnar arrays of recent filings; index i across
// the arrays describes one filing
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}
