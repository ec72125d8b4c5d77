package yahoo

// Quote represents the price and identity extracted from a chart meta block
type Quote struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	PreviousClose  float64 `json:"previous_close"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
	Currency       string  `json:"currency"`
	Exchange       string  `json:"exchange"`
	FullExchange   string  `json:"full_exchange,omitempty"`
	InstrumentType string  `json:"instrument_type"`
	LongName       string  `json:"long_name,omitempty"`
	MarketState    string  `json:"market_state,omitempty"`
}

// IsETF reports whether the instrument is an exchange-traded fund
func (q *Quote) IsETF() bool {
	return q.InstrumentType == "ETF"
}

// chartResponse is the v8 chart API envelope
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		FullExchangeName   string  `json:"fullExchangeName"`
		InstrumentType     string  `json:"instrumentType"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		LongName           string  `json:"longName"`
		MarketState        string  `json:"marketState"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}
