package models

// -----------------------------------------------------------------------------
// Derived table rows. Every field is pre-formatted for display, the view
// layer renders them verbatim.
// -----------------------------------------------------------------------------

// MTable1Row is the single summary row for the selected month.
type MTable1Row struct {
	Key      string `json:"key"`
	Month    string `json:"month"`
	Leverage string `json:"leverage"`
	Rate     string `json:"rate"`
	Rate2    string `json:"rate2"`
	RateAvg  string `json:"rateAvg"`
}

// MTable2Row is one per-order row of the selected month.
type MTable2Row struct {
	Key       string `json:"key"`
	Time      string `json:"time"`
	Price     string `json:"price"`
	Avg       string `json:"avg"`
	AvgChg    string `json:"avgChg"`
	MaxMinChg string `json:"maxMinChg"`
	Status    string `json:"status"`
	Status2   string `json:"status2"`
	Rate      string `json:"rate"`
	Rate2     string `json:"rate2"`
}

// MTable3Row is one trailing-N-months summary row.
type MTable3Row struct {
	Key        string `json:"key"`
	LastNMonth string `json:"lastNMonth"`
	Rate       string `json:"rate"`
	AvgMonth   string `json:"avgMonth"`
}

// MTable4Row is one yearly summary row.
type MTable4Row struct {
	Key      string `json:"key"`
	Year     string `json:"year"`
	Rate     string `json:"rate"`
	AvgMonth string `json:"avgMonth"`
}

// MTable5Row is one minimum-over-N-months row.
type MTable5Row struct {
	Key    string `json:"key"`
	NMonth string `json:"nMonth"`
	Time   string `json:"time"`
	Value  string `json:"value"`
	Ratio  string `json:"ratio"`
}

// -----------------------------------------------------------------------------

// MDerivedState is the unit pushed to subscribers: the full presentation
// state, replaced atomically on every mutation of its inputs.
type MDerivedState struct {
	Generation     int64       `json:"generation"`
	Loading        bool        `json:"loading"`
	Price          MPriceState `json:"price"`
	FormattedPrice string      `json:"formattedPrice"`
	AnalyseTime    string      `json:"analyseTime"`
	StartTime      string      `json:"startTime"`
	Selection      MSelection  `json:"selection"`

	Table1 []MTable1Row `json:"table1"`
	Table2 []MTable2Row `json:"table2"`
	Table3 []MTable3Row `json:"table3"`
	Table4 []MTable4Row `json:"table4"`
	Table5 []MTable5Row `json:"table5"`

	LatestDate  string       `json:"latestDate"`
	LatestValue string       `json:"latestValue"`
	DateValue   []MDatePoint `json:"dateValue,omitempty"`
	ErrorLog    []string     `json:"errorLog,omitempty"`
}
