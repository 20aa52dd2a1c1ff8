package models

// -----------------------------------------------------------------------------
// Position status constants used by the analytics payload.
// -----------------------------------------------------------------------------

const (
	StatusShort = "SHORT"
	StatusLong  = "LONG"
	StatusHedge = "HEDGE"
)

// -----------------------------------------------------------------------------
// analyseData.json structures
// -----------------------------------------------------------------------------

// MMonthEntry is one per-order record inside a month aggregate.
type MMonthEntry struct {
	Time      string   `json:"time"`
	NowPrice  float64  `json:"nowPrice"`
	LongPrice float64  `json:"longPrice"`
	Status    string   `json:"status"`
	Status2   string   `json:"status2"`
	PreS      float64  `json:"preS"`
	PreS2     float64  `json:"preS2"`
	MaxMinChg *float64 `json:"maxMinChg"`
	LongChg   *float64 `json:"longChg"`
}

// MMonthAggregate is the value of one "YYYY-MM" key in orderFormMonth.
type MMonthAggregate struct {
	Array     []MMonthEntry `json:"array"`
	PerMonthS float64       `json:"perMonthS"`
}

// MYearAggregate is the value of one "YYYY" key in orderFormYear.
type MYearAggregate struct {
	PerYearS float64 `json:"perYearS"`
	AvgMonth float64 `json:"avgMonth"`
}

// MTrailingAggregate is the value of one trailing-N-months key in lastNMonth.
type MTrailingAggregate struct {
	LastNMonthS float64 `json:"lastNMonthS"`
	AvgMonth    float64 `json:"avgMonth"`
}

// MMinRecord is one minimum-over-N-months record from minNMonth.
type MMinRecord struct {
	NMonth int     `json:"nMonth"`
	Time   string  `json:"time"`
	Value  float64 `json:"value"`
}

// MDatePoint is one point of the (date, value) time series.
type MDatePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// MSnapshot is the assembled bulk analytics payload. A new snapshot replaces
// the previous one wholesale, there is no partial merge.
type MSnapshot struct {
	AnalyseTime string  `json:"analyseTime"`
	StartTime   string  `json:"startTime"`
	NowTime     string  `json:"nowTime"`
	NowPrice    float64 `json:"nowPrice"`
	ShortPrice  float64 `json:"shortPrice"`
	LongPrice   float64 `json:"longPrice"`
	Lever       float64 `json:"lever"`

	OrderFormMonth *OrderedMap[MMonthAggregate]    `json:"orderFormMonth"`
	OrderFormYear  *OrderedMap[MYearAggregate]     `json:"orderFormYear"`
	LastNMonth     *OrderedMap[MTrailingAggregate] `json:"lastNMonth"`
	MinNMonth      []MMinRecord                    `json:"minNMonth,omitempty"`
	DateValue      []MDatePoint                    `json:"dateValue,omitempty"`
	ErrorLog       []string                        `json:"errorLog"`
}

// -----------------------------------------------------------------------------

// MAnalyseData mirrors the wire layout of analyseData.json.
type MAnalyseData struct {
	AnalyseTime    string                          `json:"analyseTime"`
	StartTime      string                          `json:"startTime"`
	Lever          float64                         `json:"lever"`
	OrderFormMonth *OrderedMap[MMonthAggregate]    `json:"orderFormMonth"`
	OrderFormYear  *OrderedMap[MYearAggregate]     `json:"orderFormYear"`
	LastNMonth     *OrderedMap[MTrailingAggregate] `json:"lastNMonth"`
	MinNMonth      []MMinRecord                    `json:"minNMonth"`
}

// MPriceLog mirrors the wire layout of priceLog.json.
type MPriceLog struct {
	NowPrice   float64 `json:"nowPrice"`
	ShortPrice float64 `json:"shortPrice"`
	LongPrice  float64 `json:"longPrice"`
	NowTime    string  `json:"nowTime"`
}
