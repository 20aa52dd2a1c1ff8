package store

import (
	"math"
	"strconv"

	"mark-price-dashboard/src/models"
	"mark-price-dashboard/src/utils"
)

// -----------------------------------------------------------------------------
// Derivation
// -----------------------------------------------------------------------------
//
// Each table is a pure projection of (snapshot, selection). Missing optional
// data degrades to an empty sequence, never an error; only malformed numeric
// input aborts a derivation cycle, leaving the previous tables in place.

// deriveAllLocked recomputes Table1..Table5 and the latest date point. Must
// be called with the lock held.
func (s *Store) deriveAllLocked() {
	table1, err := deriveTable1(s.snapshot, s.selection, s.tz)
	if err != nil {
		s.Logger.Error("Table1 derivation failed: %v", err)
		return
	}
	table2, err := deriveTable2(s.snapshot, s.selection)
	if err != nil {
		s.Logger.Error("Table2 derivation failed: %v", err)
		return
	}
	table3, err := deriveTable3(s.snapshot)
	if err != nil {
		s.Logger.Error("Table3 derivation failed: %v", err)
		return
	}
	table4, err := deriveTable4(s.snapshot)
	if err != nil {
		s.Logger.Error("Table4 derivation failed: %v", err)
		return
	}
	table5, err := deriveTable5(s.snapshot)
	if err != nil {
		s.Logger.Error("Table5 derivation failed: %v", err)
		return
	}
	latestDate, latestValue, err := deriveLatestDatePoint(s.snapshot)
	if err != nil {
		s.Logger.Error("Date point derivation failed: %v", err)
		return
	}

	// All five tables swap as a unit.
	s.table1 = table1
	s.table2 = table2
	s.table3 = table3
	s.table4 = table4
	s.table5 = table5
	s.latestDate = latestDate
	s.latestValue = latestValue
}

// -----------------------------------------------------------------------------
// Table1: single summary row for the selected month.
// -----------------------------------------------------------------------------

func deriveTable1(snap *models.MSnapshot, sel models.MSelection, tz int) ([]models.MTable1Row, error) {
	if snap == nil || sel.YearMonth == "" {
		return nil, nil
	}
	agg, ok := snap.OrderFormMonth.Get(sel.YearMonth)
	if !ok {
		return nil, nil
	}

	rate := agg.PerMonthS

	// Product-reduction of the secondary per-entry rate; the empty product
	// is the multiplicative identity.
	rate2 := 1.0
	for _, entry := range agg.Array {
		rate2 *= entry.PreS2
	}

	// Average rate of the longest trailing window, the last key by
	// insertion order. Missing lookups default to the neutral identity.
	rateAvg := 1.0
	if lastKey := snap.LastNMonth.LastKey(); lastKey != "" {
		if trailing, ok := snap.LastNMonth.Get(lastKey); ok {
			rateAvg = trailing.AvgMonth
		}
	}

	rateStr, err := utils.FormatFixed(rate, 4)
	if err != nil {
		return nil, err
	}
	rate2Str, err := utils.FormatFixed(rate2, 4)
	if err != nil {
		return nil, err
	}
	rateAvgStr, err := utils.FormatFixed(rateAvg, 4)
	if err != nil {
		return nil, err
	}
	leverage, err := utils.FormatFixed(snap.Lever, 0)
	if err != nil {
		return nil, err
	}

	key, err := utils.NowString(tz)
	if err != nil {
		key = sel.YearMonth
	}

	return []models.MTable1Row{{
		Key:      key,
		Month:    sel.YearMonth,
		Leverage: leverage,
		Rate:     rateStr,
		Rate2:    rate2Str,
		RateAvg:  rateAvgStr,
	}}, nil
}

// -----------------------------------------------------------------------------
// Table2: per-entry rows for the selected month.
// -----------------------------------------------------------------------------

func deriveTable2(snap *models.MSnapshot, sel models.MSelection) ([]models.MTable2Row, error) {
	if snap == nil || sel.YearMonth == "" {
		return nil, nil
	}
	agg, ok := snap.OrderFormMonth.Get(sel.YearMonth)
	if !ok {
		return nil, nil
	}

	// The previous entry of the first row is the prior month's last entry.
	var prevMonthLast *models.MMonthEntry
	if prior, ok := snap.OrderFormMonth.Get(utils.ShiftMonth(sel.YearMonth, -1)); ok {
		if n := len(prior.Array); n > 0 {
			prevMonthLast = &prior.Array[n-1]
		}
	}

	rows := make([]models.MTable2Row, 0, len(agg.Array))
	for i := range agg.Array {
		entry := &agg.Array[i]

		prev := prevMonthLast
		if i > 0 {
			prev = &agg.Array[i-1]
		}

		// Consecutive hedge rows collapse unless the full view is on.
		if !sel.ShowAll && prev != nil &&
			prev.Status == models.StatusHedge && entry.Status == models.StatusHedge {
			continue
		}

		row, err := buildTable2Row(entry)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

func buildTable2Row(entry *models.MMonthEntry) (models.MTable2Row, error) {
	var row models.MTable2Row

	price, err := utils.FormatFixed(entry.NowPrice, 1)
	if err != nil {
		return row, err
	}
	avg, err := utils.FormatFixed(entry.LongPrice, 1)
	if err != nil {
		return row, err
	}
	avgChg, err := formatPercent(entry.LongChg)
	if err != nil {
		return row, err
	}
	maxMinChg, err := formatPercent(entry.MaxMinChg)
	if err != nil {
		return row, err
	}
	rate, err := utils.FormatFixed(entry.PreS, 3)
	if err != nil {
		return row, err
	}
	rate2, err := utils.FormatFixed(entry.PreS2, 3)
	if err != nil {
		return row, err
	}
	if rate2 == rate {
		rate2 = ""
	}

	status2 := ""
	if entry.Status2 != entry.Status {
		status2 = utils.Capitalize(entry.Status2)
	}

	timeLabel := entry.Time
	if len(timeLabel) > 16 {
		timeLabel = timeLabel[:16]
	}

	row = models.MTable2Row{
		Key:       timeLabel,
		Time:      timeLabel,
		Price:     price,
		Avg:       avg,
		AvgChg:    avgChg,
		MaxMinChg: maxMinChg,
		Status:    utils.Capitalize(entry.Status),
		Status2:   status2,
		Rate:      rate,
		Rate2:     rate2,
	}
	return row, nil
}

// -----------------------------------------------------------------------------

// formatPercent renders a fractional change as "X.XX%", or "" when the field
// is absent or exactly zero.
func formatPercent(chg *float64) (string, error) {
	if chg == nil || *chg == 0 {
		return "", nil
	}
	formatted, err := utils.FormatFixed(*chg*100, 2)
	if err != nil {
		return "", err
	}
	return formatted + "%", nil
}

// -----------------------------------------------------------------------------
// Table3: trailing-N-months summaries in insertion order.
// -----------------------------------------------------------------------------

func deriveTable3(snap *models.MSnapshot) ([]models.MTable3Row, error) {
	if snap == nil || snap.LastNMonth.Len() == 0 {
		return nil, nil
	}

	rows := make([]models.MTable3Row, 0, snap.LastNMonth.Len())
	for _, key := range snap.LastNMonth.Keys() {
		trailing, _ := snap.LastNMonth.Get(key)

		rate, err := utils.FormatFixed(trailing.LastNMonthS, 2)
		if err != nil {
			return nil, err
		}
		avgMonth, err := utils.FormatFixed(trailing.AvgMonth, 3)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.MTable3Row{
			Key:        key,
			LastNMonth: key,
			Rate:       rate,
			AvgMonth:   avgMonth,
		})
	}
	return rows, nil
}

// -----------------------------------------------------------------------------
// Table4: yearly summaries, most recent year first.
// -----------------------------------------------------------------------------

func deriveTable4(snap *models.MSnapshot) ([]models.MTable4Row, error) {
	if snap == nil || snap.OrderFormYear.Len() == 0 {
		return nil, nil
	}

	keys := snap.OrderFormYear.Keys()
	rows := make([]models.MTable4Row, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		year := keys[i]
		agg, _ := snap.OrderFormYear.Get(year)

		rate, err := utils.FormatFixed(agg.PerYearS, 2)
		if err != nil {
			return nil, err
		}
		avgMonth, err := utils.FormatFixed(agg.AvgMonth, 3)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.MTable4Row{
			Key:      year,
			Year:     year,
			Rate:     rate,
			AvgMonth: avgMonth,
		})
	}
	return rows, nil
}

// -----------------------------------------------------------------------------
// Table5: minimum-over-N-months records.
// -----------------------------------------------------------------------------

func deriveTable5(snap *models.MSnapshot) ([]models.MTable5Row, error) {
	if snap == nil || len(snap.MinNMonth) == 0 {
		return nil, nil
	}

	rows := make([]models.MTable5Row, 0, len(snap.MinNMonth))
	for _, rec := range snap.MinNMonth {
		value, err := utils.FormatFixed(rec.Value, 1)
		if err != nil {
			return nil, err
		}

		ratio := ""
		if rec.NMonth > 0 {
			ratio, err = utils.FormatFixed(math.Pow(rec.Value, 1/float64(rec.NMonth)), 4)
			if err != nil {
				return nil, err
			}
		}

		rows = append(rows, models.MTable5Row{
			Key:    strconv.Itoa(rec.NMonth),
			NMonth: strconv.Itoa(rec.NMonth),
			Time:   utils.TruncateToMinute(rec.Time),
			Value:  value,
			Ratio:  ratio,
		})
	}
	return rows, nil
}

// -----------------------------------------------------------------------------
// Latest date point shown above the chart.
// -----------------------------------------------------------------------------

func deriveLatestDatePoint(snap *models.MSnapshot) (string, string, error) {
	if snap == nil || len(snap.DateValue) == 0 {
		return "", "", nil
	}
	last := snap.DateValue[len(snap.DateValue)-1]
	value, err := utils.FormatFixed(last.Value, 4)
	if err != nil {
		return "", "", err
	}
	return utils.TruncateToMinute(last.Date), value, nil
}
