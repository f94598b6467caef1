package exporter

import (
	"strconv"

	"lendlib/internal/aggregate"
	"lendlib/internal/forecast"
	"lendlib/internal/gaps"
)

const dateFormat = "2006-01-02"

var (
	// GapHeaders label the gap list table.
	GapHeaders = []string{"start", "end", "days", "gap_label"}
	// CountHeaders label the periodic count tables.
	CountHeaders = []string{"date", "total"}
	// ForecastHeaders label the forecast tables.
	ForecastHeaders = []string{"ds", "yhat", "yhat_lower", "yhat_upper"}
)

// GapRecords renders gaps as table rows.
func GapRecords(gapList []gaps.Gap) [][]string {
	records := make([][]string, 0, len(gapList))
	for _, g := range gapList {
		records = append(records, []string{
			g.Start.Format(dateFormat),
			g.End.Format(dateFormat),
			strconv.Itoa(g.Days),
			g.Label(),
		})
	}
	return records
}

// CountRecords renders periodic counts as table rows.
func CountRecords(counts []aggregate.PeriodicCount) [][]string {
	records := make([][]string, 0, len(counts))
	for _, c := range counts {
		records = append(records, []string{
			c.Date.Format(dateFormat),
			strconv.Itoa(c.Total),
		})
	}
	return records
}

// ForecastRecords renders predictions as table rows.
func ForecastRecords(preds []forecast.Prediction) [][]string {
	records := make([][]string, 0, len(preds))
	for _, p := range preds {
		records = append(records, []string{
			p.DS.Format(dateFormat),
			formatFloat(p.YHat),
			formatFloat(p.YHatLower),
			formatFloat(p.YHatUpper),
		})
	}
	return records
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
