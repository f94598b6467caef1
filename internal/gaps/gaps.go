// Package gaps detects uncovered date ranges between documented coverage
// intervals and filters time-series observations that fall inside them.
package gaps

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// MinGapDays is the default threshold separating gaps worth forecasting
// from short interruptions that are skipped.
const MinGapDays = 15

// Interval is a documented coverage range, inclusive on both ends.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Gap is an uncovered range between two consecutive coverage intervals,
// inclusive on both ends. Days is the span End minus Start in days.
type Gap struct {
	Start time.Time
	End   time.Time
	Days  int
}

// Label renders a gap as a human-readable range, e.g.
// "1930-06-01 to 1930-08-15 (75 days)".
func (g Gap) Label() string {
	return fmt.Sprintf("%s to %s (%d days)",
		g.Start.Format("2006-01-02"), g.End.Format("2006-01-02"), g.Days)
}

// Contains reports whether t falls inside the gap, boundaries included.
func (g Gap) Contains(t time.Time) bool {
	return !t.Before(g.Start) && !t.After(g.End)
}

// DetectResult partitions candidate gaps by size. Large gaps exceed the
// threshold and feed the forecaster; skipped gaps are short interruptions
// reported but not forecast.
type DetectResult struct {
	Large   []Gap
	Skipped []Gap
}

// Detector finds gaps between coverage intervals.
type Detector struct {
	logger  *slog.Logger
	minDays int
}

// NewDetector creates a detector with the given threshold; minDays <= 0
// falls back to MinGapDays.
func NewDetector(logger *slog.Logger, minDays int) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if minDays <= 0 {
		minDays = MinGapDays
	}
	return &Detector{logger: logger, minDays: minDays}
}

// Detect walks the coverage intervals in start order and emits the gap
// between each consecutive pair: the day after one interval ends through
// the day before the next begins. Gaps longer than the threshold are
// large; positive gaps at or under it are skipped; overlapping or
// touching intervals produce no gap.
func (d *Detector) Detect(ctx context.Context, coverage []Interval) DetectResult {
	sorted := make([]Interval, len(coverage))
	copy(sorted, coverage)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var result DetectResult
	for i := 0; i+1 < len(sorted); i++ {
		gapStart := sorted[i].End.AddDate(0, 0, 1)
		gapEnd := sorted[i+1].Start.AddDate(0, 0, -1)
		days := daysBetween(gapStart, gapEnd)
		if days <= 0 {
			continue
		}

		gap := Gap{Start: gapStart, End: gapEnd, Days: days}
		if days > d.minDays {
			result.Large = append(result.Large, gap)
		} else {
			result.Skipped = append(result.Skipped, gap)
			d.logger.InfoContext(ctx, "skipping short gap",
				slog.String("gap", gap.Label()),
				slog.Int("threshold_days", d.minDays))
		}
	}

	d.logger.InfoContext(ctx, "detected coverage gaps",
		slog.Int("intervals", len(sorted)),
		slog.Int("large", len(result.Large)),
		slog.Int("skipped", len(result.Skipped)))

	return result
}

// daysBetween counts whole days from a to b at day resolution.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
