// Package forecast fits trend models to weekly count series and
// projects expected totals across coverage gaps.
package forecast

import (
	"context"
	"math"
	"time"
)

// Frequency is the step size of a forecast axis.
type Frequency string

const (
	FreqWeekly  Frequency = "W"
	FreqMonthly Frequency = "MS"
	FreqDaily   Frequency = "D"
)

// Point is one observation of the training series.
type Point struct {
	DS time.Time
	Y  float64
}

// Prediction is one forecast row: the axis timestamp, the predicted
// value, and its lower and upper bounds.
type Prediction struct {
	DS        time.Time
	YHat      float64
	YHatLower float64
	YHatUpper float64
}

// Model is a fitted trend model. Predict evaluates the model over an
// ascending time axis; axis points inside the training range reproduce
// the observed values, points past it are forecast.
type Model interface {
	Predict(axis []time.Time) ([]Prediction, error)
}

// Trainer fits a Model to a training series. Implementations must treat
// the series as read-only.
type Trainer interface {
	Fit(ctx context.Context, series []Point) (Model, error)
}

// FutureAxis extends the training series' time axis by the given number
// of steps at the given frequency: the historical timestamps followed
// by `periods` future steps past the last one.
func FutureAxis(history []Point, periods int, freq Frequency) []time.Time {
	axis := make([]time.Time, 0, len(history)+periods)
	for _, p := range history {
		axis = append(axis, p.DS)
	}
	if len(history) == 0 {
		return axis
	}

	cursor := history[len(history)-1].DS
	for i := 0; i < periods; i++ {
		cursor = step(cursor, freq)
		axis = append(axis, cursor)
	}
	return axis
}

func step(t time.Time, freq Frequency) time.Time {
	switch freq {
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	case FreqDaily:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 0, 7)
	}
}

// FuturePeriods returns how many steps past the training window the
// axis must extend to cover a gap of the given length, with headroom
// past the gap's far edge.
func FuturePeriods(gapDays int, freq Frequency) int {
	switch freq {
	case FreqMonthly:
		return int(math.Ceil(float64(gapDays)/30)) + 2
	case FreqDaily:
		return gapDays
	default:
		return int(math.Ceil(float64(gapDays)/7)) + 7
	}
}

// nearBuffer is the reporting margin kept on each side of a gap when
// slicing the near-gap window out of a full forecast.
func nearBuffer(freq Frequency) time.Duration {
	if freq == FreqMonthly {
		return 180 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}
