package forecast

import (
	"context"
	"time"

	"github.com/sartorproj/goarima/sarima"
	"github.com/sartorproj/goarima/timeseries"

	"lendlib/internal/errors"
)

const (
	weeklySeason = 52
	confidence   = 0.95
)

// SarimaTrainer fits a seasonal ARIMA model. Series long enough to
// support a full weekly seasonal cycle get order (1,1,1)(1,0,1)_52;
// shorter series drop the seasonal terms, and series below the
// non-seasonal minimum fall back to the linear trend fit so small
// training windows still produce a forecast instead of failing.
type SarimaTrainer struct{}

func (SarimaTrainer) Fit(ctx context.Context, series []Point) (Model, error) {
	if len(series) == 0 {
		return nil, errors.NewForecastError("empty training window", nil)
	}

	values := make([]float64, len(series))
	observed := make(map[time.Time]float64, len(series))
	for i, p := range series {
		values[i] = p.Y
		observed[p.DS] = p.Y
	}

	model := newModelForLength(len(series))
	if model == nil {
		fallback, err := LinearTrainer{}.Fit(ctx, series)
		if err != nil {
			return nil, err
		}
		return &sarimaModel{observed: observed, fallback: fallback}, nil
	}

	if err := model.Fit(timeseries.New(values)); err != nil {
		return nil, errors.NewForecastError("sarima fit failed", err)
	}

	return &sarimaModel{observed: observed, fitted: model}, nil
}

// newModelForLength picks the richest order the series length supports.
// The fit requires p+q+d + (sp+sd+sq)*m + 20 points.
func newModelForLength(n int) *sarima.Model {
	if n >= 3+2*weeklySeason+20 {
		return sarima.New(1, 1, 1, 1, 0, 1, weeklySeason)
	}
	if n >= 3+20 {
		return sarima.New(1, 1, 1, 0, 0, 0, 0)
	}
	return nil
}

type sarimaModel struct {
	observed map[time.Time]float64
	fitted   *sarima.Model
	fallback Model
}

// Predict evaluates the model over an ascending axis. Timestamps the
// model trained on reproduce their observed value with zero-width
// bounds; every other timestamp, mid-series gap weeks included,
// consumes the out-of-sample forecasts in order. A globally fit model
// can therefore be re-predicted over any gap's axis.
func (m *sarimaModel) Predict(axis []time.Time) ([]Prediction, error) {
	if m.fallback != nil {
		return m.fallback.Predict(axis)
	}

	steps := 0
	for _, ds := range axis {
		if _, ok := m.observed[ds]; !ok {
			steps++
		}
	}

	var forecasts, lower, upper []float64
	if steps > 0 {
		var err error
		forecasts, lower, upper, err = m.fitted.PredictWithInterval(steps, confidence)
		if err != nil {
			return nil, errors.NewForecastError("sarima predict failed", err)
		}
	}

	out := make([]Prediction, 0, len(axis))
	next := 0
	for _, ds := range axis {
		if y, ok := m.observed[ds]; ok {
			out = append(out, Prediction{DS: ds, YHat: y, YHatLower: y, YHatUpper: y})
			continue
		}
		out = append(out, Prediction{
			DS:        ds,
			YHat:      forecasts[next],
			YHatLower: lower[next],
			YHatUpper: upper[next],
		})
		next++
	}
	return out, nil
}
