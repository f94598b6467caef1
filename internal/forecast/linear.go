package forecast

import (
	"context"
	"math"
	"time"

	"lendlib/internal/errors"
)

// LinearTrainer fits a deterministic least-squares trend line. It backs
// the "linear" backend and the small-sample fallback of the SARIMA
// backend, and doubles as the reproducible model in tests.
type LinearTrainer struct{}

// Fit computes the OLS slope and intercept over the series, measured in
// days since the first observation. Interval bounds are the point
// estimate plus or minus 1.96 residual standard deviations.
func (LinearTrainer) Fit(_ context.Context, series []Point) (Model, error) {
	if len(series) == 0 {
		return nil, errors.NewForecastError("empty training window", nil)
	}

	origin := series[0].DS
	n := float64(len(series))

	var sumX, sumY, sumXX, sumXY float64
	for _, p := range series {
		x := daysSince(origin, p.DS)
		sumX += x
		sumY += p.Y
		sumXX += x * x
		sumXY += x * p.Y
	}

	slope := 0.0
	denom := n*sumXX - sumX*sumX
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	var ssr float64
	for _, p := range series {
		resid := p.Y - (intercept + slope*daysSince(origin, p.DS))
		ssr += resid * resid
	}
	sigma := math.Sqrt(ssr / n)

	return &linearModel{origin: origin, slope: slope, intercept: intercept, sigma: sigma}, nil
}

type linearModel struct {
	origin    time.Time
	slope     float64
	intercept float64
	sigma     float64
}

func (m *linearModel) Predict(axis []time.Time) ([]Prediction, error) {
	out := make([]Prediction, 0, len(axis))
	for _, ds := range axis {
		yhat := m.intercept + m.slope*daysSince(m.origin, ds)
		out = append(out, Prediction{
			DS:        ds,
			YHat:      yhat,
			YHatLower: yhat - 1.96*m.sigma,
			YHatUpper: yhat + 1.96*m.sigma,
		})
	}
	return out, nil
}

func daysSince(origin, t time.Time) float64 {
	return t.Sub(origin).Hours() / 24
}
