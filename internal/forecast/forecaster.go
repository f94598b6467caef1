package forecast

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"lendlib/internal/errors"
	"lendlib/internal/gaps"
)

// Training window policy for later gaps: once coverage problems move
// past 1936 the pre-1932 regime is structurally different, so training
// points before the regime cutoff are dropped.
var (
	regimeCutoff  = time.Date(1932, time.September, 27, 0, 0, 0, 0, time.UTC)
	lateGapsBegin = 1936
)

// TrainingMode selects whether a model is refit for every gap or fit
// once over the whole series and re-predicted per gap.
type TrainingMode string

const (
	TrainPerGap TrainingMode = "per-gap"
	TrainGlobal TrainingMode = "global"
)

// GrowthMode selects unbounded or bounded growth. Bounded growth clamps
// predictions into [0, cap] where cap is the training window's maximum
// observed total.
type GrowthMode string

const (
	GrowthLinear   GrowthMode = "linear"
	GrowthLogistic GrowthMode = "logistic"
)

// Options configures a Forecaster. The enumerated fields keep call
// sites self-documenting.
type Options struct {
	Trainer   Trainer
	Frequency Frequency
	Training  TrainingMode
	Growth    GrowthMode
	Parallel  bool
}

// GapForecast is the forecast produced for one gap: the predictions
// over the full extended axis and the slice near the gap itself.
type GapForecast struct {
	Gap     gaps.Gap
	Full    []Prediction
	NearGap []Prediction
}

// Forecaster projects count series across coverage gaps.
type Forecaster struct {
	logger *slog.Logger
	opts   Options
}

// New creates a forecaster. A nil trainer defaults to SARIMA; an empty
// frequency defaults to weekly.
func New(logger *slog.Logger, opts Options) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Trainer == nil {
		opts.Trainer = SarimaTrainer{}
	}
	if opts.Frequency == "" {
		opts.Frequency = FreqWeekly
	}
	if opts.Training == "" {
		opts.Training = TrainPerGap
	}
	if opts.Growth == "" {
		opts.Growth = GrowthLinear
	}
	return &Forecaster{logger: logger, opts: opts}
}

// TrainingWindow selects the series points strictly before the gap's
// start. For gaps starting in or after 1936 the points before the
// regime cutoff are dropped as well.
func TrainingWindow(series []Point, gap gaps.Gap) []Point {
	out := make([]Point, 0, len(series))
	dropEarly := gap.Start.Year() >= lateGapsBegin
	for _, p := range series {
		if !p.DS.Before(gap.Start) {
			continue
		}
		if dropEarly && p.DS.Before(regimeCutoff) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ForecastAll produces one forecast per gap, in gap order. In global
// mode a single model is fit over the whole series and re-predicted at
// each gap's extended axis; in per-gap mode the model is refit on each
// gap's training window. An empty training window fails that gap.
func (f *Forecaster) ForecastAll(ctx context.Context, series []Point, gapList []gaps.Gap) ([]GapForecast, error) {
	var global Model
	if f.opts.Training == TrainGlobal {
		if len(series) == 0 {
			return nil, errors.NewForecastError("empty training series", nil)
		}
		m, err := f.opts.Trainer.Fit(ctx, series)
		if err != nil {
			return nil, err
		}
		global = m
	}

	out := make([]GapForecast, len(gapList))

	if f.opts.Parallel && f.opts.Training == TrainPerGap {
		g, gctx := errgroup.WithContext(ctx)
		for i, gap := range gapList {
			g.Go(func() error {
				fc, err := f.forecastGap(gctx, series, gap, global)
				if err != nil {
					return err
				}
				out[i] = fc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}

	for i, gap := range gapList {
		fc, err := f.forecastGap(ctx, series, gap, global)
		if err != nil {
			return nil, err
		}
		out[i] = fc
	}
	return out, nil
}

// ForecastGap forecasts a single gap with the configured options.
func (f *Forecaster) ForecastGap(ctx context.Context, series []Point, gap gaps.Gap) (GapForecast, error) {
	return f.forecastGap(ctx, series, gap, nil)
}

func (f *Forecaster) forecastGap(ctx context.Context, series []Point, gap gaps.Gap, global Model) (GapForecast, error) {
	window := TrainingWindow(series, gap)
	if len(window) == 0 {
		return GapForecast{}, errors.NewForecastError(
			"no training data before gap "+gap.Label(), nil)
	}

	model := global
	if model == nil {
		m, err := f.opts.Trainer.Fit(ctx, window)
		if err != nil {
			return GapForecast{}, err
		}
		model = m
	}

	axis := FutureAxis(window, FuturePeriods(gap.Days, f.opts.Frequency), f.opts.Frequency)
	preds, err := model.Predict(axis)
	if err != nil {
		return GapForecast{}, err
	}

	if f.opts.Growth == GrowthLogistic {
		preds = clamp(preds, historicalMax(window))
	}

	fc := GapForecast{
		Gap:     gap,
		Full:    preds,
		NearGap: nearGap(preds, gap, f.opts.Frequency),
	}

	f.logger.InfoContext(ctx, "forecast gap",
		slog.String("gap", gap.Label()),
		slog.Int("training_points", len(window)),
		slog.Int("predictions", len(preds)),
		slog.Int("near_gap", len(fc.NearGap)))

	return fc, nil
}

// nearGap slices the predictions to the reporting window around the
// gap, exclusive on both widened edges.
func nearGap(preds []Prediction, gap gaps.Gap, freq Frequency) []Prediction {
	buffer := nearBuffer(freq)
	lo := gap.Start.Add(-buffer)
	hi := gap.End.Add(buffer)

	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if p.DS.After(lo) && p.DS.Before(hi) {
			out = append(out, p)
		}
	}
	return out
}

// clamp bounds predictions into [0, ceiling].
func clamp(preds []Prediction, ceiling float64) []Prediction {
	out := make([]Prediction, len(preds))
	for i, p := range preds {
		p.YHat = bound(p.YHat, ceiling)
		p.YHatLower = bound(p.YHatLower, ceiling)
		p.YHatUpper = bound(p.YHatUpper, ceiling)
		out[i] = p
	}
	return out
}

func bound(v, ceiling float64) float64 {
	if v < 0 {
		return 0
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

func historicalMax(series []Point) float64 {
	best := 0.0
	for _, p := range series {
		if p.Y > best {
			best = p.Y
		}
	}
	return best
}

// ConcatFull concatenates every gap's full-axis predictions in gap
// order, de-duplicating by timestamp with first-wins semantics.
func ConcatFull(forecasts []GapForecast) []Prediction {
	return concat(forecasts, func(fc GapForecast) []Prediction { return fc.Full })
}

// ConcatNear concatenates the near-gap windows in gap order; a
// timestamp shared by two adjacent gap windows appears once, keeping
// the earlier gap's prediction.
func ConcatNear(forecasts []GapForecast) []Prediction {
	return concat(forecasts, func(fc GapForecast) []Prediction { return fc.NearGap })
}

func concat(forecasts []GapForecast, pick func(GapForecast) []Prediction) []Prediction {
	seen := make(map[time.Time]bool)
	var out []Prediction
	for _, fc := range forecasts {
		for _, p := range pick(fc) {
			if seen[p.DS] {
				continue
			}
			seen[p.DS] = true
			out = append(out, p)
		}
	}
	return out
}
