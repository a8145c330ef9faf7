package ensemble

import (
	"math"

	"github.com/YuminosukeSato/stackreg/core"
	"github.com/YuminosukeSato/stackreg/metrics"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// ForecastPair is a held-out prediction next to the observed value.
type ForecastPair struct {
	Index     int     `json:"index"`
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
}

// Forecast predicts every held-out observation. rows[i] is the full raw feature
// observation i and target[i] its observed value.
func Forecast(best core.Predictor, rows [][]float64, target []float64) ([]ForecastPair, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("ensemble.Forecast", "empty data", errors.ErrEmptyData)
	}
	if len(rows) != len(target) {
		return nil, errors.NewDimensionError("ensemble.Forecast", len(rows), len(target), 0)
	}

	out := make([]ForecastPair, len(rows))
	for i, row := range rows {
		y, err := best.PredictFeatures(row)
		if err != nil {
			return nil, errors.Wrapf(err, "forecast row %d", i)
		}
		if err := errors.CheckScalar("ensemble.Forecast", y, i); err != nil {
			return nil, err
		}
		out[i] = ForecastPair{Index: i, Predicted: y, Actual: target[i]}
	}
	return out, nil
}

// Summary holds held-out accuracy metrics.
type Summary struct {
	N    int     `json:"n"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	// R2 is NaN when the held-out target has no variance.
	R2 float64 `json:"r2"`
}

// Summarize computes accuracy metrics over forecast pairs.
func Summarize(pairs []ForecastPair) (Summary, error) {
	actual := make([]float64, len(pairs))
	predicted := make([]float64, len(pairs))
	for i, p := range pairs {
		actual[i] = p.Actual
		predicted[i] = p.Predicted
	}

	mse, err := metrics.MSE(actual, predicted)
	if err != nil {
		return Summary{}, err
	}
	mae, err := metrics.MAE(actual, predicted)
	if err != nil {
		return Summary{}, err
	}
	r2, err := metrics.R2Score(actual, predicted)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "held-out target has no variance", math.NaN()))
		r2 = math.NaN()
	}
	return Summary{N: len(pairs), MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}
