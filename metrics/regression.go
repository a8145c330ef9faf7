// Package metrics は回帰モデルの評価指標と残差統計を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// Residuals は残差 yTrue - yPred を返す
func Residuals(yTrue, yPred []float64) ([]float64, error) {
	if err := checkPair("Residuals", yTrue, yPred); err != nil {
		return nil, err
	}
	out := make([]float64, len(yTrue))
	floats.SubTo(out, yTrue, yPred)
	return out, nil
}

// RSS は残差平方和 Σ(yTrue - yPred)² を計算する
func RSS(yTrue, yPred []float64) (float64, error) {
	res, err := Residuals(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(res, res), nil
}

// TSS は全変動 Σ(y - mean(y))² を計算する
func TSS(y []float64) (float64, error) {
	if len(y) == 0 {
		return 0, errors.NewValueError("TSS", "empty vector")
	}
	mean := stat.Mean(y, nil)
	var tss float64
	for _, v := range y {
		d := v - mean
		tss += d * d
	}
	return tss, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred []float64) (float64, error) {
	rss, err := RSS(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "MSE")
	}
	return rss / float64(len(yTrue)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue)), nil
}

// R2Score は決定係数 R² = 1 - RSS/TSS を計算する。
// yTrue に分散がない場合（TSS = 0）はエラーを返す。
func R2Score(yTrue, yPred []float64) (float64, error) {
	rss, err := RSS(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "R2Score")
	}
	tss, _ := TSS(yTrue)
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// DurbinWatson は残差の Durbin–Watson 統計量 Σ(eᵢ - eᵢ₋₁)² / Σeᵢ² を計算する。
// 残差は観測順に並んでいる必要がある。残差エネルギーが0の場合は NaN を返し、
// UndefinedMetricWarning を発行する。
func DurbinWatson(residuals []float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewValueError("DurbinWatson", "empty residuals")
	}
	energy := floats.Dot(residuals, residuals)
	if energy == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("durbin_watson", "zero residual energy", math.NaN()))
		return math.NaN(), nil
	}
	var num float64
	for i := 1; i < len(residuals); i++ {
		d := residuals[i] - residuals[i-1]
		num += d * d
	}
	return num / energy, nil
}
