// Package preprocessing は回帰診断のための列スケーリングを提供する
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/stackreg/core/model"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// StandardScaler は列ごとに平均を引き、母標準偏差で割るスケーラー。
//
// UnitLength を有効にすると各列をさらに √N で割るため、変換後の列は長さ1になり
// ZᵗZ がそのまま相関行列になる（Farrar–Glauber 検定の正規化）。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各列を割る値（母標準偏差、UnitLength の場合は √(N·分散)）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか
	WithMean bool

	// WithStd は標準偏差で割るかどうか
	WithStd bool

	// UnitLength は列を長さ1に正規化するかどうか
	UnitLength bool

	// RejectConstant が true の場合、分散0の列で Fit がエラーを返す。
	// false の場合はスケールを1として列をそのまま残す。
	RejectConstant bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewCorrelationScaler は Farrar–Glauber 用のスケーラーを作成する。
// z = (x - mean) / √(N·variance)。分散0の列はエラーになる。
func NewCorrelationScaler() *StandardScaler {
	return &StandardScaler{
		WithMean:       true,
		WithStd:        true,
		UnitLength:     true,
		RejectConstant: true,
	}
}

// Fit は訓練データから列ごとの平均とスケールを計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)

		if s.WithMean {
			s.Mean[j] = stat.Mean(col, nil)
		}

		s.Scale[j] = 1.0
		if !s.WithStd {
			continue
		}
		variance := stat.PopVariance(col, nil)
		if math.Abs(variance) < 1e-16 {
			if s.RejectConstant {
				s.SetFailed()
				return errors.NewValidationError("X", fmt.Sprintf("column %d has zero variance", j), variance)
			}
			continue
		}
		if s.UnitLength {
			s.Scale[j] = math.Sqrt(float64(r) * variance)
		} else {
			s.Scale[j] = math.Sqrt(variance)
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを変換する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform はFitとTransformを同時に実行する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は変換を元に戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, unit_length=%t)", s.WithMean, s.WithStd, s.UnitLength)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, unit_length=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.UnitLength, s.NFeatures)
}

// CorrelationMatrix は X の列の相関行列 R = ZᵗZ を返す。Z は NewCorrelationScaler で
// 正規化した X。
func CorrelationMatrix(X mat.Matrix) (*mat.Dense, error) {
	z, err := NewCorrelationScaler().FitTransform(X)
	if err != nil {
		return nil, err
	}
	_, c := z.Dims()
	r := mat.NewDense(c, c, nil)
	r.Mul(z.T(), z)
	return r, nil
}
