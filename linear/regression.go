// Package linear は最小二乗法による回帰モデルと、その残差診断を提供する。
//
// RegressionModel は設計行列（列0は切片の1）と目的変数から作られ、係数と各診断値を
// 初回の呼び出し時に計算してキャッシュする。入力は不変なので、一度計算した値は
// 二度と計算し直さない。
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/stackreg/core/matrix"
	"github.com/YuminosukeSato/stackreg/core/model"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
)

// RegressionModel は変換付き説明変数による線形回帰モデル
type RegressionModel struct {
	model.BaseEstimator

	design     *matrix.Matrix // 未変換の設計行列、列0は切片
	target     []float64
	transform  Transform
	subset     []int
	thresholds Thresholds
	id         ModelID
	logger     log.Logger

	transformed    model.Memo[*matrix.Matrix]
	coefficients   model.Memo[[]float64]
	predictions    model.Memo[[]float64]
	rSquare        model.Memo[float64]
	durbinWatson   model.Memo[float64]
	goldfeldQuandt model.Memo[float64]
	farrarGlauber  model.Memo[float64]
}

// NewRegressionModel は新しい回帰モデルを作成する。
//
// design は N×(k+1) の設計行列で、列0はすべて1でなければならない。target は長さ N。
// transform は列0以外のすべてのセルに適用される。
func NewRegressionModel(design *matrix.Matrix, target []float64, transform Transform, opts ...Option) (*RegressionModel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if design == nil {
		return nil, errors.NewModelError("NewRegressionModel", "empty data", errors.ErrEmptyData)
	}
	rows, cols := design.Size()
	if rows == 0 {
		return nil, errors.NewModelError("NewRegressionModel", "empty data", errors.ErrEmptyData)
	}
	if len(target) != rows {
		return nil, errors.NewDimensionError("NewRegressionModel", rows, len(target), 0)
	}
	for i, v := range design.Column(0) {
		if v != 1 {
			return nil, errors.NewValueError("NewRegressionModel",
				fmt.Sprintf("column 0 must be the intercept column of ones, row %d is %v", i, v))
		}
	}
	if err := errors.CheckNumericalStability("NewRegressionModel", target); err != nil {
		return nil, err
	}
	if err := o.thresholds.Validate(); err != nil {
		return nil, err
	}

	subset := o.subset
	if subset == nil {
		subset = make([]int, cols-1)
		for i := range subset {
			subset[i] = i
		}
	}
	if len(subset) != cols-1 {
		return nil, errors.NewDimensionError("NewRegressionModel", cols-1, len(subset), 1)
	}

	if o.condTol > 0 {
		design = design.WithOptions(matrix.WithConditionTolerance(o.condTol))
	}

	id := o.id
	if id.IsZero() {
		id = NewModelID(transform, subset)
	}

	logger := o.logger
	if logger == nil {
		logger = log.GetLogger()
	}

	return &RegressionModel{
		design:     design,
		target:     append([]float64(nil), target...),
		transform:  transform,
		subset:     subset,
		thresholds: o.thresholds,
		id:         id,
		logger:     logger.With(log.ModelIDKey, id.String(), log.ModelHashKey, id.HashString()),
	}, nil
}

// ID returns the model identifier.
func (m *RegressionModel) ID() ModelID { return m.id }

// Transform returns the feature transform.
func (m *RegressionModel) Transform() Transform { return m.transform }

// Subset returns the indices of the features the model uses.
func (m *RegressionModel) Subset() []int { return append([]int(nil), m.subset...) }

// Thresholds returns the critical values the diagnostics compare against.
func (m *RegressionModel) Thresholds() Thresholds { return m.thresholds }

// Size returns the number of observations and design columns (including the intercept).
func (m *RegressionModel) Size() (rows, cols int) { return m.design.Size() }

// Design returns the untransformed design matrix.
func (m *RegressionModel) Design() *matrix.Matrix { return m.design }

// Target returns a copy of the target vector.
func (m *RegressionModel) Target() []float64 { return append([]float64(nil), m.target...) }

// transformedDesign は列0以外に変換を適用した設計行列を返す
func (m *RegressionModel) transformedDesign() (*matrix.Matrix, error) {
	return m.transformed.Get(func() (*matrix.Matrix, error) {
		x := m.design.Map(func(v float64, _, col int) float64 {
			if col == 0 {
				return v
			}
			return m.transform.Apply(v)
		})
		rows, _ := x.Size()
		for i := 0; i < rows; i++ {
			if err := errors.CheckNumericalStability("RegressionModel.transform", x.Row(i)); err != nil {
				return nil, errors.Wrapf(err, "%s transform of row %d", m.transform, i)
			}
		}
		return x, nil
	})
}

// Coefficients は正規方程式 β = (XᵗX)⁻¹Xᵗy の解を返す。
// XᵗX が逆行列を持たない場合は SingularMatrix エラーを返す。
func (m *RegressionModel) Coefficients() ([]float64, error) {
	beta, err := m.coefficients.Get(m.calculateCoefficients)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), beta...), nil
}

func (m *RegressionModel) calculateCoefficients() ([]float64, error) {
	x, err := m.transformedDesign()
	if err != nil {
		m.SetFailed()
		return nil, err
	}

	xt := x.Transpose()
	xtx, err := xt.Multiply(x)
	if err != nil {
		m.SetFailed()
		return nil, err
	}
	xtxInv, err := xtx.Inverse()
	if err != nil {
		m.SetFailed()
		m.logger.Debug("Normal equation has no solution", log.ErrorKindKey, errors.KindOf(err).String())
		return nil, errors.Wrapf(err, "RegressionModel.Coefficients %s", m.id)
	}

	y := make([][]float64, len(m.target))
	for i, v := range m.target {
		y[i] = []float64{v}
	}
	yCol, err := matrix.New(y)
	if err != nil {
		m.SetFailed()
		return nil, err
	}
	xty, err := xt.Multiply(yCol)
	if err != nil {
		m.SetFailed()
		return nil, err
	}
	w, err := xtxInv.Multiply(xty)
	if err != nil {
		m.SetFailed()
		return nil, err
	}

	beta := w.Column(0)
	if err := errors.CheckNumericalStability("RegressionModel.Coefficients", beta); err != nil {
		m.SetFailed()
		return nil, err
	}

	m.SetFitted()
	m.logger.Debug("Coefficients computed", log.SubsetSizeKey, len(m.subset))
	return beta, nil
}

// PredictY は設計行列と同じ形の行（列0は切片）から予測値を返す。
// 列0は変換せずにそのまま使う。
func (m *RegressionModel) PredictY(row []float64) (float64, error) {
	_, cols := m.design.Size()
	if len(row) != cols {
		return 0, errors.NewDimensionError("RegressionModel.PredictY", cols, len(row), 1)
	}
	beta, err := m.coefficients.Get(m.calculateCoefficients)
	if err != nil {
		return 0, err
	}

	x := make([]float64, cols)
	x[0] = row[0]
	for i := 1; i < cols; i++ {
		x[i] = m.transform.Apply(row[i])
	}
	return floats.Dot(beta, x), nil
}

// PredictFeatures は全特徴量の1観測からモデルの部分集合を取り出して予測する。
func (m *RegressionModel) PredictFeatures(features []float64) (float64, error) {
	row := make([]float64, len(m.subset)+1)
	row[0] = 1
	for j, idx := range m.subset {
		if idx >= len(features) {
			return 0, errors.NewDimensionError("RegressionModel.PredictFeatures", idx+1, len(features), 1)
		}
		row[j+1] = features[idx]
	}
	return m.PredictY(row)
}

// Predictions は学習データの各行に対する予測値を返す。
func (m *RegressionModel) Predictions() ([]float64, error) {
	preds, err := m.predictions.Get(func() ([]float64, error) {
		beta, err := m.coefficients.Get(m.calculateCoefficients)
		if err != nil {
			return nil, err
		}
		x, err := m.transformedDesign()
		if err != nil {
			return nil, err
		}
		rows, _ := x.Size()
		out := make([]float64, rows)
		for i := range out {
			out[i] = floats.Dot(beta, x.Row(i))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), preds...), nil
}

// residuals は学習データの残差を観測順で返す。
func (m *RegressionModel) residuals() ([]float64, error) {
	preds, err := m.Predictions()
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(preds))
	floats.SubTo(res, m.target, preds)
	return res, nil
}
