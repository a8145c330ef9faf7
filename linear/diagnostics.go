package linear

import (
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackreg/metrics"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
	"github.com/YuminosukeSato/stackreg/preprocessing"
)

// RSquare は決定係数 R² = 1 - RSS/TSS を返す。目的変数に分散がない場合はエラー。
func (m *RegressionModel) RSquare() (float64, error) {
	return m.rSquare.Get(func() (float64, error) {
		preds, err := m.Predictions()
		if err != nil {
			return 0, err
		}
		return metrics.R2Score(m.target, preds)
	})
}

// AutoCorrelation は残差の Durbin–Watson 統計量を返す。残差がすべて0の場合は NaN。
func (m *RegressionModel) AutoCorrelation() (float64, error) {
	return m.durbinWatson.Get(func() (float64, error) {
		res, err := m.residuals()
		if err != nil {
			return 0, err
		}
		return metrics.DurbinWatson(res)
	})
}

// HasAutoCorrelation は DL < DW かつ DU < DW < 4 - DU でない限り true を返す。
// DW が NaN の場合も true。
func (m *RegressionModel) HasAutoCorrelation() (bool, error) {
	dw, err := m.AutoCorrelation()
	if err != nil {
		return false, err
	}
	t := m.thresholds
	inBand := t.DL < dw && t.DU < dw && dw < 4-t.DU
	return !inBand, nil
}

// Homoscedasticity は Goldfeld–Quandt 検定の比 RSS(先頭群)/RSS(末尾群) を返す。
//
// 学習データを設計行列の列 sortColumn で昇順に安定ソートし、round(N/3) 行ずつの
// 先頭群と末尾群の残差平方和を、全データで推定した係数から計算する。
// 結果は最初の呼び出しでキャッシュされ、以降は sortColumn が異なっても同じ値を返す。
func (m *RegressionModel) Homoscedasticity(sortColumn int) (float64, error) {
	rows, cols := m.design.Size()
	if sortColumn < 0 || sortColumn >= cols {
		return 0, errors.NewValidationError("sortColumn", "out of range", sortColumn)
	}
	return m.goldfeldQuandt.Get(func() (float64, error) {
		g := int(math.Round(float64(rows) / 3))
		if g == 0 {
			return 0, errors.NewValidationError("rows", "too few observations for Goldfeld-Quandt groups", rows)
		}

		preds, err := m.Predictions()
		if err != nil {
			return 0, err
		}

		key := m.design.Column(sortColumn)
		order := make([]int, rows)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return key[order[a]] < key[order[b]]
		})

		groupRSS := func(idx []int) float64 {
			var rss float64
			for _, i := range idx {
				d := m.target[i] - preds[i]
				rss += d * d
			}
			return rss
		}
		first := groupRSS(order[:g])
		last := groupRSS(order[rows-g:])

		if first == 0 && last == 0 {
			return 1, nil
		}
		return first / last, nil
	})
}

// HasHomoscedasticity は Goldfeld–Quandt 比が FisherValue を超える場合に true を返す。
// true は群間で残差分散が異なる（検定が不均一分散を検出した）ことを意味する。
func (m *RegressionModel) HasHomoscedasticity(sortColumn int) (bool, error) {
	ratio, err := m.Homoscedasticity(sortColumn)
	if err != nil {
		return false, err
	}
	return ratio > m.thresholds.FisherValue, nil
}

// MultiCollinearity は Farrar–Glauber 統計量 -(N - 1 - (2m+5)/6)·ln(det R) を返す。
// R は切片を除く未変換の設計列の相関行列。det R <= 0 の場合は +Inf。
func (m *RegressionModel) MultiCollinearity() (float64, error) {
	return m.farrarGlauber.Get(func() (float64, error) {
		rows, cols := m.design.Size()
		k := cols - 1
		if k == 0 {
			return 0, nil
		}

		x := mat.NewDense(rows, k, nil)
		for j := 1; j < cols; j++ {
			x.SetCol(j-1, m.design.Column(j))
		}
		r, err := preprocessing.CorrelationMatrix(x)
		if err != nil {
			return 0, errors.Wrapf(err, "RegressionModel.MultiCollinearity %s", m.id)
		}

		det := mat.Det(r)
		if det <= 0 || math.IsNaN(det) {
			return math.Inf(1), nil
		}
		freedom := float64(rows) - 1 - float64(2*k+5)/6
		return -freedom * math.Log(det), nil
	})
}

// HasMultiCollinearity は Farrar–Glauber 統計量が XSquare を超える場合に true を返す。
func (m *RegressionModel) HasMultiCollinearity() (bool, error) {
	fg, err := m.MultiCollinearity()
	if err != nil {
		return false, err
	}
	return fg > m.thresholds.XSquare, nil
}

// Report はモデル1つ分の評価結果。
type Report struct {
	ID           ModelID
	Transform    Transform
	Subset       []int
	Coefficients []float64

	RSquare float64

	DurbinWatson    float64
	AutoCorrelation bool

	GoldfeldQuandt  float64
	Heteroscedastic bool

	FarrarGlauber  float64
	MultiCollinear bool

	Model *RegressionModel
}

// MarshalZerologObject writes the report summary to a zerolog event.
func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str(log.ModelIDKey, r.ID.String()).
		Str(log.ModelHashKey, r.ID.HashString()).
		Str(log.TransformKey, r.Transform.String()).
		Int(log.SubsetSizeKey, len(r.Subset)).
		Float64(log.R2ScoreKey, r.RSquare).
		Float64(log.DurbinWatsonKey, r.DurbinWatson).
		Bool(log.AutoCorrelationKey, r.AutoCorrelation).
		Float64(log.GoldfeldQuandtKey, r.GoldfeldQuandt).
		Bool(log.HeteroscedasticKey, r.Heteroscedastic).
		Float64(log.FarrarGlauberKey, r.FarrarGlauber).
		Bool(log.MultiCollinearKey, r.MultiCollinear)
}

// Evaluate は係数とすべての診断を計算して Report を返す。
// Goldfeld–Quandt 検定は設計行列の列 sortColumn でソートする。
func (m *RegressionModel) Evaluate(sortColumn int) (*Report, error) {
	beta, err := m.Coefficients()
	if err != nil {
		return nil, err
	}
	r2, err := m.RSquare()
	if err != nil {
		return nil, err
	}
	dw, err := m.AutoCorrelation()
	if err != nil {
		return nil, err
	}
	auto, _ := m.HasAutoCorrelation()
	gq, err := m.Homoscedasticity(sortColumn)
	if err != nil {
		return nil, err
	}
	hetero, _ := m.HasHomoscedasticity(sortColumn)
	fg, err := m.MultiCollinearity()
	if err != nil {
		return nil, err
	}
	multi, _ := m.HasMultiCollinearity()

	report := &Report{
		ID:              m.id,
		Transform:       m.transform,
		Subset:          m.Subset(),
		Coefficients:    beta,
		RSquare:         r2,
		DurbinWatson:    dw,
		AutoCorrelation: auto,
		GoldfeldQuandt:  gq,
		Heteroscedastic: hetero,
		FarrarGlauber:   fg,
		MultiCollinear:  multi,
		Model:           m,
	}
	m.logger.Debug("Model evaluated",
		log.R2ScoreKey, r2,
		log.AutoCorrelationKey, auto,
		log.HeteroscedasticKey, hetero,
		log.MultiCollinearKey, multi,
	)
	return report, nil
}
