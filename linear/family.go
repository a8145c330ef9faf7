package linear

import (
	"github.com/YuminosukeSato/stackreg/core/matrix"
	"github.com/YuminosukeSato/stackreg/core/subset"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
)

// ProduceModelsFamily は特徴量の空でない部分集合ごとに1つのモデルを作り、
// 2^k - 1 個のモデルを部分集合の列挙順で返す。
//
// features は変数ごとの列（features[j][i] は変数 j の観測 i）。各モデルの設計行列は
// 選ばれた列の前に切片の1の列を持つ。
func ProduceModelsFamily(features [][]float64, target []float64, transform Transform, opts ...Option) ([]*RegressionModel, error) {
	if len(features) == 0 {
		return nil, errors.NewModelError("ProduceModelsFamily", "no features", errors.ErrEmptyData)
	}
	n := len(target)
	if n == 0 {
		return nil, errors.NewModelError("ProduceModelsFamily", "empty target", errors.ErrEmptyData)
	}
	for j, col := range features {
		if len(col) != n {
			return nil, errors.Wrapf(errors.NewDimensionError("ProduceModelsFamily", n, len(col), 0), "feature %d", j)
		}
	}

	subsets, err := subset.Indices(len(features))
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	family := make([]*RegressionModel, 0, len(subsets))
	for _, idx := range subsets {
		rows := make([][]float64, n)
		for i := range rows {
			row := make([]float64, len(idx)+1)
			row[0] = 1
			for c, j := range idx {
				row[c+1] = features[j][i]
			}
			rows[i] = row
		}
		design, err := matrix.New(rows)
		if err != nil {
			return nil, err
		}
		modelOpts := append(append([]Option(nil), opts...), WithSubset(idx))
		m, err := NewRegressionModel(design, target, transform, modelOpts...)
		if err != nil {
			return nil, err
		}
		family = append(family, m)
	}

	if o.logger != nil {
		o.logger.Debug("Family produced",
			log.TransformKey, transform.String(),
			log.FamilySizeKey, len(family),
			log.FeaturesKey, len(features),
			log.SamplesKey, n,
		)
	}
	return family, nil
}

// ProduceAllFamilies は transforms ごとに ProduceModelsFamily を呼び、結果を連結する。
func ProduceAllFamilies(features [][]float64, target []float64, transforms []Transform, opts ...Option) ([]*RegressionModel, error) {
	if len(transforms) == 0 {
		return nil, errors.NewValidationError("transforms", "at least one transform is required", transforms)
	}
	var all []*RegressionModel
	for _, t := range transforms {
		family, err := ProduceModelsFamily(features, target, t, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "%s family", t)
		}
		all = append(all, family...)
	}
	return all, nil
}
