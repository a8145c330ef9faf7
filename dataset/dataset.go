// Package dataset loads feature columns and a target series and splits them into
// training and held-out parts.
package dataset

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Dataset is a set of explanatory variables and the target they explain.
// Features[j][i] is observation i of variable j.
type Dataset struct {
	Features [][]float64
	Target   []float64
	// Names labels the variables; it is either empty or one name per feature.
	Names []string
}

// New validates and returns a dataset. The slices are not copied.
func New(features [][]float64, target []float64, names ...string) (Dataset, error) {
	if len(features) == 0 {
		return Dataset{}, errors.NewModelError("dataset.New", "no features", errors.ErrEmptyData)
	}
	if len(target) == 0 {
		return Dataset{}, errors.NewModelError("dataset.New", "empty target", errors.ErrEmptyData)
	}
	for j, col := range features {
		if len(col) != len(target) {
			return Dataset{}, errors.Wrapf(errors.NewDimensionError("dataset.New", len(target), len(col), 0), "feature %d", j)
		}
		if err := errors.CheckNumericalStability("dataset.New", col); err != nil {
			return Dataset{}, errors.Wrapf(err, "feature %d", j)
		}
	}
	if err := errors.CheckNumericalStability("dataset.New", target); err != nil {
		return Dataset{}, errors.Wrap(err, "target")
	}
	if len(names) != 0 && len(names) != len(features) {
		return Dataset{}, errors.NewDimensionError("dataset.New", len(features), len(names), 1)
	}
	return Dataset{Features: features, Target: target, Names: names}, nil
}

// Len returns the number of observations.
func (d Dataset) Len() int { return len(d.Target) }

// NumFeatures returns the number of explanatory variables.
func (d Dataset) NumFeatures() int { return len(d.Features) }

// Name returns the label of variable j, or "x<j>" when unnamed.
func (d Dataset) Name(j int) string {
	if j < len(d.Names) && d.Names[j] != "" {
		return d.Names[j]
	}
	return fmt.Sprintf("x%d", j)
}

// Rows returns the observations as rows: Rows()[i][j] == Features[j][i].
func (d Dataset) Rows() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		row := make([]float64, len(d.Features))
		for j, col := range d.Features {
			row[j] = col[i]
		}
		rows[i] = row
	}
	return rows
}

// Slice returns observations [from, to) of every feature and the target.
func (d Dataset) Slice(from, to int) Dataset {
	features := make([][]float64, len(d.Features))
	for j, col := range d.Features {
		features[j] = col[from:to:to]
	}
	return Dataset{Features: features, Target: d.Target[from:to:to], Names: d.Names}
}

// TrainingLength returns round(n·ratio).
func TrainingLength(n int, ratio float64) int {
	return int(math.Round(float64(n) * ratio))
}

// Split cuts the dataset into the first round(N·ratio) observations and the rest.
// Both parts must be non-empty.
func Split(d Dataset, ratio float64) (train, test Dataset, err error) {
	if ratio <= 0 || ratio >= 1 {
		return Dataset{}, Dataset{}, errors.NewValidationError("ratio", "must be in (0, 1)", ratio)
	}
	n := d.Len()
	k := TrainingLength(n, ratio)
	if k < 1 || k >= n {
		return Dataset{}, Dataset{}, errors.NewValidationError("ratio",
			fmt.Sprintf("%d observations leave %d for training and %d for testing", n, k, n-k), ratio)
	}
	return d.Slice(0, k), d.Slice(k, n), nil
}
