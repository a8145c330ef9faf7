package linear

import (
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Thresholds は診断検定の臨界値。
//
// DL と DU は Durbin–Watson 検定の下限・上限、FisherValue は Goldfeld–Quandt 検定の
// F 臨界値、XSquare は Farrar–Glauber 検定の χ² 臨界値。
type Thresholds struct {
	DL          float64 `json:"dl" yaml:"dl"`
	DU          float64 `json:"du" yaml:"du"`
	FisherValue float64 `json:"fisher_value" yaml:"fisher_value"`
	XSquare     float64 `json:"x_square" yaml:"x_square"`
}

// DefaultThresholds returns the table values used unless configured otherwise.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DL:          1.53,
		DU:          1.74,
		FisherValue: 2.98,
		XSquare:     16.8,
	}
}

// Validate checks that 0 < DL < DU < 2 and that the critical values are positive.
func (t Thresholds) Validate() error {
	switch {
	case t.DL <= 0:
		return errors.NewValidationError("thresholds.dl", "must be positive", t.DL)
	case t.DU <= t.DL:
		return errors.NewValidationError("thresholds.du", "must be greater than dl", t.DU)
	case t.DU >= 2:
		return errors.NewValidationError("thresholds.du", "must be less than 2", t.DU)
	case t.FisherValue <= 0:
		return errors.NewValidationError("thresholds.fisher_value", "must be positive", t.FisherValue)
	case t.XSquare <= 0:
		return errors.NewValidationError("thresholds.x_square", "must be positive", t.XSquare)
	}
	return nil
}
