package linear

import (
	"github.com/YuminosukeSato/stackreg/pkg/log"
)

type options struct {
	thresholds Thresholds
	subset     []int
	condTol    float64
	logger     log.Logger
	id         ModelID
}

// Option is a function that configures a RegressionModel
type Option func(*options)

func defaultOptions() options {
	return options{
		thresholds: DefaultThresholds(),
	}
}

// WithThresholds sets the critical values of the diagnostic tests
func WithThresholds(t Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// WithSubset records which columns of the full feature set the design was built from.
// Its length must equal the number of non-intercept design columns.
func WithSubset(indices []int) Option {
	return func(o *options) {
		o.subset = append([]int(nil), indices...)
	}
}

// WithConditionTolerance sets the condition number above which XᵗX is treated as singular
func WithConditionTolerance(tol float64) Option {
	return func(o *options) {
		o.condTol = tol
	}
}

// WithLogger sets the logger
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithID overrides the derived model ID. Used for stacked models.
func WithID(id ModelID) Option {
	return func(o *options) {
		o.id = id
	}
}
