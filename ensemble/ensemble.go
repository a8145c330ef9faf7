// Package ensemble stacks pairs of regression models.
//
// For two base models the stacked model regresses the training target on
// [1, ŷ₁, ŷ₂], the in-sample predictions of the base models. Every pair of the
// selected base models is stacked, evaluated and ranked; the best pair produces the
// final forecast.
package ensemble

import (
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/stackreg/core"
	"github.com/YuminosukeSato/stackreg/core/matrix"
	"github.com/YuminosukeSato/stackreg/core/parallel"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
	"github.com/YuminosukeSato/stackreg/selection"
)

// PairedModel is a stacked model together with the two base models whose
// predictions form its design matrix.
type PairedModel struct {
	Stacked *linear.RegressionModel
	First   *linear.RegressionModel
	Second  *linear.RegressionModel
	Report  *linear.Report
}

var _ core.Model = (*PairedModel)(nil)

// ID returns the stacked model ID.
func (p *PairedModel) ID() linear.ModelID { return p.Stacked.ID() }

// PredictFeatures predicts from a raw feature observation: both base models predict
// from it and the stacked model combines their predictions.
func (p *PairedModel) PredictFeatures(features []float64) (float64, error) {
	y1, err := p.First.PredictFeatures(features)
	if err != nil {
		return 0, errors.Wrapf(err, "base model %s", p.First.ID())
	}
	y2, err := p.Second.PredictFeatures(features)
	if err != nil {
		return 0, errors.Wrapf(err, "base model %s", p.Second.ID())
	}
	return p.Stacked.PredictY([]float64{1, y1, y2})
}

// RSquare implements core.Diagnostics on the stacked model.
func (p *PairedModel) RSquare() (float64, error) { return p.Stacked.RSquare() }

// HasAutoCorrelation implements core.Diagnostics on the stacked model.
func (p *PairedModel) HasAutoCorrelation() (bool, error) { return p.Stacked.HasAutoCorrelation() }

// HasHomoscedasticity implements core.Diagnostics on the stacked model.
func (p *PairedModel) HasHomoscedasticity(sortColumn int) (bool, error) {
	return p.Stacked.HasHomoscedasticity(sortColumn)
}

// HasMultiCollinearity implements core.Diagnostics on the stacked model.
func (p *PairedModel) HasMultiCollinearity() (bool, error) { return p.Stacked.HasMultiCollinearity() }

// SkippedPair records a pair whose stacked model could not be fitted.
type SkippedPair struct {
	First  linear.ModelID
	Second linear.ModelID
	Err    error
}

// Result is the outcome of Build.
type Result struct {
	// Best is the top-ranked stacked model.
	Best *PairedModel
	// Candidates holds every fitted stacked model, best first.
	Candidates []*PairedModel
	// Skipped holds the pairs that failed with a singular or invalid design.
	Skipped []SkippedPair
}

// predictionThreshold is the base model count above which predictions are
// computed in parallel.
const predictionThreshold = 8

// Builder stacks pairs of base models.
type Builder struct {
	thresholds linear.Thresholds
	sortColumn int
	comparator selection.Comparator
	condTol    float64
	logger     log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithThresholds sets the diagnostic critical values of the stacked models.
func WithThresholds(t linear.Thresholds) Option {
	return func(b *Builder) { b.thresholds = t }
}

// WithSortColumn sets the Goldfeld–Quandt sort column of the stacked design
// (0 intercept, 1 first base prediction, 2 second base prediction).
func WithSortColumn(col int) Option {
	return func(b *Builder) { b.sortColumn = col }
}

// WithTieWindow sets the comparator tie window.
func WithTieWindow(w float64) Option {
	return func(b *Builder) { b.comparator = selection.NewComparator(w) }
}

// WithConditionTolerance sets the singular tolerance of the stacked normal equations.
func WithConditionTolerance(tol float64) Option {
	return func(b *Builder) { b.condTol = tol }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder with default thresholds, sort column 1 and the
// default tie window.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		thresholds: linear.DefaultThresholds(),
		sortColumn: 1,
		comparator: selection.NewComparator(selection.DefaultTieWindow),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLogger()
	}
	b.logger = b.logger.With(log.ComponentKey, "ensemble")
	return b
}

// Build stacks every unordered pair of base models against target and returns
// the ranked result. Pairs whose stacked model is singular are skipped. At least
// two base models are required, and at least one pair must be fittable.
func (b *Builder) Build(base []*linear.RegressionModel, target []float64) (*Result, error) {
	base = uniqueModels(base, b.logger)
	if len(base) < 2 {
		return nil, errors.NewValidationError("base", "at least two distinct base models are required", len(base))
	}

	preds := make([][]float64, len(base))
	errs := make([]error, len(base))
	parallel.ParallelizeWithThreshold(len(base), predictionThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			preds[i], errs[i] = base[i].Predictions()
		}
	})
	for i, m := range base {
		if errs[i] != nil {
			return nil, errors.Wrapf(errs[i], "base model %s", m.ID())
		}
		if len(preds[i]) != len(target) {
			return nil, errors.NewDimensionError("Builder.Build", len(target), len(preds[i]), 0)
		}
	}

	res := &Result{}

	for _, pair := range combin.Combinations(len(base), 2) {
		first, second := base[pair[0]], base[pair[1]]
		pm, err := b.stack(first, second, preds[pair[0]], preds[pair[1]], target)
		if err != nil {
			kind := errors.KindOf(err)
			if kind != errors.KindSingularMatrix && kind != errors.KindInvalidArgument {
				return nil, err
			}
			sid := linear.StackedID(first.ID(), second.ID())
			b.logger.Debug("Pair skipped",
				log.ModelIDKey, sid.String(),
				log.ModelHashKey, sid.HashString(),
				log.ErrorKindKey, kind.String(),
			)
			res.Skipped = append(res.Skipped, SkippedPair{First: first.ID(), Second: second.ID(), Err: err})
			continue
		}
		res.Candidates = append(res.Candidates, pm)
	}

	if len(res.Candidates) == 0 {
		return nil, errors.Wrapf(errors.NewSingularMatrixError("Builder.Build"), "all %d pairs", len(res.Skipped))
	}

	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return b.comparator.Compare(res.Candidates[i].Report, res.Candidates[j].Report) < 0
	})
	res.Best = res.Candidates[0]

	b.logger.Info("Ensemble built",
		log.PairsKey, len(res.Candidates),
		log.SkippedPairsKey, len(res.Skipped),
		log.ModelIDKey, res.Best.ID().String(),
		log.R2ScoreKey, res.Best.Report.RSquare,
	)
	return res, nil
}

func (b *Builder) stack(first, second *linear.RegressionModel, p1, p2, target []float64) (*PairedModel, error) {
	rows := make([][]float64, len(target))
	for i := range rows {
		rows[i] = []float64{1, p1[i], p2[i]}
	}
	design, err := matrix.New(rows)
	if err != nil {
		return nil, err
	}

	opts := []linear.Option{
		linear.WithThresholds(b.thresholds),
		linear.WithID(linear.StackedID(first.ID(), second.ID())),
		linear.WithLogger(b.logger),
	}
	if b.condTol > 0 {
		opts = append(opts, linear.WithConditionTolerance(b.condTol))
	}
	stacked, err := linear.NewRegressionModel(design, target, linear.Identity, opts...)
	if err != nil {
		return nil, err
	}
	report, err := stacked.Evaluate(b.sortColumn)
	if err != nil {
		return nil, err
	}
	return &PairedModel{Stacked: stacked, First: first, Second: second, Report: report}, nil
}

// uniqueModels drops repeated models, keyed on the ID hash. A model paired with
// itself has two identical design columns and can never be fitted.
func uniqueModels(base []*linear.RegressionModel, logger log.Logger) []*linear.RegressionModel {
	seen := make(map[uint64]bool, len(base))
	out := make([]*linear.RegressionModel, 0, len(base))
	for _, m := range base {
		h := m.ID().Hash()
		if seen[h] {
			logger.Debug("Duplicate base model dropped",
				log.ModelIDKey, m.ID().String(),
				log.ModelHashKey, m.ID().HashString(),
			)
			continue
		}
		seen[h] = true
		out = append(out, m)
	}
	return out
}
