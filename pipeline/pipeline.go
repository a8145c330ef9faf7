// Package pipeline runs the whole modeling procedure on a loaded dataset: split,
// model families, diagnostics, selection, ensemble and held-out forecast.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/stackreg/config"
	"github.com/YuminosukeSato/stackreg/core/parallel"
	"github.com/YuminosukeSato/stackreg/dataset"
	"github.com/YuminosukeSato/stackreg/ensemble"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
	"github.com/YuminosukeSato/stackreg/selection"
)

// Unfit is a model that could not be evaluated.
type Unfit struct {
	ID  linear.ModelID
	Err error
}

// Result is the outcome of one run.
type Result struct {
	RunID string

	Train dataset.Dataset
	Test  dataset.Dataset

	// Models holds every evaluated model, best first.
	Models []*linear.Report
	// Unfit holds the models skipped because their normal equations were singular
	// or their transformed design was invalid.
	Unfit []Unfit
	// Top is the prefix of Models fed to the ensemble.
	Top []*linear.Report

	Ensemble *ensemble.Result
	Forecast []ensemble.ForecastPair
	Summary  ensemble.Summary
}

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(r *runner) { r.logger = l }
}

// WithProgress registers a callback invoked after each model evaluation with the
// number of finished models and the family total. Calls are serialized.
func WithProgress(fn func(done, total int)) Option {
	return func(r *runner) { r.progress = fn }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *runner) { r.runID = id }
}

type runner struct {
	cfg      config.Config
	logger   log.Logger
	progress func(done, total int)
	runID    string
}

// Run executes the pipeline. Models failing with a SingularMatrix or
// InvalidArgument error are recorded in Result.Unfit; any other error aborts.
func Run(ctx context.Context, cfg config.Config, data dataset.Dataset, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	if r.logger == nil {
		r.logger = log.GetLogger()
	}
	r.logger = r.logger.With(log.ComponentKey, "pipeline", log.RunIDKey, r.runID)
	return r.run(ctx, data)
}

func (r *runner) run(ctx context.Context, data dataset.Dataset) (*Result, error) {
	res := &Result{RunID: r.runID}

	// 1. 学習用とテスト用に分割
	train, test, err := dataset.Split(data, r.cfg.TrainingSplit)
	if err != nil {
		return nil, errors.Wrap(err, "split")
	}
	res.Train, res.Test = train, test
	r.logger.Info("Data split",
		log.StageKey, log.StageSplit,
		log.SamplesKey, data.Len(),
		log.FeaturesKey, data.NumFeatures(),
		log.TrainSamplesKey, train.Len(),
		log.TestSamplesKey, test.Len(),
	)

	// 2. 変換ごとのモデルファミリー
	modelOpts := []linear.Option{
		linear.WithThresholds(r.cfg.Thresholds),
		linear.WithLogger(r.logger),
	}
	if r.cfg.ConditionTolerance > 0 {
		modelOpts = append(modelOpts, linear.WithConditionTolerance(r.cfg.ConditionTolerance))
	}
	models, err := linear.ProduceAllFamilies(train.Features, train.Target, r.cfg.Transforms, modelOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "families")
	}
	r.logger.Info("Families produced",
		log.StageKey, log.StageFamilies,
		log.ModelsKey, len(models),
	)

	// 3. 評価
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Models, res.Unfit, err = r.evaluate(ctx, models)
	if err != nil {
		return nil, err
	}

	// 4. 選択
	cmp := selection.NewComparator(r.cfg.TieWindow)
	cmp.Sort(res.Models)
	res.Top, err = cmp.SelectTop(res.Models, r.cfg.Top)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Models selected",
		log.StageKey, log.StageSelect,
		log.TopKey, len(res.Top),
	)
	if len(res.Top) > 0 {
		r.logger.Debug("Best base model", log.ModelIDKey, res.Top[0].ID.String(), log.R2ScoreKey, res.Top[0].RSquare)
	}

	// 5. アンサンブル
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := make([]*linear.RegressionModel, len(res.Top))
	for i, rep := range res.Top {
		base[i] = rep.Model
	}
	ensOpts := []ensemble.Option{
		ensemble.WithThresholds(r.cfg.Thresholds),
		ensemble.WithTieWindow(r.cfg.TieWindow),
		ensemble.WithSortColumn(r.cfg.SortColumn),
		ensemble.WithLogger(r.logger),
	}
	if r.cfg.ConditionTolerance > 0 {
		ensOpts = append(ensOpts, ensemble.WithConditionTolerance(r.cfg.ConditionTolerance))
	}
	res.Ensemble, err = ensemble.NewBuilder(ensOpts...).Build(base, train.Target)
	if err != nil {
		return nil, errors.Wrap(err, "ensemble")
	}

	// 6. テスト期間の予測
	res.Forecast, err = ensemble.Forecast(res.Ensemble.Best, test.Rows(), test.Target)
	if err != nil {
		return nil, errors.Wrap(err, "forecast")
	}
	res.Summary, err = ensemble.Summarize(res.Forecast)
	if err != nil {
		return nil, errors.Wrap(err, "forecast summary")
	}
	r.logger.Info("Forecast finished",
		log.StageKey, log.StageForecast,
		log.ModelIDKey, res.Ensemble.Best.ID().String(),
		log.ForecastRowsKey, len(res.Forecast),
		log.RMSEKey, res.Summary.RMSE,
		log.R2ScoreKey, res.Summary.R2,
	)
	return res, nil
}

// evaluate computes the report of every model in parallel. Report order follows
// model order; unfit models are returned separately.
func (r *runner) evaluate(ctx context.Context, models []*linear.RegressionModel) ([]*linear.Report, []Unfit, error) {
	start := time.Now()
	reports := make([]*linear.Report, len(models))
	failures := make([]error, len(models))

	var (
		mu   sync.Mutex
		done int
	)
	err := parallel.ForEach(ctx, len(models), r.cfg.Workers, func(_ context.Context, i int) error {
		m := models[i]
		err := errors.SafeExecute("evaluate "+m.ID().String(), func() error {
			rep, err := m.Evaluate(r.cfg.SortColumn)
			reports[i] = rep
			return err
		})
		if err != nil {
			if !skippable(err) {
				return errors.Wrapf(err, "model %s", m.ID())
			}
			failures[i] = err
			reports[i] = nil
		}
		if r.progress != nil {
			mu.Lock()
			done++
			r.progress(done, len(models))
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		out   []*linear.Report
		unfit []Unfit
	)
	familySize := make(map[linear.Transform]int)
	familyUnfit := make(map[linear.Transform]int)
	for i, rep := range reports {
		t := models[i].Transform()
		familySize[t]++
		if failures[i] != nil {
			familyUnfit[t]++
			r.logger.Debug("Model unfit",
				log.ModelIDKey, models[i].ID().String(),
				log.ModelHashKey, models[i].ID().HashString(),
				log.ErrorKindKey, errors.KindOf(failures[i]).String(),
			)
			unfit = append(unfit, Unfit{ID: models[i].ID(), Err: failures[i]})
			continue
		}
		if r.logger.Enabled(ctx, log.LevelDebug) {
			r.logger.Debug("Model report", log.ReportKey, rep)
		}
		out = append(out, rep)
	}
	for _, t := range r.cfg.Transforms {
		n := familyUnfit[t]
		if n == 0 {
			continue
		}
		msg := "Transform family partly unfit"
		if n == familySize[t] {
			// 例: 大きな値の cube 変換は XᵗX の条件数が許容値を超える
			msg = "Transform family entirely unfit"
		}
		r.logger.Warn(msg,
			log.StageKey, log.StageEvaluate,
			log.TransformKey, t.String(),
			log.UnfitKey, n,
			log.FamilySizeKey, familySize[t],
		)
	}
	sort.SliceStable(unfit, func(i, j int) bool { return unfit[i].ID.String() < unfit[j].ID.String() })

	r.logger.Info("Models evaluated",
		log.StageKey, log.StageEvaluate,
		log.ModelsKey, len(out),
		log.UnfitKey, len(unfit),
		log.WorkersKey, r.cfg.Workers,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, unfit, nil
}

// skippable reports whether err only disqualifies the model it came from.
func skippable(err error) bool {
	var pe *errors.PanicError
	if errors.As(err, &pe) {
		return true
	}
	switch errors.KindOf(err) {
	case errors.KindSingularMatrix, errors.KindInvalidArgument:
		return true
	}
	return false
}
