package pipeline

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/stackreg/config"
	"github.com/YuminosukeSato/stackreg/dataset"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
	"github.com/YuminosukeSato/stackreg/selection"
)

var (
	x2    = []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3, 2, 3, 8, 4}
	x3    = []float64{2, 7, 1, 8, 2, 8, 1, 8, 2, 8, 4, 5, 9, 6, 4, 5, 2, 3, 5, 3}
	noise = []float64{0.8, 0.1, -0.5, -0.3, 0.6, -0.7, 0.2, 0.4, -0.2, -0.6}
)

func threeFeatures(t *testing.T) dataset.Dataset {
	t.Helper()
	n := len(x2)
	x1 := make([]float64, n)
	y := make([]float64, n)
	for i := range y {
		x1[i] = float64(i + 1)
		y[i] = 1 + 2*x1[i] + 3*x2[i] + 0.5*x3[i] + noise[i%len(noise)]
	}
	d, err := dataset.New([][]float64{x1, x2, x3}, y, "x1", "x2", "x3")
	require.NoError(t, err)
	return d
}

func identityConfig() config.Config {
	cfg := config.Default()
	cfg.Transforms = []linear.Transform{linear.Identity}
	cfg.Top = 2
	cfg.Workers = 2
	return cfg
}

func TestRun_ThreeFeatures(t *testing.T) {
	data := threeFeatures(t)
	logger, _ := log.NewTestLogger(log.LevelInfo)

	res, err := Run(context.Background(), identityConfig(), data, WithLogger(logger))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 12, res.Train.Len())
	assert.Equal(t, 8, res.Test.Len())

	// 3 変数の空でない部分集合は 7 個
	assert.Len(t, res.Models, 7)
	assert.Empty(t, res.Unfit)
	for i := 1; i < len(res.Models); i++ {
		assert.LessOrEqual(t, selection.Compare(res.Models[i-1], res.Models[i], selection.DefaultTieWindow), 0,
			"models %d and %d out of order", i-1, i)
	}

	require.Len(t, res.Top, 2)
	assert.Same(t, res.Models[0], res.Top[0])
	assert.Same(t, res.Models[1], res.Top[1])

	require.NotNil(t, res.Ensemble)
	assert.Len(t, res.Ensemble.Candidates, 1)
	assert.Empty(t, res.Ensemble.Skipped)
	assert.Equal(t, linear.StackedID(res.Top[0].ID, res.Top[1].ID), res.Ensemble.Best.ID())

	require.Len(t, res.Forecast, 8)
	for i, p := range res.Forecast {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, data.Target[12+i], p.Actual)
		assert.False(t, math.IsNaN(p.Predicted) || math.IsInf(p.Predicted, 0), "forecast %d = %v", i, p.Predicted)
	}
	assert.Equal(t, 8, res.Summary.N)
	assert.InDelta(t, math.Sqrt(res.Summary.MSE), res.Summary.RMSE, 1e-12)

	out := logger.String()
	for _, msg := range []string{"Data split", "Models evaluated", "Ensemble built", "Forecast finished"} {
		assert.Contains(t, out, msg)
	}
	assert.Contains(t, out, res.RunID)
}

func TestRun_UnfitModelsAreSkipped(t *testing.T) {
	data := threeFeatures(t)
	// x2 に 0 を入れると log 変換が -Inf になる
	withZero := append([]float64(nil), data.Features[1]...)
	withZero[3] = 0
	data.Features[1] = withZero

	cfg := identityConfig()
	cfg.Transforms = []linear.Transform{linear.NaturalLog}

	res, err := Run(context.Background(), cfg, data, WithLogger(log.NewNopLogger()))
	require.NoError(t, err)

	// x2 を含む部分集合 {1}, {0,1}, {1,2}, {0,1,2}
	require.Len(t, res.Unfit, 4)
	assert.Len(t, res.Models, 3)
	for _, u := range res.Unfit {
		assert.Contains(t, u.ID.String(), "1")
		assert.True(t, errors.IsKind(u.Err, errors.KindInvalidArgument), "%s: %v", u.ID, u.Err)
	}
	for _, rep := range res.Models {
		assert.NotContains(t, rep.Subset, 1)
	}
	assert.Len(t, res.Forecast, 8)
}

func TestRun_Progress(t *testing.T) {
	var calls, last atomic.Int64
	_, err := Run(context.Background(), identityConfig(), threeFeatures(t),
		WithLogger(log.NewNopLogger()),
		WithProgress(func(done, total int) {
			calls.Add(1)
			last.Store(int64(done))
			assert.Equal(t, 7, total)
		}),
		WithRunID("fixed"),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(7), calls.Load())
	assert.Equal(t, int64(7), last.Load())
}

func TestRun_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := identityConfig()
		cfg.Top = 1
		_, err := Run(context.Background(), cfg, threeFeatures(t))
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))
	})
	t.Run("no test rows", func(t *testing.T) {
		d, err := dataset.New([][]float64{{1, 2}}, []float64{3, 4})
		require.NoError(t, err)
		cfg := identityConfig()
		cfg.TrainingSplit = 0.9
		_, err = Run(context.Background(), cfg, d, WithLogger(log.NewNopLogger()))
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, identityConfig(), threeFeatures(t), WithLogger(log.NewNopLogger()))
		require.ErrorIs(t, err, context.Canceled)
	})
	t.Run("single feature leaves no pair", func(t *testing.T) {
		data := threeFeatures(t)
		data.Features = data.Features[:1]
		data.Names = nil
		_, err := Run(context.Background(), identityConfig(), data, WithLogger(log.NewNopLogger()))
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "ensemble"))
		assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))
	})
}

func TestRun_UnfitFamilyIsWarned(t *testing.T) {
	data := threeFeatures(t)
	withZero := append([]float64(nil), data.Features[1]...)
	withZero[3] = 0
	data.Features[1] = withZero

	cfg := identityConfig()
	cfg.Transforms = []linear.Transform{linear.Identity, linear.NaturalLog}
	logger, _ := log.NewTestLogger(log.LevelWarn)

	_, err := Run(context.Background(), cfg, data, WithLogger(logger))
	require.NoError(t, err)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	var warned []map[string]any
	for _, e := range entries {
		if e["message"] == "Transform family partly unfit" {
			warned = append(warned, e)
		}
	}
	// identity 族は全部 fit するので警告は log 族の 1 件だけ
	require.Len(t, warned, 1)
	assert.Equal(t, "log", warned[0][log.TransformKey])
	assert.Equal(t, float64(4), warned[0][log.UnfitKey])
	assert.Equal(t, float64(7), warned[0][log.FamilySizeKey])
	assert.False(t, logger.ContainsMessage("Transform family entirely unfit"))
}

func TestEvaluate_EntirelyUnfitFamilyIsWarned(t *testing.T) {
	train, _, err := dataset.Split(threeFeatures(t), config.Default().TrainingSplit)
	require.NoError(t, err)

	// 学習 12 行では XᵗX の条件数が identity 族で 1e3 程度、cube 族で 1e5 以上
	transforms := []linear.Transform{linear.Identity, linear.Cube}
	models, err := linear.ProduceAllFamilies(train.Features, train.Target, transforms,
		linear.WithConditionTolerance(1e4))
	require.NoError(t, err)

	cfg := identityConfig()
	cfg.Transforms = transforms
	logger, _ := log.NewTestLogger(log.LevelWarn)
	r := &runner{cfg: cfg, logger: logger}

	out, unfit, err := r.evaluate(context.Background(), models)
	require.NoError(t, err)
	assert.Len(t, out, 7)
	require.Len(t, unfit, 7)
	for _, u := range unfit {
		assert.True(t, errors.IsKind(u.Err, errors.KindSingularMatrix), "%s: %v", u.ID, u.Err)
	}

	assert.True(t, logger.ContainsMessage("Transform family entirely unfit"))
	assert.False(t, logger.ContainsMessage("Transform family partly unfit"))
	assert.True(t, logger.ContainsField(log.TransformKey, linear.Cube.String()))
	assert.False(t, logger.ContainsField(log.TransformKey, linear.Identity.String()))
	assert.True(t, logger.ContainsField(log.UnfitKey, float64(7)))
}

func TestRun_ReportsAreLogged(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	res, err := Run(context.Background(), identityConfig(), threeFeatures(t), WithLogger(logger))
	require.NoError(t, err)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, e := range entries {
		if e["message"] != "Model report" {
			continue
		}
		obj, ok := e[log.ReportKey].(map[string]any)
		require.True(t, ok, "report not logged as object: %v", e[log.ReportKey])
		id, _ := obj[log.ModelIDKey].(string)
		seen[id] = true
	}
	require.Len(t, seen, len(res.Models))
	for _, rep := range res.Models {
		assert.True(t, seen[rep.ID.String()], "no report logged for %s", rep.ID)
	}
}

func TestRun_SortColumn(t *testing.T) {
	t.Run("beyond single-variable models", func(t *testing.T) {
		cfg := identityConfig()
		cfg.SortColumn = 2
		res, err := Run(context.Background(), cfg, threeFeatures(t), WithLogger(log.NewNopLogger()))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))
		assert.Contains(t, err.Error(), "sort_column")
	})
	t.Run("intercept column reaches stacked models", func(t *testing.T) {
		cfg := identityConfig()
		cfg.SortColumn = 0
		res, err := Run(context.Background(), cfg, threeFeatures(t), WithLogger(log.NewNopLogger()))
		require.NoError(t, err)
		assert.Empty(t, res.Unfit)
		assert.Len(t, res.Models, 7)

		best := res.Ensemble.Best
		gq, err := best.Stacked.Homoscedasticity(0)
		require.NoError(t, err)
		assert.Equal(t, gq, best.Report.GoldfeldQuandt)
	})
}
