package pipeline_test

import (
	"context"
	"fmt"

	"github.com/YuminosukeSato/stackreg/config"
	"github.com/YuminosukeSato/stackreg/dataset"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pipeline"
	"github.com/YuminosukeSato/stackreg/pkg/log"
)

func ExampleRun() {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	x2 := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 1 + 2*x1[i] + 3*x2[i] + 0.1*float64(i%3-1)
	}
	data, err := dataset.New([][]float64{x1, x2}, y)
	if err != nil {
		panic(err)
	}

	cfg := config.Default()
	cfg.Transforms = []linear.Transform{linear.Identity}
	cfg.Top = 3

	res, err := pipeline.Run(context.Background(), cfg, data, pipeline.WithLogger(log.NewNopLogger()))
	if err != nil {
		panic(err)
	}
	fmt.Printf("train=%d test=%d models=%d top=%d pairs=%d forecasts=%d\n",
		res.Train.Len(), res.Test.Len(), len(res.Models), len(res.Top),
		len(res.Ensemble.Candidates)+len(res.Ensemble.Skipped), len(res.Forecast))
	// Output:
	// train=6 test=4 models=3 top=3 pairs=3 forecasts=4
}
