package main

import (
	"context"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/stackreg/config"
	"github.com/YuminosukeSato/stackreg/dataset"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pipeline"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
	"github.com/YuminosukeSato/stackreg/report"
)

type runOptions struct {
	features    string
	featuresDir string
	target      string
	series      bool
	configPath  string
	top         int
	split       float64
	transforms  string
	workers     int
	logLevel    string
	jsonOut     bool
	plotPath    string
	quiet       bool
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit, select, stack and forecast",
		Long: `Loads the feature table and the target series concurrently, fits every subset
model of every configured transform on the training prefix, stacks the best
pairs and forecasts the held-out suffix.`,
		Example: `  stackreg run --features features.csv --target target.csv --top 5
  stackreg run --features-dir args/ --target harvest.csv --series --plot forecast.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.features, "features", "", "CSV table with one column per explanatory variable")
	f.StringVar(&o.featuresDir, "features-dir", "", "directory of series CSV files, one per explanatory variable")
	f.StringVar(&o.target, "target", "", "CSV file holding the target")
	f.BoolVar(&o.series, "series", false, "read --features and --target as label-prefixed series")
	f.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	f.IntVar(&o.top, "top", 0, "number of base models fed to the ensemble")
	f.Float64Var(&o.split, "split", 0, "training split ratio in (0, 1)")
	f.StringVar(&o.transforms, "transforms", "", "comma separated transforms (identity,square,cube,log)")
	f.IntVar(&o.workers, "workers", -1, "evaluation workers (0 = one per CPU)")
	f.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	f.BoolVar(&o.jsonOut, "json", false, "write the report as JSON")
	f.StringVar(&o.plotPath, "plot", "", "save a predicted-vs-actual chart (png, svg, pdf)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "disable the progress bar")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagsOneRequired("features", "features-dir")
	cmd.MarkFlagsMutuallyExclusive("features", "features-dir")
	return cmd
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command, o runOptions) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("top") {
		cfg.Top = o.top
	}
	if flags.Changed("split") {
		cfg.TrainingSplit = o.split
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("transforms") {
		cfg.Transforms = nil
		for _, s := range strings.Split(o.transforms, ",") {
			t, err := linear.ParseTransform(s)
			if err != nil {
				return config.Config{}, err
			}
			cfg.Transforms = append(cfg.Transforms, t)
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func sources(o runOptions) (features, target dataset.Source) {
	layout := dataset.Columns
	if o.series {
		layout = dataset.Series
	}
	if o.featuresDir != "" {
		features = dataset.SeriesDir{Dir: o.featuresDir}
	} else {
		features = dataset.CSVFile{Path: o.features, Layout: layout}
	}
	return features, dataset.CSVFile{Path: o.target, Layout: layout}
}

func runPipeline(cmd *cobra.Command, o runOptions) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.SetupZerolog(cmd.ErrOrStderr(), level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	features, target := sources(o)
	logger.Debug("Loading data",
		log.StageKey, log.StageLoad,
		log.SourceKey, features.Name()+","+target.Name(),
	)
	data, err := dataset.LoadConcurrently(ctx, features, target)
	if err != nil {
		log.LogError(err, "Data unavailable", log.StageKey, log.StageLoad)
		return err
	}
	logger.Info("Data loaded",
		log.StageKey, log.StageLoad,
		log.SamplesKey, data.Len(),
		log.FeaturesKey, data.NumFeatures(),
	)

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	var bar *pb.ProgressBar
	if !o.quiet {
		bar = pb.New(0)
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Start()
		opts = append(opts, pipeline.WithProgress(func(done, total int) {
			bar.SetTotal(int64(total))
			bar.SetCurrent(int64(done))
		}))
	}
	res, err := pipeline.Run(ctx, cfg, data, opts...)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.LogError(err, "Pipeline failed")
		return err
	}

	out := cmd.OutOrStdout()
	if o.jsonOut {
		err = report.WriteJSON(out, res)
	} else {
		err = report.WriteText(out, res)
	}
	if err != nil {
		return err
	}

	if o.plotPath != "" {
		title := "Forecast " + res.Ensemble.Best.ID().String()
		if err := report.PlotForecast(o.plotPath, res.Forecast, title); err != nil {
			return errors.Wrap(err, "plot")
		}
		logger.Info("Plot saved", log.SourceKey, o.plotPath)
	}
	return nil
}
