// Package stackreg builds families of ordinary least squares models over every
// subset of a fixed set of explanatory variables, scores them with classical
// regression diagnostics and stacks the best pairs into a second-stage model.
//
// # Overview
//
// A run takes equal-length feature columns and a target series, splits them into
// a training prefix and a held-out suffix, and then:
//
//  1. fits one model per non-empty variable subset and per transform
//     (identity, square, cube, natural log);
//  2. computes R², Durbin–Watson, Goldfeld–Quandt and Farrar–Glauber for each model;
//  3. ranks the models (R² distance to 1 first, then the absence of
//     autocorrelation, heteroscedasticity and multicollinearity);
//  4. regresses the target on the in-sample predictions of every pair of top models
//     and keeps the best stacked pair;
//  5. forecasts the held-out observations with that pair.
//
// # Quick Start
//
//	data, err := dataset.LoadConcurrently(ctx,
//	    dataset.CSVFile{Path: "features.csv"},
//	    dataset.CSVFile{Path: "target.csv"},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := pipeline.Run(ctx, config.Default(), data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.WriteText(os.Stdout, res)
//
// # Packages
//
//   - core/matrix: dense matrix algebra over gonum
//   - core/subset: binary-counter subset enumeration
//   - core/model: compute-once memo and estimator state
//   - core/parallel: parallel helpers
//   - linear: RegressionModel, transforms, thresholds, model families
//   - selection: model comparator and top-N selection
//   - ensemble: stacked pairs, forecast and summary
//   - dataset: CSV ingestion and the training split
//   - pipeline: end-to-end run
//   - report: text, JSON and chart output
//   - config: YAML configuration
//   - pkg/errors, pkg/log: error kinds and structured logging
//
// The stackreg command (cmd/stackreg) wires all of the above.
package stackreg
