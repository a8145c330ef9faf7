// Package report renders pipeline results as text tables, JSON documents and a
// forecast chart.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/stackreg/ensemble"
	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pipeline"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Float marshals non-finite values as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(vs []float64) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// Model is the serialized form of a linear.Report.
type Model struct {
	ID              string   `json:"id"`
	Hash            string   `json:"hash"`
	Transform       string   `json:"transform"`
	Variables       []string `json:"variables"`
	Coefficients    []Float  `json:"coefficients"`
	RSquare         Float    `json:"r_square"`
	DurbinWatson    Float    `json:"durbin_watson"`
	AutoCorrelation bool     `json:"autocorrelation"`
	GoldfeldQuandt  Float    `json:"goldfeld_quandt"`
	Heteroscedastic bool     `json:"heteroscedastic"`
	FarrarGlauber   Float    `json:"farrar_glauber"`
	MultiCollinear  bool     `json:"multicollinear"`
}

// Unfit is the serialized form of a skipped model.
type Unfit struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Pair is the serialized form of one stacked candidate.
type Pair struct {
	Model
	First  string `json:"first"`
	Second string `json:"second"`
}

// Forecast is the serialized form of a forecast pair.
type Forecast struct {
	Index     int   `json:"index"`
	Predicted Float `json:"predicted"`
	Actual    Float `json:"actual"`
}

// Summary is the serialized form of ensemble.Summary.
type Summary struct {
	N    int   `json:"n"`
	MSE  Float `json:"mse"`
	RMSE Float `json:"rmse"`
	MAE  Float `json:"mae"`
	R2   Float `json:"r2"`
}

// Document is the JSON document of one run.
type Document struct {
	RunID        string     `json:"run_id"`
	TrainSamples int        `json:"train_samples"`
	TestSamples  int        `json:"test_samples"`
	Models       []Model    `json:"models"`
	Unfit        []Unfit    `json:"unfit"`
	Top          []string   `json:"top"`
	Best         *Pair      `json:"best"`
	Candidates   []Pair     `json:"candidates"`
	SkippedPairs int        `json:"skipped_pairs"`
	Forecast     []Forecast `json:"forecast"`
	Summary      Summary    `json:"summary"`
}

// Namer maps a feature index to a variable name.
type Namer func(j int) string

// NewModel converts a report. Variable names come from name; a nil name uses the
// raw indices.
func NewModel(r *linear.Report, name Namer) Model {
	vars := make([]string, len(r.Subset))
	for i, j := range r.Subset {
		if name != nil {
			vars[i] = name(j)
		} else {
			vars[i] = strconv.Itoa(j)
		}
	}
	return Model{
		ID:              r.ID.String(),
		Hash:            r.ID.HashString(),
		Transform:       r.Transform.String(),
		Variables:       vars,
		Coefficients:    floats(r.Coefficients),
		RSquare:         Float(r.RSquare),
		DurbinWatson:    Float(r.DurbinWatson),
		AutoCorrelation: r.AutoCorrelation,
		GoldfeldQuandt:  Float(r.GoldfeldQuandt),
		Heteroscedastic: r.Heteroscedastic,
		FarrarGlauber:   Float(r.FarrarGlauber),
		MultiCollinear:  r.MultiCollinear,
	}
}

func newPair(p *ensemble.PairedModel) Pair {
	m := NewModel(p.Report, func(j int) string {
		if j == 0 {
			return p.First.ID().String()
		}
		return p.Second.ID().String()
	})
	return Pair{Model: m, First: p.First.ID().String(), Second: p.Second.ID().String()}
}

// NewDocument converts a pipeline result.
func NewDocument(res *pipeline.Result) Document {
	doc := Document{
		RunID:        res.RunID,
		TrainSamples: res.Train.Len(),
		TestSamples:  res.Test.Len(),
		Models:       make([]Model, 0, len(res.Models)),
		Unfit:        make([]Unfit, 0, len(res.Unfit)),
		Top:          make([]string, 0, len(res.Top)),
		Forecast:     make([]Forecast, 0, len(res.Forecast)),
		Summary: Summary{
			N:    res.Summary.N,
			MSE:  Float(res.Summary.MSE),
			RMSE: Float(res.Summary.RMSE),
			MAE:  Float(res.Summary.MAE),
			R2:   Float(res.Summary.R2),
		},
	}
	for _, r := range res.Models {
		doc.Models = append(doc.Models, NewModel(r, res.Train.Name))
	}
	for _, u := range res.Unfit {
		doc.Unfit = append(doc.Unfit, Unfit{ID: u.ID.String(), Kind: errors.KindOf(u.Err).String(), Error: u.Err.Error()})
	}
	for _, r := range res.Top {
		doc.Top = append(doc.Top, r.ID.String())
	}
	if res.Ensemble != nil {
		for _, c := range res.Ensemble.Candidates {
			doc.Candidates = append(doc.Candidates, newPair(c))
		}
		if res.Ensemble.Best != nil {
			best := newPair(res.Ensemble.Best)
			doc.Best = &best
		}
		doc.SkippedPairs = len(res.Ensemble.Skipped)
	}
	for _, p := range res.Forecast {
		doc.Forecast = append(doc.Forecast, Forecast{Index: p.Index, Predicted: Float(p.Predicted), Actual: Float(p.Actual)})
	}
	return doc
}

// WriteJSON writes the indented JSON document of res.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func flag(problem bool) string {
	if problem {
		return "yes"
	}
	return "no"
}

// WriteModels writes one line per report: R², Durbin–Watson value and flag,
// Goldfeld–Quandt ratio and flag, Farrar–Glauber statistic and flag.
func WriteModels(w io.Writer, reports []*linear.Report, name Namer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tVARIABLES\tR2\tDW\tAUTOCORR\tGQ\tHETERO\tFG\tMULTICOL")
	for i, r := range reports {
		m := NewModel(r, name)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, m.ID, strings.Join(m.Variables, ","),
			formatFloat(r.RSquare),
			formatFloat(r.DurbinWatson), flag(r.AutoCorrelation),
			formatFloat(r.GoldfeldQuandt), flag(r.Heteroscedastic),
			formatFloat(r.FarrarGlauber), flag(r.MultiCollinear),
		)
	}
	return tw.Flush()
}

// WriteForecast writes the held-out predictions next to the observed values.
func WriteForecast(w io.Writer, pairs []ensemble.ForecastPair) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "INDEX\tPREDICTED\tACTUAL\tERROR\t")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", p.Index,
			formatFloat(p.Predicted), formatFloat(p.Actual), formatFloat(p.Predicted-p.Actual))
	}
	return tw.Flush()
}

// WriteText writes the human-readable report of res.
func WriteText(w io.Writer, res *pipeline.Result) error {
	fmt.Fprintf(w, "run %s: %d training / %d test observations\n\n", res.RunID, res.Train.Len(), res.Test.Len())

	fmt.Fprintf(w, "Models (%d evaluated, %d unfit)\n", len(res.Models), len(res.Unfit))
	if err := WriteModels(w, res.Models, res.Train.Name); err != nil {
		return err
	}
	for _, u := range res.Unfit {
		fmt.Fprintf(w, "  unfit %s: %s\n", u.ID, errors.KindOf(u.Err))
	}

	if res.Ensemble != nil && res.Ensemble.Best != nil {
		best := res.Ensemble.Best
		fmt.Fprintf(w, "\nEnsemble (%d pairs, %d skipped)\n", len(res.Ensemble.Candidates), len(res.Ensemble.Skipped))
		fmt.Fprintf(w, "best %s = %s + %s, coefficients %s\n", best.ID(), best.First.ID(), best.Second.ID(),
			joinFloats(best.Report.Coefficients))
		reports := make([]*linear.Report, len(res.Ensemble.Candidates))
		for i, c := range res.Ensemble.Candidates {
			reports[i] = c.Report
		}
		if err := WriteModels(w, reports, nil); err != nil {
			return err
		}
	}

	if len(res.Forecast) > 0 {
		fmt.Fprintf(w, "\nForecast\n")
		if err := WriteForecast(w, res.Forecast); err != nil {
			return err
		}
		s := res.Summary
		_, err := fmt.Fprintf(w, "n=%d mse=%s rmse=%s mae=%s r2=%s\n",
			s.N, formatFloat(s.MSE), formatFloat(s.RMSE), formatFloat(s.MAE), formatFloat(s.R2))
		return err
	}
	return nil
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
