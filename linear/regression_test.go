package linear

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/stackreg/core/matrix"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// designOf prepends the intercept column to the given variable columns.
func designOf(t *testing.T, cols ...[]float64) *matrix.Matrix {
	t.Helper()
	n := len(cols[0])
	rows := make([][]float64, n)
	for i := range rows {
		row := []float64{1}
		for _, c := range cols {
			row = append(row, c[i])
		}
		rows[i] = row
	}
	m, err := matrix.New(rows)
	if err != nil {
		t.Fatalf("matrix.New: %v", err)
	}
	return m
}

var (
	x1 = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	x2 = []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
)

func TestCoefficients_ExactFit(t *testing.T) {
	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 2*x1[i] + 3*x2[i]
	}

	m, err := NewRegressionModel(designOf(t, x1, x2), y, Identity)
	if err != nil {
		t.Fatalf("NewRegressionModel() error = %v", err)
	}

	beta, err := m.Coefficients()
	if err != nil {
		t.Fatalf("Coefficients() error = %v", err)
	}
	want := []float64{0, 2, 3}
	for i, w := range want {
		if math.Abs(beta[i]-w) > 1e-8 {
			t.Errorf("beta[%d] = %v, want %v", i, beta[i], w)
		}
	}
	if !m.IsFitted() {
		t.Error("model should be fitted after Coefficients")
	}

	r2, err := m.RSquare()
	if err != nil {
		t.Fatalf("RSquare() error = %v", err)
	}
	if math.Abs(r2-1) > 1e-10 {
		t.Errorf("RSquare() = %v, want 1", r2)
	}
}

func TestCoefficients_ReturnsCopy(t *testing.T) {
	y := []float64{3, 5, 7, 9}
	m, err := NewRegressionModel(designOf(t, []float64{1, 2, 3, 4}), y, Identity)
	if err != nil {
		t.Fatal(err)
	}
	beta, _ := m.Coefficients()
	beta[0] = 1000
	again, _ := m.Coefficients()
	if math.Abs(again[0]-1) > 1e-10 {
		t.Errorf("cached coefficients were mutated: %v", again)
	}
}

func TestCoefficients_Singular(t *testing.T) {
	dup := make([]float64, len(x1))
	for i, v := range x1 {
		dup[i] = 2 * v
	}
	m, err := NewRegressionModel(designOf(t, x1, dup), x2, Identity)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Coefficients()
	if !errors.IsKind(err, errors.KindSingularMatrix) {
		t.Fatalf("Coefficients() err = %v, want SingularMatrix", err)
	}
	if !m.IsFailed() {
		t.Error("model should be marked failed")
	}

	// diagnostics surface the same failure without recomputing
	if _, err := m.RSquare(); !errors.IsKind(err, errors.KindSingularMatrix) {
		t.Errorf("RSquare() err = %v, want SingularMatrix", err)
	}
	if _, err := m.PredictY([]float64{1, 1, 2}); !errors.IsKind(err, errors.KindSingularMatrix) {
		t.Errorf("PredictY() err = %v, want SingularMatrix", err)
	}
}

func TestNewRegressionModel_Validation(t *testing.T) {
	good := designOf(t, []float64{1, 2, 3})
	noIntercept := matrix.Must([][]float64{{2, 1}, {1, 2}, {1, 3}})

	tests := []struct {
		name     string
		design   *matrix.Matrix
		target   []float64
		opts     []Option
		wantKind errors.Kind
	}{
		{"nil design", nil, []float64{1}, nil, errors.KindInvalidArgument},
		{"target length", good, []float64{1, 2}, nil, errors.KindDimensionMismatch},
		{"no intercept column", noIntercept, []float64{1, 2, 3}, nil, errors.KindInvalidArgument},
		{"nan target", good, []float64{1, math.NaN(), 3}, nil, errors.KindInvalidArgument},
		{"subset length", good, []float64{1, 2, 3}, []Option{WithSubset([]int{0, 1})}, errors.KindDimensionMismatch},
		{"bad thresholds", good, []float64{1, 2, 3}, []Option{WithThresholds(Thresholds{DL: 2, DU: 1, FisherValue: 1, XSquare: 1})}, errors.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegressionModel(tt.design, tt.target, Identity, tt.opts...)
			if got := errors.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf = %v, want %v (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestPredictY_InterceptNotTransformed(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 5 + 2*math.Log(v)
	}

	m, err := NewRegressionModel(designOf(t, x), y, NaturalLog)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.PredictY([]float64{1, math.E})
	if err != nil {
		t.Fatalf("PredictY() error = %v", err)
	}
	if math.Abs(got-7) > 1e-8 {
		t.Errorf("PredictY([1, e]) = %v, want 7", got)
	}

	if _, err := m.PredictY([]float64{1}); !errors.IsKind(err, errors.KindDimensionMismatch) {
		t.Errorf("PredictY() short row err = %v, want DimensionMismatch", err)
	}
}

func TestPredictFeatures_ProjectsSubset(t *testing.T) {
	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 1 + 4*x2[i]
	}
	// model over feature 1 only of a two-feature set
	m, err := NewRegressionModel(designOf(t, x2), y, Identity, WithSubset([]int{1}))
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.PredictFeatures([]float64{100, 2})
	if err != nil {
		t.Fatalf("PredictFeatures() error = %v", err)
	}
	if math.Abs(got-9) > 1e-8 {
		t.Errorf("PredictFeatures([100, 2]) = %v, want 9", got)
	}

	if _, err := m.PredictFeatures([]float64{100}); !errors.IsKind(err, errors.KindDimensionMismatch) {
		t.Errorf("PredictFeatures() short row err = %v, want DimensionMismatch", err)
	}
}

func TestPredictions_MatchPredictY(t *testing.T) {
	y := []float64{12.8, 8.1, 18.5, 11.7, 26.6, 39.3, 21.2, 35.4, 33.8, 29.4, 38.3, 49.1}
	design := designOf(t, x1, x2)
	m, err := NewRegressionModel(design, y, Square)
	if err != nil {
		t.Fatal(err)
	}

	preds, err := m.Predictions()
	if err != nil {
		t.Fatal(err)
	}
	for i := range preds {
		want, err := m.PredictY(design.Row(i))
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(preds[i]-want) > 1e-9 {
			t.Errorf("Predictions()[%d] = %v, PredictY = %v", i, preds[i], want)
		}
	}
}

func TestLogTransform_NonPositiveInput(t *testing.T) {
	m, err := NewRegressionModel(designOf(t, []float64{0, 1, 2, 3}), []float64{1, 2, 3, 4}, NaturalLog)
	if err != nil {
		t.Fatalf("construction should be lazy about transforms: %v", err)
	}
	if _, err := m.Coefficients(); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("Coefficients() err = %v, want InvalidArgument", err)
	}
}

func TestAccessors(t *testing.T) {
	m, err := NewRegressionModel(designOf(t, x1, x2), x1, Cube, WithSubset([]int{0, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if r, c := m.Size(); r != 12 || c != 3 {
		t.Errorf("Size() = (%d, %d), want (12, 3)", r, c)
	}
	if m.Transform() != Cube {
		t.Errorf("Transform() = %v", m.Transform())
	}
	if got := m.ID().String(); got != "cube[0,3]" {
		t.Errorf("ID() = %q, want cube[0,3]", got)
	}
	s := m.Subset()
	s[0] = 9
	if m.Subset()[0] != 0 {
		t.Error("Subset() exposed internal slice")
	}
}
