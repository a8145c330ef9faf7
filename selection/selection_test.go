package selection

import (
	"testing"

	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

func report(name string, r2 float64, auto, hetero, multi bool) *linear.Report {
	return &linear.Report{
		ID:              linear.NewModelID(linear.Identity, []int{len(name)}),
		RSquare:         r2,
		AutoCorrelation: auto,
		Heteroscedastic: hetero,
		MultiCollinear:  multi,
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b *linear.Report
		want int
	}{
		{"closer R2 wins", report("a", 0.95, true, true, true), report("b", 0.70, false, false, false), -1},
		{"farther R2 loses", report("a", 0.60, false, false, false), report("b", 0.90, true, true, true), 1},
		{"R2 above one measured by distance", report("a", 1.3, false, false, false), report("b", 0.95, false, false, false), 1},
		{"tie decided by autocorrelation", report("a", 0.90, true, false, false), report("b", 0.85, false, true, true), 1},
		{"tie decided by heteroscedasticity", report("a", 0.90, false, false, true), report("b", 0.92, false, true, false), -1},
		{"tie decided by multicollinearity", report("a", 0.90, false, false, true), report("b", 0.88, false, false, false), 1},
		{"full tie", report("a", 0.90, true, true, true), report("b", 0.95, true, true, true), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b, DefaultTieWindow); sign(got) != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := Compare(tt.b, tt.a, DefaultTieWindow); sign(got) != -tt.want {
				t.Errorf("Compare() reversed = %d, want %d", got, -tt.want)
			}
		})
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func TestCompare_TransitiveOutsideTieWindow(t *testing.T) {
	a := report("a", 0.98, true, true, true)
	b := report("bb", 0.80, false, false, false)
	c := report("ccc", 0.55, false, true, false)

	if Compare(a, b, DefaultTieWindow) >= 0 || Compare(b, c, DefaultTieWindow) >= 0 {
		t.Fatal("precondition: a < b < c")
	}
	if Compare(a, c, DefaultTieWindow) >= 0 {
		t.Error("comparator is not transitive for distances more than the tie window apart")
	}
}

func TestSelectTop(t *testing.T) {
	reports := []*linear.Report{
		report("a", 0.50, false, false, false),
		report("bb", 0.99, true, false, false),
		report("ccc", 0.97, false, false, false),
		report("dddd", 0.70, false, false, false),
	}

	top, err := SelectTop(reports, 2)
	if err != nil {
		t.Fatalf("SelectTop() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	// 0.99 and 0.97 tie on R2; the one without autocorrelation wins
	if top[0] != reports[2] || top[1] != reports[1] {
		t.Errorf("top = [%v %v], want [%v %v]", top[0].ID, top[1].ID, reports[2].ID, reports[1].ID)
	}
	if reports[0].RSquare != 0.50 {
		t.Error("SelectTop modified its input order")
	}

	all, _ := SelectTop(reports, 10)
	if len(all) != 4 {
		t.Errorf("SelectTop(10) returned %d reports, want 4", len(all))
	}

	if _, err := SelectTop(reports, -1); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("SelectTop(-1) err = %v, want InvalidArgument", err)
	}
}

func TestComparator_TieWindow(t *testing.T) {
	a := report("a", 0.90, true, false, false)
	b := report("bb", 0.80, false, false, false)

	if NewComparator(0.05).Compare(a, b) >= 0 {
		t.Error("narrow window: higher R2 should win")
	}
	if NewComparator(0.2).Compare(a, b) <= 0 {
		t.Error("wide window: model without autocorrelation should win")
	}
	if NewComparator(-1).TieWindow != DefaultTieWindow {
		t.Error("negative window should fall back to the default")
	}
}

func TestSort_Stable(t *testing.T) {
	reports := []*linear.Report{
		report("a", 0.90, false, false, false),
		report("bb", 0.91, false, false, false),
		report("ccc", 0.20, false, false, false),
	}
	Sort(reports)
	if reports[0].ID.String() != "identity[1]" || reports[1].ID.String() != "identity[2]" {
		t.Errorf("tied reports reordered: %v, %v", reports[0].ID, reports[1].ID)
	}
}
