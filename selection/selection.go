// Package selection ranks evaluated regression models.
//
// Models are ranked first by how close R² is to 1. When two models are within the
// tie window of each other, the one with fewer diagnostic problems wins, checking
// autocorrelation, then heteroscedasticity, then multicollinearity.
package selection

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// DefaultTieWindow is the R² distance below which diagnostics decide the order.
const DefaultTieWindow = 0.1

// Comparator orders reports best-first.
type Comparator struct {
	TieWindow float64
}

// NewComparator returns a comparator with the given tie window. A negative window
// falls back to DefaultTieWindow.
func NewComparator(tieWindow float64) Comparator {
	if tieWindow < 0 {
		tieWindow = DefaultTieWindow
	}
	return Comparator{TieWindow: tieWindow}
}

// Compare returns a negative number when a ranks before b, a positive number when
// b ranks before a, and 0 when neither is preferred.
func Compare(a, b *linear.Report, tieWindow float64) int {
	da := math.Abs(1 - a.RSquare)
	db := math.Abs(1 - b.RSquare)
	if math.Abs(da-db) > tieWindow {
		if da < db {
			return -1
		}
		return 1
	}
	if c := preferFalse(a.AutoCorrelation, b.AutoCorrelation); c != 0 {
		return c
	}
	if c := preferFalse(a.Heteroscedastic, b.Heteroscedastic); c != 0 {
		return c
	}
	return preferFalse(a.MultiCollinear, b.MultiCollinear)
}

func preferFalse(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Compare orders a and b with the comparator's tie window.
func (c Comparator) Compare(a, b *linear.Report) int {
	return Compare(a, b, c.TieWindow)
}

// Sort orders reports best-first in place. Reports the comparator does not
// distinguish keep their relative order.
func (c Comparator) Sort(reports []*linear.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return c.Compare(reports[i], reports[j]) < 0
	})
}

// SelectTop returns the n best reports without modifying the input. All reports are
// returned when n >= len(reports).
func (c Comparator) SelectTop(reports []*linear.Report, n int) ([]*linear.Report, error) {
	if n < 0 {
		return nil, errors.NewValidationError("n", "must be non-negative", n)
	}
	ranked := append([]*linear.Report(nil), reports...)
	c.Sort(ranked)
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n], nil
}

// Sort orders reports best-first with DefaultTieWindow.
func Sort(reports []*linear.Report) {
	NewComparator(DefaultTieWindow).Sort(reports)
}

// SelectTop returns the n best reports with DefaultTieWindow.
func SelectTop(reports []*linear.Report, n int) ([]*linear.Report, error) {
	return NewComparator(DefaultTieWindow).SelectTop(reports, n)
}
