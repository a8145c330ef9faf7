// Package subset enumerates the non-empty subsets of an ordered collection.
//
// Subsets are produced in binary-counter order where the last item is the least
// significant bit: for [a, b] the order is {b}, {a}, {a, b}. Items keep their
// original relative order inside every subset.
package subset

import (
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// MaxItems bounds the input size. 2^MaxItems subsets is already far beyond memory.
const MaxItems = 30

func checkSize(op string, n int) error {
	if n > MaxItems {
		return errors.NewValidationError("items", op+": too many items for subset enumeration", n)
	}
	return nil
}

// Masks returns one inclusion mask per non-empty subset of n items.
func Masks(n int) ([][]bool, error) {
	if n < 0 {
		return nil, errors.NewValidationError("n", "must be non-negative", n)
	}
	if err := checkSize("Masks", n); err != nil {
		return nil, err
	}
	if n == 0 {
		return [][]bool{}, nil
	}

	total := (1 << uint(n)) - 1
	masks := make([][]bool, 0, total)
	for counter := 1; counter <= total; counter++ {
		mask := make([]bool, n)
		for i := 0; i < n; i++ {
			mask[i] = counter&(1<<uint(n-1-i)) != 0
		}
		masks = append(masks, mask)
	}
	return masks, nil
}

// Indices returns the same enumeration as Masks expressed as ascending index lists.
func Indices(n int) ([][]int, error) {
	masks, err := Masks(n)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(masks))
	for s, mask := range masks {
		idx := make([]int, 0, n)
		for i, in := range mask {
			if in {
				idx = append(idx, i)
			}
		}
		out[s] = idx
	}
	return out, nil
}

// Generate returns all 2^n - 1 non-empty subsets of items.
func Generate[T any](items []T) ([][]T, error) {
	indices, err := Indices(len(items))
	if err != nil {
		return nil, err
	}
	out := make([][]T, len(indices))
	for s, idx := range indices {
		out[s] = pick(items, idx)
	}
	return out, nil
}

// GenerateWithSize returns the subsets of items with exactly k elements, in the
// order Generate would produce them. k = 0 or k > len(items) yields no subsets.
func GenerateWithSize[T any](items []T, k int) ([][]T, error) {
	if k < 0 {
		return nil, errors.NewValidationError("k", "subset size must be non-negative", k)
	}
	indices, err := Indices(len(items))
	if err != nil {
		return nil, err
	}
	out := [][]T{}
	if k == 0 || k > len(items) {
		return out, nil
	}
	for _, idx := range indices {
		if len(idx) == k {
			out = append(out, pick(items, idx))
		}
	}
	return out, nil
}

func pick[T any](items []T, idx []int) []T {
	sub := make([]T, len(idx))
	for j, i := range idx {
		sub[j] = items[i]
	}
	return sub
}
