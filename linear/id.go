package linear

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ModelID identifies a model by its transform and variable subset. Stacked models
// derive their ID from the IDs of their two base models. IDs are comparable with ==.
type ModelID struct {
	key  string
	hash uint64
}

// NewModelID returns the ID of a model over subset with transform. The subset is
// sorted, so the order of indices does not matter.
func NewModelID(transform Transform, subset []int) ModelID {
	idx := append([]int(nil), subset...)
	sort.Ints(idx)

	var b strings.Builder
	b.WriteString(transform.String())
	b.WriteByte('[')
	for i, v := range idx {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')
	return newID(b.String())
}

// StackedID returns the ID of a model stacked on a and b.
func StackedID(a, b ModelID) ModelID {
	return newID("stack(" + a.key + "+" + b.key + ")")
}

func newID(key string) ModelID {
	return ModelID{key: key, hash: xxhash.Sum64String(key)}
}

// String returns the readable key, e.g. "square[0,2]".
func (id ModelID) String() string {
	return id.key
}

// Hash returns the 64-bit xxhash of the key.
func (id ModelID) Hash() uint64 {
	return id.hash
}

// HashString returns Hash as 16 hex digits.
func (id ModelID) HashString() string {
	return fmt.Sprintf("%016x", id.hash)
}

// IsZero reports whether id is the zero value.
func (id ModelID) IsZero() bool {
	return id.key == ""
}

// MarshalText implements encoding.TextMarshaler.
func (id ModelID) MarshalText() ([]byte, error) {
	return []byte(id.key), nil
}
