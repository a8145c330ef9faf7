package linear

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Transform は説明変数に適用する変換。切片列（列0）には適用されない。
type Transform int

const (
	// Identity は x をそのまま使う
	Identity Transform = iota
	// Square は x² を使う
	Square
	// Cube は x³ を使う
	Cube
	// NaturalLog は ln(x) を使う。x <= 0 では非有限値になる。
	NaturalLog
)

// AllTransforms returns every transform in family order.
func AllTransforms() []Transform {
	return []Transform{Identity, Square, Cube, NaturalLog}
}

// Apply returns the transformed value.
func (t Transform) Apply(x float64) float64 {
	switch t {
	case Square:
		return x * x
	case Cube:
		return x * x * x
	case NaturalLog:
		return math.Log(x)
	default:
		return x
	}
}

// String returns the tag used in model IDs and configuration.
func (t Transform) String() string {
	switch t {
	case Identity:
		return "identity"
	case Square:
		return "square"
	case Cube:
		return "cube"
	case NaturalLog:
		return "log"
	default:
		return "unknown"
	}
}

// ParseTransform parses a transform tag. It is case-insensitive and accepts
// "ln" and "natural_log" as aliases of "log".
func ParseTransform(s string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "identity", "linear":
		return Identity, nil
	case "square":
		return Square, nil
	case "cube":
		return Cube, nil
	case "log", "ln", "natural_log":
		return NaturalLog, nil
	default:
		return Identity, errors.NewValidationError("transform", "unknown transform", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Transform) MarshalText() ([]byte, error) {
	if t < Identity || t > NaturalLog {
		return nil, errors.NewValidationError("transform", "unknown transform", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Transform) UnmarshalText(text []byte) error {
	v, err := ParseTransform(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
