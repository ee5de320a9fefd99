package params

import (
	"fmt"
	"math"
	"slices"
)

// normalize converts a supported numeric value into float64 or []float64.
// Values decoded from YAML, JSON or TOML arrive as int, int64, float64 or
// []any and are accepted here.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []float64:
		for _, x := range v {
			if _, err := finite(x); err != nil {
				return nil, err
			}
		}
		return slices.Clone(v), nil
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(v))
		for i, x := range v {
			n, err := normalize(x)
			if err != nil {
				return nil, err
			}

			f, ok := n.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: nested sequences are not supported", ErrNotNumeric)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotNumeric, value)
	}
}

func finite(v float64) (any, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %v is not finite", ErrNotNumeric, v)
	}
	return v, nil
}

func clone(value any) any {
	if v, ok := value.([]float64); ok {
		return slices.Clone(v)
	}
	return value
}

// IsSequence reports whether a stored value is a sequence.
func IsSequence(value any) bool {
	_, ok := value.([]float64)
	return ok
}

// AsVector returns a stored or user-provided value as a vector. Scalars become
// one-element vectors.
func AsVector(value any) ([]float64, error) {
	n, err := normalize(value)
	if err != nil {
		return nil, err
	}

	if v, ok := n.([]float64); ok {
		return v, nil
	}

	return []float64{n.(float64)}, nil
}

// Normalize exposes the numeric normalization used by the tree.
func Normalize(value any) (any, error) {
	return normalize(value)
}
