// Package timeline describes piecewise parameter profiles. A Timeline is an
// ordered sequence of half-open Sections; each Section holds either a constant
// value or the coefficients of a cubic polynomial in section-local time.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/sarchlab/evtsched/params"
)

// MaxDegree is the highest polynomial degree a PolynomialSection supports.
const MaxDegree = 3

var (
	ErrInvalidBounds       = errors.New("section end must be after start")
	ErrInvalidCoefficients = errors.New("invalid section coefficients")
	ErrSectionOverlap      = errors.New("sections overlap")
	ErrSectionGap          = errors.New("sections leave a gap")
	ErrOutOfRange          = errors.New("time outside timeline")
)

// A Section is the interval [Start, End) over which a parameter follows one
// value or one polynomial.
type Section struct {
	Start float64
	End   float64

	coefficients []float64
	polynomial   bool
}

// NewSection creates a section that holds a constant value. The state may be a
// scalar or a sequence.
func NewSection(start, end float64, state any) (*Section, error) {
	if err := boundsMustBeValid(start, end); err != nil {
		return nil, err
	}

	v, err := params.AsVector(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoefficients, err.Error())
	}

	return &Section{Start: start, End: end, coefficients: v}, nil
}

// NewPolynomialSection creates a section whose value is
// c0 + c1*(t-start) + c2*(t-start)^2 + c3*(t-start)^3. A scalar state is the
// constant term; missing higher-order coefficients are zero.
func NewPolynomialSection(start, end float64, state any) (*Section, error) {
	if err := boundsMustBeValid(start, end); err != nil {
		return nil, err
	}

	v, err := params.AsVector(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoefficients, err.Error())
	}

	if len(v) > MaxDegree+1 {
		return nil, fmt.Errorf("%w: %d coefficients exceed degree %d",
			ErrInvalidCoefficients, len(v), MaxDegree)
	}

	coefficients := make([]float64, MaxDegree+1)
	copy(coefficients, v)

	return &Section{
		Start:        start,
		End:          end,
		coefficients: coefficients,
		polynomial:   true,
	}, nil
}

func boundsMustBeValid(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || !(end > start) {
		return fmt.Errorf("%w: [%v, %v)", ErrInvalidBounds, start, end)
	}
	return nil
}

// IsPolynomial reports whether the section interpolates its value.
func (s *Section) IsPolynomial() bool {
	return s.polynomial
}

// Contains reports whether t lies in [Start, End).
func (s *Section) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Coefficients returns the constant value of a constant section or the
// polynomial coefficients, lowest order first, of a polynomial section.
func (s *Section) Coefficients() []float64 {
	return slices.Clone(s.coefficients)
}

// Value evaluates the section at time t.
func (s *Section) Value(t float64) []float64 {
	if !s.polynomial {
		return slices.Clone(s.coefficients)
	}

	dt := t - s.Start
	v := 0.0
	for i := len(s.coefficients) - 1; i >= 0; i-- {
		v = v*dt + s.coefficients[i]
	}

	return []float64{v}
}

func (s *Section) String() string {
	kind := "const"
	if s.polynomial {
		kind = "poly"
	}
	return fmt.Sprintf("[%g, %g) %s %v", s.Start, s.End, kind, s.coefficients)
}
