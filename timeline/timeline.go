package timeline

import (
	"fmt"
	"sort"
)

// A Timeline is an ordered, non-overlapping sequence of sections.
type Timeline struct {
	sections []*Section
}

// New creates an empty Timeline.
func New() *Timeline {
	return &Timeline{}
}

// AddSection inserts a section, keeping the sections ordered by start time.
func (tl *Timeline) AddSection(s *Section) error {
	i := sort.Search(len(tl.sections), func(i int) bool {
		return tl.sections[i].Start >= s.Start
	})

	if i > 0 && tl.sections[i-1].End > s.Start {
		return fmt.Errorf("%w: %s and %s", ErrSectionOverlap, tl.sections[i-1], s)
	}

	if i < len(tl.sections) && tl.sections[i].Start < s.End {
		return fmt.Errorf("%w: %s and %s", ErrSectionOverlap, s, tl.sections[i])
	}

	tl.sections = append(tl.sections, nil)
	copy(tl.sections[i+1:], tl.sections[i:])
	tl.sections[i] = s

	return nil
}

// Sections returns the sections in time order.
func (tl *Timeline) Sections() []*Section {
	out := make([]*Section, len(tl.sections))
	copy(out, tl.sections)
	return out
}

// NumSections returns the number of sections.
func (tl *Timeline) NumSections() int {
	return len(tl.sections)
}

// Start returns the start of the first section.
func (tl *Timeline) Start() float64 {
	if len(tl.sections) == 0 {
		return 0
	}
	return tl.sections[0].Start
}

// End returns the end of the last section.
func (tl *Timeline) End() float64 {
	if len(tl.sections) == 0 {
		return 0
	}
	return tl.sections[len(tl.sections)-1].End
}

// Validate checks that the sections cover [start, end) without gaps.
func (tl *Timeline) Validate(start, end float64) error {
	if len(tl.sections) == 0 {
		return fmt.Errorf("%w: timeline is empty", ErrSectionGap)
	}

	if tl.Start() != start {
		return fmt.Errorf("%w: timeline starts at %g, want %g",
			ErrSectionGap, tl.Start(), start)
	}

	for i := 1; i < len(tl.sections); i++ {
		if tl.sections[i-1].End != tl.sections[i].Start {
			return fmt.Errorf("%w: between %s and %s",
				ErrSectionGap, tl.sections[i-1], tl.sections[i])
		}
	}

	if tl.End() != end {
		return fmt.Errorf("%w: timeline ends at %g, want %g",
			ErrSectionGap, tl.End(), end)
	}

	return nil
}

// SectionAt returns the section that contains t. The end of the last section
// is considered part of it so that a full cycle can be evaluated.
func (tl *Timeline) SectionAt(t float64) (*Section, error) {
	i := sort.Search(len(tl.sections), func(i int) bool {
		return tl.sections[i].End > t
	})

	if i < len(tl.sections) && tl.sections[i].Contains(t) {
		return tl.sections[i], nil
	}

	if n := len(tl.sections); n > 0 && t == tl.sections[n-1].End {
		return tl.sections[n-1], nil
	}

	return nil, fmt.Errorf("%w: %g", ErrOutOfRange, t)
}

// Value evaluates the timeline at time t.
func (tl *Timeline) Value(t float64) ([]float64, error) {
	s, err := tl.SectionAt(t)
	if err != nil {
		return nil, err
	}

	return s.Value(t), nil
}

// Coefficients returns the coefficients of the section active at time t.
// Simulators call it with section start times.
func (tl *Timeline) Coefficients(t float64) ([]float64, error) {
	s, err := tl.SectionAt(t)
	if err != nil {
		return nil, err
	}

	return s.Coefficients(), nil
}
