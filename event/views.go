package event

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sarchlab/evtsched/naming"
	"github.com/sarchlab/evtsched/timeline"
)

// Events returns all events ordered by resolved time. Events with equal time
// keep their registration order.
func (h *Handler) Events() []*Event {
	type timed struct {
		evt  *Event
		time float64
	}

	ts := make([]timed, len(h.events))
	for i, e := range h.events {
		ts[i] = timed{evt: e, time: e.Time()}
	}

	sort.SliceStable(ts, func(i, j int) bool { return ts[i].time < ts[j].time })

	out := make([]*Event, len(ts))
	for i, t := range ts {
		out[i] = t.evt
	}

	return out
}

// Durations returns all durations in registration order.
func (h *Handler) Durations() []*Duration {
	return slices.Clone(h.durations)
}

// IndependentEvents returns the events that own their time, ordered by time.
func (h *Handler) IndependentEvents() []*Event {
	return slices.DeleteFunc(h.Events(),
		func(e *Event) bool { return !e.IsIndependent() })
}

// DependentEvents returns the events whose time is derived, ordered by time.
func (h *Handler) DependentEvents() []*Event {
	return slices.DeleteFunc(h.Events(),
		func(e *Event) bool { return e.IsIndependent() })
}

// IndependentDurations returns the durations that own their time.
func (h *Handler) IndependentDurations() []*Duration {
	return slices.DeleteFunc(h.Durations(),
		func(d *Duration) bool { return !d.IsIndependent() })
}

// DependentDurations returns the durations whose time is derived.
func (h *Handler) DependentDurations() []*Duration {
	return slices.DeleteFunc(h.Durations(),
		func(d *Duration) bool { return d.IsIndependent() })
}

// EventTimes returns the distinct resolved event times in ascending order.
func (h *Handler) EventTimes() []float64 {
	times := make([]float64, 0, len(h.events))
	for _, e := range h.events {
		times = append(times, e.Time())
	}

	slices.Sort(times)

	return slices.Compact(times)
}

// SectionTimes returns the boundaries of the sections of one cycle. It always
// starts with 0 and ends with the cycle time.
func (h *Handler) SectionTimes() []float64 {
	times := h.EventTimes()
	if len(times) == 0 {
		return []float64{0, h.cycleTime}
	}

	if times[0] != 0 {
		times = append([]float64{0}, times...)
	}

	if times[len(times)-1] != h.cycleTime {
		times = append(times, h.cycleTime)
	}

	return times
}

// NSections returns the number of sections in one cycle.
func (h *Handler) NSections() int {
	return len(h.SectionTimes()) - 1
}

// EventParameters returns the distinct parameter paths changed by events, in
// lexical order.
func (h *Handler) EventParameters() []string {
	paths := make([]string, 0, len(h.events))
	for _, e := range h.events {
		paths = append(paths, e.ParameterPath())
	}

	slices.Sort(paths)

	return slices.Compact(paths)
}

// EventPerformers returns the distinct performers changed by events, in
// lexical order.
func (h *Handler) EventPerformers() []string {
	performers := make([]string, 0, len(h.events))
	for _, e := range h.events {
		performers = append(performers, e.Performer())
	}

	slices.Sort(performers)

	return slices.Compact(performers)
}

// ParameterEvents groups the time-ordered events by parameter path.
func (h *Handler) ParameterEvents() map[string][]*Event {
	out := make(map[string][]*Event)
	for _, e := range h.Events() {
		out[e.ParameterPath()] = append(out[e.ParameterPath()], e)
	}

	return out
}

// PerformerEvents groups the time-ordered events by performer.
func (h *Handler) PerformerEvents() map[string][]*Event {
	out := make(map[string][]*Event)
	for _, e := range h.Events() {
		out[e.Performer()] = append(out[e.Performer()], e)
	}

	return out
}

// ParameterTimelines builds one timeline per parameter path covering
// [0, cycle time).
//
// Each event holds its state until the next event of the same parameter. The
// last event holds until the end of the cycle and, when the first event is
// not at 0, also from 0 to the first event, since the schedule repeats.
func (h *Handler) ParameterTimelines() (map[string]*timeline.Timeline, error) {
	out := make(map[string]*timeline.Timeline)

	for path, events := range h.ParameterEvents() {
		tl, err := h.buildTimeline(path, events)
		if err != nil {
			return nil, err
		}

		out[path] = tl
	}

	return out, nil
}

type sectionFactory func(start, end float64, state any) (*timeline.Section, error)

func (h *Handler) buildTimeline(
	path string,
	events []*Event,
) (*timeline.Timeline, error) {
	newSection := sectionFactory(timeline.NewSection)
	if h.store.IsPolynomial(path) {
		newSection = timeline.NewPolynomialSection
	}

	times := make([]float64, len(events))
	for i, e := range events {
		times[i] = e.Time()
	}

	tl := timeline.New()
	add := func(start, end float64, e *Event) error {
		if end <= start {
			return nil
		}

		s, err := newSection(start, end, e.State())
		if err != nil {
			return newError(ErrInvalidState, e.Name(), "%s", err.Error())
		}

		return tl.AddSection(s)
	}

	last := len(events) - 1
	for i, e := range events {
		end := h.cycleTime
		if i < last {
			end = times[i+1]
		}

		if err := add(times[i], end, e); err != nil {
			return nil, err
		}
	}

	if times[0] != 0 {
		if err := add(0, times[0], events[last]); err != nil {
			return nil, err
		}
	}

	if err := tl.Validate(0, h.cycleTime); err != nil {
		return nil, fmt.Errorf("event: timeline of %q: %w", path, err)
	}

	return tl, nil
}

// PerformerTimelines groups the parameter timelines by performer. The inner
// map is keyed by the last element of the parameter path.
func (h *Handler) PerformerTimelines() (map[string]map[string]*timeline.Timeline, error) {
	timelines, err := h.ParameterTimelines()
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]*timeline.Timeline)
	for path, tl := range timelines {
		p, err := naming.ParsePath(path)
		if err != nil {
			return nil, err
		}

		performer := p.Performer()
		if out[performer] == nil {
			out[performer] = make(map[string]*timeline.Timeline)
		}
		out[performer][p.Leaf()] = tl
	}

	return out, nil
}

// SectionState holds the coefficients of every event parameter over one
// section of the cycle.
type SectionState struct {
	Start        float64
	End          float64
	Coefficients map[string][]float64
}

// SectionStates evaluates every parameter timeline at the start of every
// section. Simulators use it to set up one input block per section.
func (h *Handler) SectionStates() ([]SectionState, error) {
	timelines, err := h.ParameterTimelines()
	if err != nil {
		return nil, err
	}

	sectionTimes := h.SectionTimes()
	out := make([]SectionState, 0, len(sectionTimes)-1)
	for i := 0; i < len(sectionTimes)-1; i++ {
		state := SectionState{
			Start:        sectionTimes[i],
			End:          sectionTimes[i+1],
			Coefficients: make(map[string][]float64, len(timelines)),
		}

		for path, tl := range timelines {
			c, err := tl.Coefficients(state.Start)
			if err != nil {
				return nil, fmt.Errorf("event: timeline of %q: %w", path, err)
			}
			state.Coefficients[path] = c
		}

		out = append(out, state)
	}

	return out, nil
}
