package event

import (
	"math"
	"slices"
	"strings"

	"github.com/sarchlab/evtsched/hooking"
)

// DefaultCycleTime is the cycle time of a handler built without
// WithCycleTime.
const DefaultCycleTime = 10.0

// CycleTimeKey is the key of the cycle time in the flat parameter map.
const CycleTimeKey = "cycle_time"

// Handler is the registry of the events and durations of one scheduling
// domain.
//
// Handler is not safe for concurrent mutation. Queries are pure reads and may
// run concurrently as long as no goroutine mutates the handler.
type Handler struct {
	*hooking.HookableBase

	cycleTime float64
	store     ParameterStore

	events    []*Event
	durations []*Duration
	byName    map[string]Scheduled
}

// Builder builds Handlers.
type Builder struct {
	cycleTime float64
	store     ParameterStore
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with the default cycle time.
func MakeBuilder() Builder {
	return Builder{cycleTime: DefaultCycleTime}
}

// WithCycleTime sets the cycle time.
func (b Builder) WithCycleTime(t float64) Builder {
	b.cycleTime = t
	return b
}

// WithParameterStore sets the store that events write their states into.
func (b Builder) WithParameterStore(s ParameterStore) Builder {
	b.store = s
	return b
}

// WithHook registers a hook on the handler being built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(slices.Clone(b.hooks), hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.store == nil {
		panic("event: a parameter store is required")
	}

	if !cycleTimeIsValid(b.cycleTime) {
		panic("event: cycle time must be a positive finite number")
	}
}

// Build creates the handler. It panics if no parameter store is set or the
// cycle time is not positive.
func (b Builder) Build() *Handler {
	b.parametersMustBeValid()

	h := &Handler{
		HookableBase: hooking.NewHookableBase(),
		cycleTime:    b.cycleTime,
		store:        b.store,
		byName:       make(map[string]Scheduled),
	}

	for _, hook := range b.hooks {
		h.AcceptHook(hook)
	}

	return h
}

func cycleTimeIsValid(t float64) bool {
	return t > 0 && !math.IsInf(t, 0) && !math.IsNaN(t)
}

func (h *Handler) invokeHook(pos *hooking.HookPos, item, detail any) {
	if h.NumHooks() == 0 {
		return
	}

	h.InvokeHook(hooking.HookCtx{
		Domain: h,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

// CycleTime returns the period of the schedule.
func (h *Handler) CycleTime() float64 {
	return h.cycleTime
}

// SetCycleTime changes the period of the schedule.
func (h *Handler) SetCycleTime(t float64) error {
	if !cycleTimeIsValid(t) {
		return newError(ErrInvalidCycleTime, "", "%v", t)
	}

	h.cycleTime = t
	h.invokeHook(HookPosCycleTimeSet, t, nil)

	return nil
}

// Store returns the parameter store of the handler.
func (h *Handler) Store() ParameterStore {
	return h.store
}

// Lookup returns the event or duration registered under name.
func (h *Handler) Lookup(name string) (Scheduled, bool) {
	s, ok := h.byName[name]
	return s, ok
}

// Event returns the event registered under name.
func (h *Handler) Event(name string) (*Event, bool) {
	e, ok := h.byName[name].(*Event)
	return e, ok
}

// Duration returns the duration registered under name.
func (h *Handler) Duration(name string) (*Duration, bool) {
	d, ok := h.byName[name].(*Duration)
	return d, ok
}

func nameMustBeValid(name string) error {
	if name == "" {
		return newError(ErrInvalidEvent, name, "name must not be empty")
	}

	if strings.Contains(name, ".") {
		return newError(ErrInvalidEvent, name, "name must not contain dots")
	}

	if name == CycleTimeKey {
		return newError(ErrInvalidEvent, name, "name is reserved")
	}

	return nil
}

func (h *Handler) nameMustBeFree(name string) error {
	if err := nameMustBeValid(name); err != nil {
		return err
	}

	if _, exists := h.byName[name]; exists {
		return newError(ErrDuplicateName, name, "")
	}

	return nil
}

// AddEvent creates an event and registers it. The state is written through to
// the parameter store.
func (h *Handler) AddEvent(
	name, parameterPath string,
	state any,
	time float64,
	opts ...EventOption,
) (*Event, error) {
	if err := h.nameMustBeFree(name); err != nil {
		return nil, err
	}

	e, err := newEvent(h, name, parameterPath, state, time, opts...)
	if err != nil {
		return nil, err
	}

	h.events = append(h.events, e)
	h.byName[name] = e
	h.invokeHook(HookPosEventAdded, e, nil)

	return e, nil
}

// RemoveEvent unregisters an event. Events that other events or durations
// depend on, or that bound a duration, cannot be removed.
func (h *Handler) RemoveEvent(name string) error {
	e, ok := h.Event(name)
	if !ok {
		return newError(ErrNotFound, name, "no such event")
	}

	if err := h.mustHaveNoDependents(e); err != nil {
		return err
	}

	h.events = slices.DeleteFunc(h.events, func(x *Event) bool { return x == e })
	delete(h.byName, name)
	h.invokeHook(HookPosEventRemoved, e, nil)

	return nil
}

// AddDuration registers a duration between two existing events.
func (h *Handler) AddDuration(
	name, startEvent, endEvent string,
	time float64,
) (*Duration, error) {
	if err := h.nameMustBeFree(name); err != nil {
		return nil, err
	}

	start, ok := h.Event(startEvent)
	if !ok {
		return nil, newError(ErrNotFound, startEvent, "start event of %q", name)
	}

	end, ok := h.Event(endEvent)
	if !ok {
		return nil, newError(ErrNotFound, endEvent, "end event of %q", name)
	}

	d, err := newDuration(h, name, start, end, time)
	if err != nil {
		return nil, err
	}

	h.durations = append(h.durations, d)
	h.byName[name] = d
	h.invokeHook(HookPosDurationAdded, d, nil)

	return d, nil
}

// RemoveDuration unregisters a duration that nothing depends on.
func (h *Handler) RemoveDuration(name string) error {
	d, ok := h.Duration(name)
	if !ok {
		return newError(ErrNotFound, name, "no such duration")
	}

	if err := h.mustHaveNoDependents(d); err != nil {
		return err
	}

	h.durations = slices.DeleteFunc(h.durations,
		func(x *Duration) bool { return x == d })
	delete(h.byName, name)
	h.invokeHook(HookPosDurationRemoved, d, nil)

	return nil
}

func (h *Handler) mustHaveNoDependents(s Scheduled) error {
	dependents := h.Dependents(s.Name())
	if len(dependents) == 0 {
		return nil
	}

	names := make([]string, len(dependents))
	for i, d := range dependents {
		names[i] = d.Name()
	}

	return newError(ErrHasDependents, s.Name(),
		"required by %s", strings.Join(names, ", "))
}

// Dependents returns the entities whose time depends on the named entity,
// followed by the durations it bounds. The result is derived from the current
// dependency edges on every call.
func (h *Handler) Dependents(name string) []Scheduled {
	target, ok := h.byName[name]
	if !ok {
		return nil
	}

	var out []Scheduled
	for _, e := range h.events {
		if e.dependsOn(target) {
			out = append(out, e)
		}
	}

	for _, d := range h.durations {
		if d.dependsOn(target) ||
			Scheduled(d.startEvent) == target ||
			Scheduled(d.endEvent) == target {
			out = append(out, d)
		}
	}

	return out
}

// AddEventDependency makes the time of dependent a linear combination of the
// times of independents. With nil factors every factor is 1. All names,
// lengths, duplicates and cycles are checked before any edge is attached.
func (h *Handler) AddEventDependency(
	dependent string,
	independents []string,
	factors []float64,
) error {
	evt, ok := h.byName[dependent]
	if !ok {
		return newError(ErrNotFound, dependent, "dependent event")
	}

	deps, err := h.lookupAll(independents)
	if err != nil {
		return err
	}

	if factors == nil {
		factors = make([]float64, len(deps))
		for i := range factors {
			factors[i] = 1
		}
	}

	if len(factors) != len(deps) {
		return newError(ErrLengthMismatch, dependent,
			"%d factors for %d independents", len(factors), len(deps))
	}

	base := baseOf(evt)
	for i, dep := range deps {
		if slices.Contains(deps[:i], dep) {
			return newError(ErrDuplicateDependency, dependent,
				"%q listed twice", dep.Name())
		}

		if err := base.dependencyMustBeAddable(dep, factors[i]); err != nil {
			return err
		}
	}

	for i, dep := range deps {
		base.dependencies = append(base.dependencies, dep)
		base.factors = append(base.factors, factors[i])
		h.invokeHook(HookPosDependencyAdded, evt, dep)
	}

	return nil
}

// RemoveEventDependency detaches independents from dependent. Nothing is
// detached unless every independent is currently a dependency.
func (h *Handler) RemoveEventDependency(
	dependent string,
	independents []string,
) error {
	evt, ok := h.byName[dependent]
	if !ok {
		return newError(ErrNotFound, dependent, "dependent event")
	}

	deps, err := h.lookupAll(independents)
	if err != nil {
		return err
	}

	base := baseOf(evt)
	for i, dep := range deps {
		if !base.dependsOn(dep) || slices.Contains(deps[:i], dep) {
			return newError(ErrDependencyNotFound, dependent, "%q", dep.Name())
		}
	}

	for _, dep := range deps {
		if err := base.removeDependency(dep); err != nil {
			return err
		}
		h.invokeHook(HookPosDependencyRemoved, evt, dep)
	}

	return nil
}

func (h *Handler) lookupAll(names []string) ([]Scheduled, error) {
	out := make([]Scheduled, len(names))
	for i, name := range names {
		s, ok := h.byName[name]
		if !ok {
			return nil, newError(ErrNotFound, name, "independent event")
		}
		out[i] = s
	}

	return out, nil
}

// baseOf returns the Event part of an entity.
func baseOf(s Scheduled) *Event {
	switch v := s.(type) {
	case *Event:
		return v
	case *Duration:
		return &v.Event
	default:
		panic("event: unknown entity type")
	}
}
