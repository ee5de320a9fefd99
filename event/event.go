// Package event schedules parameter changes over a cyclic time axis.
//
// A Handler owns a set of Events and Durations. An Event sets a parameter of
// the process model to a state at a time. The time is either owned by the
// event (independent) or computed from a linear combination of the times of
// other events and durations (dependent). All times are reduced modulo the
// cycle time of the Handler. From the events, the Handler derives the section
// grid and a piecewise timeline for every parameter.
package event

import (
	"fmt"
	"math"
	"slices"

	"github.com/rs/xid"
	"github.com/sarchlab/evtsched/naming"
	"github.com/sarchlab/evtsched/params"
)

// NoComponentIndex marks an event that sets the whole parameter.
const NoComponentIndex = -1

// A Scheduled is an Event or a Duration. Dependent events refer to their
// dependencies through this interface.
type Scheduled interface {
	fmt.Stringer

	// ID returns a unique instance identifier.
	ID() string

	// Name returns the name under which the handler registered the entity.
	Name() string

	// Time returns the resolved time in [0, cycle time).
	Time() float64

	// Dependencies returns the entities the time depends on.
	Dependencies() []Scheduled

	// Factors returns the coefficients paired with Dependencies.
	Factors() []float64

	// IsIndependent reports whether the entity owns its time.
	IsIndependent() bool
}

// Event changes one parameter of the process model at one point of the cycle.
type Event struct {
	id      string
	name    string
	handler *Handler
	self    Scheduled

	path           naming.Path
	componentIndex int
	state          any
	time           float64

	dependencies []Scheduled
	factors      []float64
}

// EventOption configures optional properties of a new event.
type EventOption func(e *Event)

// WithComponentIndex makes the event set a single entry of a sequence
// parameter.
func WithComponentIndex(i int) EventOption {
	return func(e *Event) {
		e.componentIndex = i
	}
}

func newEvent(
	h *Handler,
	name, path string,
	state any,
	time float64,
	opts ...EventOption,
) (*Event, error) {
	e := &Event{
		id:             xid.New().String(),
		name:           name,
		handler:        h,
		componentIndex: NoComponentIndex,
	}
	e.self = e

	for _, opt := range opts {
		opt(e)
	}

	if err := e.setParameterPath(path); err != nil {
		return nil, err
	}

	if err := e.componentIndexMustBeValid(); err != nil {
		return nil, err
	}

	if err := timeMustBeFinite(name, time); err != nil {
		return nil, err
	}

	if err := e.writeState(state); err != nil {
		return nil, err
	}

	e.time = time

	return e, nil
}

func (e *Event) setParameterPath(path string) error {
	p, err := naming.ParsePath(path)
	if err != nil {
		return newError(ErrInvalidParameter, e.name, "%s", err.Error())
	}

	if !e.handler.store.IsSectionDependent(path) {
		return newError(ErrInvalidParameter, e.name,
			"%q is not a section dependent parameter", path)
	}

	e.path = p

	return nil
}

func (e *Event) componentIndexMustBeValid() error {
	if e.componentIndex == NoComponentIndex {
		return nil
	}

	current, err := e.handler.store.Get(e.path.String())
	if err != nil {
		return newError(ErrInvalidParameter, e.name, "%s", err.Error())
	}

	seq, ok := current.([]float64)
	if !ok {
		return newError(ErrIndexOutOfRange, e.name,
			"%q is not a sequence", e.path.String())
	}

	if e.componentIndex < 0 || e.componentIndex >= len(seq) {
		return newError(ErrIndexOutOfRange, e.name,
			"index %d exceeds %d components", e.componentIndex, len(seq))
	}

	return nil
}

func timeMustBeFinite(name string, t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return newError(ErrInvalidParameter, name, "time %v is not finite", t)
	}
	return nil
}

// ID returns the unique instance identifier of the event.
func (e *Event) ID() string {
	return e.id
}

// Name returns the name of the event.
func (e *Event) Name() string {
	return e.name
}

// ParameterPath returns the dot path of the parameter the event changes.
func (e *Event) ParameterPath() string {
	return e.path.String()
}

// ParameterSequence returns the elements of the parameter path.
func (e *Event) ParameterSequence() []string {
	return slices.Clone(e.path.Tokens)
}

// Performer returns the path of the object whose parameter is changed.
func (e *Event) Performer() string {
	return e.path.Performer()
}

// ComponentIndex returns the sequence index the event writes, or
// NoComponentIndex.
func (e *Event) ComponentIndex() int {
	return e.componentIndex
}

// State returns the value read back from the parameter store when the state
// was last written. With a component index it is the whole sequence.
func (e *Event) State() any {
	if seq, ok := e.state.([]float64); ok {
		return slices.Clone(seq)
	}
	return e.state
}

// SetState writes the state through to the parameter store and records the
// value the store holds afterwards.
func (e *Event) SetState(state any) error {
	if _, ok := e.self.(*Duration); ok {
		return newError(ErrInvalidParameter, e.name, "state of a duration is not settable")
	}

	if err := e.writeState(state); err != nil {
		return err
	}

	e.handler.invokeHook(HookPosStateWritten, e.self, nil)

	return nil
}

func (e *Event) writeState(state any) error {
	store := e.handler.store
	path := e.path.String()

	if e.componentIndex == NoComponentIndex {
		if err := store.Set(path, state); err != nil {
			return newError(ErrInvalidState, e.name, "%s", err.Error())
		}

		stored, err := store.Get(path)
		if err != nil {
			return newError(ErrInvalidState, e.name, "%s", err.Error())
		}

		e.state = stored

		return nil
	}

	return e.writeComponentState(path, state)
}

func (e *Event) writeComponentState(path string, state any) error {
	store := e.handler.store

	current, err := store.Get(path)
	if err != nil {
		return newError(ErrInvalidState, e.name, "%s", err.Error())
	}

	seq, ok := current.([]float64)
	if !ok || e.componentIndex >= len(seq) {
		return newError(ErrIndexOutOfRange, e.name,
			"index %d is not valid for %q", e.componentIndex, path)
	}

	v, err := params.Normalize(state)
	if err != nil {
		return newError(ErrInvalidState, e.name, "%s", err.Error())
	}

	f, ok := v.(float64)
	if !ok {
		return newError(ErrInvalidState, e.name,
			"component %d of %q takes a scalar", e.componentIndex, path)
	}

	next := slices.Clone(seq)
	next[e.componentIndex] = f
	if err := store.Set(path, next); err != nil {
		return newError(ErrInvalidState, e.name, "%s", err.Error())
	}

	stored, err := store.Get(path)
	if err != nil {
		return newError(ErrInvalidState, e.name, "%s", err.Error())
	}

	storedSeq, ok := stored.([]float64)
	if !ok || e.componentIndex >= len(storedSeq) {
		return newError(ErrInvalidState, e.name,
			"%q no longer holds a sequence", path)
	}

	e.state = slices.Clone(storedSeq)

	return nil
}

// writtenState returns the part of the state the event writes: the whole
// state, or the entry at the component index.
func (e *Event) writtenState() any {
	seq, ok := e.state.([]float64)
	if e.componentIndex == NoComponentIndex || !ok ||
		e.componentIndex >= len(seq) {
		return e.State()
	}

	return seq[e.componentIndex]
}

// Time returns the time of the event in [0, cycle time). The time of a
// dependent event is recomputed from its dependencies on every call.
func (e *Event) Time() float64 {
	return resolveTime(e, e.handler.cycleTime)
}

// StoredTime returns the time as it was last set, before the modulo
// reduction. It is ignored while the event has dependencies.
func (e *Event) StoredTime() float64 {
	return e.time
}

// SetTime sets the time of an independent event.
func (e *Event) SetTime(t float64) error {
	if !e.IsIndependent() {
		return newError(ErrCannotSetDependentTime, e.name, "")
	}

	if err := timeMustBeFinite(e.name, t); err != nil {
		return err
	}

	e.time = t

	e.handler.invokeHook(HookPosTimeSet, e.self, t)

	return nil
}

// Dependencies returns the entities the time of the event depends on.
func (e *Event) Dependencies() []Scheduled {
	return slices.Clone(e.dependencies)
}

// Factors returns the linear coefficients paired with Dependencies.
func (e *Event) Factors() []float64 {
	return slices.Clone(e.factors)
}

// IsIndependent reports whether the event owns its time.
func (e *Event) IsIndependent() bool {
	return len(e.dependencies) == 0
}

// addDependency makes the time of the event depend on dep, weighted by factor.
// Edges are only attached through the handler so that Dependents sees them.
func (e *Event) addDependency(dep Scheduled, factor float64) error {
	if err := e.dependencyMustBeAddable(dep, factor); err != nil {
		return err
	}

	e.dependencies = append(e.dependencies, dep)
	e.factors = append(e.factors, factor)

	return nil
}

func (e *Event) dependencyMustBeAddable(dep Scheduled, factor float64) error {
	if dep == nil {
		return newError(ErrNotFound, e.name, "dependency is nil")
	}

	if baseOf(dep).handler != e.handler {
		return newError(ErrNotFound, e.name,
			"%q belongs to another handler", dep.Name())
	}

	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return newError(ErrInvalidParameter, e.name,
			"factor %v for %q is not finite", factor, dep.Name())
	}

	if slices.Contains(e.dependencies, dep) {
		return newError(ErrDuplicateDependency, e.name, "%q", dep.Name())
	}

	if cycle, found := findPath(dep, e.self); found {
		return newError(ErrCyclicDependency, e.name,
			"%s", formatCycle(e.name, cycle))
	}

	return nil
}

// removeDependency detaches dep from the event.
func (e *Event) removeDependency(dep Scheduled) error {
	i := slices.Index(e.dependencies, dep)
	if i < 0 {
		name := "<nil>"
		if dep != nil {
			name = dep.Name()
		}
		return newError(ErrDependencyNotFound, e.name, "%q", name)
	}

	e.dependencies = slices.Delete(e.dependencies, i, i+1)
	e.factors = slices.Delete(e.factors, i, i+1)

	return nil
}

func (e *Event) dependsOn(s Scheduled) bool {
	return slices.Contains(e.dependencies, s)
}

// parameterNames lists the sub-parameters that can be set through
// SetParameters.
func (e *Event) parameterNames() []string {
	return []string{"time", "state"}
}

// Parameters returns the settable sub-parameters of the event.
func (e *Event) Parameters() map[string]any {
	return map[string]any{
		"time":  e.time,
		"state": e.writtenState(),
	}
}

// SetParameters sets the sub-parameters of the event. Unknown names fail
// with ErrInvalidParameter and leave the event unchanged.
func (e *Event) SetParameters(p map[string]any) error {
	return setEntityParameters(e, parameterNamesOf(e.self), p)
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(name=%s, parameter_path=%s, state=%v, time=%g)",
		e.name, e.path.String(), e.state, e.Time())
}
