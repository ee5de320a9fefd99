package event

import (
	"slices"
	"sort"
	"strings"

	"github.com/sarchlab/evtsched/params"
)

// Parameters returns the configuration of all independent events and
// durations as a flat map. Keys are CycleTimeKey, "<name>.time" and, for
// events, "<name>.state". Times are reported as stored, before the modulo
// reduction, so writing the map back reproduces the handler exactly.
func (h *Handler) Parameters() map[string]any {
	out := map[string]any{CycleTimeKey: h.cycleTime}

	for _, e := range h.IndependentEvents() {
		for k, v := range e.Parameters() {
			out[e.Name()+"."+k] = v
		}
	}

	for _, d := range h.IndependentDurations() {
		for k, v := range d.Parameters() {
			out[d.Name()+"."+k] = v
		}
	}

	return out
}

type parameterUpdate struct {
	entity Scheduled
	base   *Event

	hasTime bool
	time    float64

	hasState bool
	state    any
}

// SetParameters applies a flat parameter map as produced by Parameters. A key
// that is just an entity name sets the time of that entity. The cycle time is
// applied first. Keys that do not name an independent event or duration fail
// with ErrInvalidEvent. If any write fails, all changes are rolled back.
func (h *Handler) SetParameters(p map[string]any) error {
	newCycleTime, hasCycleTime, err := h.parseCycleTime(p)
	if err != nil {
		return err
	}

	updates, err := h.parseUpdates(p)
	if err != nil {
		return err
	}

	if err := h.applyUpdates(newCycleTime, hasCycleTime, updates); err != nil {
		return err
	}

	changed := make([]string, 0, len(updates))
	for _, u := range updates {
		changed = append(changed, u.entity.Name())
	}
	h.invokeHook(HookPosParametersSet, h, changed)

	return nil
}

func (h *Handler) parseCycleTime(p map[string]any) (float64, bool, error) {
	raw, ok := p[CycleTimeKey]
	if !ok {
		return 0, false, nil
	}

	t, err := toFloat(raw)
	if err != nil || !cycleTimeIsValid(t) {
		return 0, false, newError(ErrInvalidCycleTime, "", "%v", raw)
	}

	return t, true, nil
}

func (h *Handler) parseUpdates(p map[string]any) ([]*parameterUpdate, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k != CycleTimeKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	byName := make(map[string]*parameterUpdate)
	var updates []*parameterUpdate

	for _, key := range keys {
		name, sub, found := strings.Cut(key, ".")
		if !found {
			sub = "time"
		}

		u, ok := byName[name]
		if !ok {
			s, err := h.independentEntity(name)
			if err != nil {
				return nil, err
			}

			u = &parameterUpdate{entity: s, base: baseOf(s)}
			byName[name] = u
			updates = append(updates, u)
		}

		if err := u.set(sub, p[key]); err != nil {
			return nil, err
		}
	}

	return updates, nil
}

func (h *Handler) independentEntity(name string) (Scheduled, error) {
	s, ok := h.byName[name]
	if !ok {
		return nil, newError(ErrInvalidEvent, name, "no such event or duration")
	}

	if !s.IsIndependent() {
		return nil, newError(ErrInvalidEvent, name, "event is dependent")
	}

	return s, nil
}

func (u *parameterUpdate) set(sub string, value any) error {
	if !slices.Contains(parameterNamesOf(u.entity), sub) {
		return newError(ErrInvalidParameter, u.entity.Name(),
			"%q is not a settable parameter", sub)
	}

	switch sub {
	case "time":
		t, err := toFloat(value)
		if err != nil {
			return newError(ErrInvalidParameter, u.entity.Name(), "time: %s", err.Error())
		}

		if err := timeMustBeFinite(u.entity.Name(), t); err != nil {
			return err
		}

		u.hasTime = true
		u.time = t
	case "state":
		u.hasState = true
		u.state = value
	}

	return nil
}

type parameterSnapshot struct {
	base  *Event
	time  float64
	state any
}

func (h *Handler) applyUpdates(
	cycleTime float64,
	hasCycleTime bool,
	updates []*parameterUpdate,
) error {
	oldCycleTime := h.cycleTime

	snapshots := make([]parameterSnapshot, len(updates))
	storeValues := make(map[string]any)
	for i, u := range updates {
		snapshots[i] = parameterSnapshot{base: u.base, time: u.base.time, state: u.base.state}

		if !u.hasState {
			continue
		}

		path := u.base.ParameterPath()
		if _, ok := storeValues[path]; ok {
			continue
		}

		v, err := h.store.Get(path)
		if err != nil {
			return newError(ErrInvalidState, u.base.Name(), "%s", err.Error())
		}
		storeValues[path] = v
	}

	rollback := func() {
		for _, s := range snapshots {
			s.base.time = s.time
			s.base.state = s.state
		}

		for path, v := range storeValues {
			_ = h.store.Set(path, v)
		}

		h.cycleTime = oldCycleTime
	}

	if hasCycleTime {
		h.cycleTime = cycleTime
	}

	for _, u := range updates {
		if u.hasState {
			if err := u.base.writeState(u.state); err != nil {
				rollback()
				return err
			}
		}

		if u.hasTime {
			u.base.time = u.time
		}
	}

	return nil
}

func parameterNamesOf(s Scheduled) []string {
	if d, ok := s.(*Duration); ok {
		return d.parameterNames()
	}
	return baseOf(s).parameterNames()
}

// setEntityParameters implements SetParameters of a single event or duration.
func setEntityParameters(e *Event, names []string, p map[string]any) error {
	u := &parameterUpdate{entity: e.self, base: e}
	if !e.IsIndependent() {
		if _, ok := p["time"]; ok {
			return newError(ErrCannotSetDependentTime, e.name, "")
		}
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !slices.Contains(names, k) {
			return newError(ErrInvalidParameter, e.name,
				"%q is not a settable parameter", k)
		}

		if err := u.set(k, p[k]); err != nil {
			return err
		}
	}

	if u.hasState {
		if err := e.writeState(u.state); err != nil {
			return err
		}
	}

	if u.hasTime {
		e.time = u.time
	}

	e.handler.invokeHook(HookPosParametersSet, e.self, keys)

	return nil
}

func toFloat(v any) (float64, error) {
	n, err := params.Normalize(v)
	if err != nil {
		return 0, err
	}

	f, ok := n.(float64)
	if !ok {
		return 0, newError(ErrInvalidParameter, "", "expected a number, got a sequence")
	}

	return f, nil
}
