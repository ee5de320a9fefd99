package event

import (
	"fmt"

	"github.com/rs/xid"
)

// A Duration is the time span between two events that change the same
// parameter. Its time can be referenced by dependent events, for example to
// fire an event one switch interval after another. Parameter path, state and
// component index are copied from the start event when the duration is
// created and do not follow later changes.
type Duration struct {
	Event

	startEvent *Event
	endEvent   *Event
}

func newDuration(
	h *Handler,
	name string,
	start, end *Event,
	time float64,
) (*Duration, error) {
	if start.ParameterPath() != end.ParameterPath() {
		return nil, newError(ErrParameterMismatch, name,
			"start %q changes %q, end %q changes %q",
			start.Name(), start.ParameterPath(),
			end.Name(), end.ParameterPath())
	}

	if err := timeMustBeFinite(name, time); err != nil {
		return nil, err
	}

	d := &Duration{
		Event: Event{
			id:             xid.New().String(),
			name:           name,
			handler:        h,
			path:           start.path,
			componentIndex: start.componentIndex,
			state:          start.State(),
			time:           time,
		},
		startEvent: start,
		endEvent:   end,
	}
	d.self = d

	return d, nil
}

// StartEvent returns the event that opens the duration.
func (d *Duration) StartEvent() *Event {
	return d.startEvent
}

// EndEvent returns the event that closes the duration.
func (d *Duration) EndEvent() *Event {
	return d.endEvent
}

// SetState always fails. The state of a duration is fixed at creation.
func (d *Duration) SetState(any) error {
	return newError(ErrInvalidParameter, d.name, "state of a duration is not settable")
}

func (d *Duration) parameterNames() []string {
	return []string{"time"}
}

// Parameters returns the settable sub-parameters of the duration.
func (d *Duration) Parameters() map[string]any {
	return map[string]any{"time": d.time}
}

// SetParameters sets the time of the duration.
func (d *Duration) SetParameters(p map[string]any) error {
	return setEntityParameters(&d.Event, d.parameterNames(), p)
}

func (d *Duration) String() string {
	return fmt.Sprintf("Duration(name=%s, parameter_path=%s, state=%v, time=%g)",
		d.name, d.path.String(), d.state, d.Time())
}
