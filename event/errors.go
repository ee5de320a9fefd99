package event

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package wraps one of them, so
// callers can match with errors.Is.
var (
	ErrDuplicateName          = errors.New("duplicate name")
	ErrNotFound               = errors.New("not found")
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrIndexOutOfRange        = errors.New("component index out of range")
	ErrInvalidState           = errors.New("invalid state")
	ErrParameterMismatch      = errors.New("parameter paths do not match")
	ErrLengthMismatch         = errors.New("factors and independents differ in length")
	ErrCannotSetDependentTime = errors.New("cannot set time of dependent event")
	ErrDuplicateDependency    = errors.New("dependency already exists")
	ErrDependencyNotFound     = errors.New("dependency not found")
	ErrCyclicDependency       = errors.New("cyclic dependency")
	ErrHasDependents          = errors.New("entity has dependents")
	ErrInvalidEvent           = errors.New("invalid event")
	ErrInvalidCycleTime       = errors.New("invalid cycle time")
)

// Error reports a failed registry operation on a named event or duration.
type Error struct {
	Kind error
	Name string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	s := "event: " + e.Kind.Error()
	if e.Name != "" {
		s += fmt.Sprintf(" %q", e.Name)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}

	return s
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, name string, format string, args ...any) error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}
