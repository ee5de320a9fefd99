package event

import (
	"github.com/rs/zerolog"
	"github.com/sarchlab/evtsched/hooking"
)

// LogHook writes every committed registry mutation to a zerolog logger.
// Additions and removals are logged at info level, everything else at debug
// level.
type LogHook struct {
	logger zerolog.Logger
}

// NewLogHook creates a LogHook.
func NewLogHook(logger zerolog.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the mutation described by ctx.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	var e *zerolog.Event
	switch ctx.Pos {
	case HookPosEventAdded, HookPosEventRemoved,
		HookPosDurationAdded, HookPosDurationRemoved:
		e = h.logger.Info()
	default:
		e = h.logger.Debug()
	}

	e = e.Str("pos", ctx.Pos.Name)

	switch item := ctx.Item.(type) {
	case *Event:
		e = e.Str("event", item.Name()).
			Str("parameter", item.ParameterPath()).
			Interface("state", item.State()).
			Float64("time", item.Time())
	case *Duration:
		e = e.Str("duration", item.Name()).
			Str("start", item.StartEvent().Name()).
			Str("end", item.EndEvent().Name()).
			Float64("time", item.Time())
	case float64:
		e = e.Float64("value", item)
	}

	if dep, ok := ctx.Detail.(Scheduled); ok {
		e = e.Str("dependency", dep.Name())
	}

	if t, ok := ctx.Detail.(float64); ok {
		e = e.Float64("stored_time", t)
	}

	if changed, ok := ctx.Detail.([]string); ok {
		e = e.Strs("changed", changed)
	}

	e.Msg("schedule changed")
}
