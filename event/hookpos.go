package event

import "github.com/sarchlab/evtsched/hooking"

// Hook positions fired by a Handler after a mutation is committed. The hook
// item is the affected event or duration; dependency hooks carry the
// dependency as detail and HookPosTimeSet carries the time as set.
var (
	HookPosEventAdded        = &hooking.HookPos{Name: "EventAdded"}
	HookPosEventRemoved      = &hooking.HookPos{Name: "EventRemoved"}
	HookPosDurationAdded     = &hooking.HookPos{Name: "DurationAdded"}
	HookPosDurationRemoved   = &hooking.HookPos{Name: "DurationRemoved"}
	HookPosDependencyAdded   = &hooking.HookPos{Name: "DependencyAdded"}
	HookPosDependencyRemoved = &hooking.HookPos{Name: "DependencyRemoved"}
	HookPosStateWritten      = &hooking.HookPos{Name: "StateWritten"}
	HookPosTimeSet           = &hooking.HookPos{Name: "TimeSet"}
	HookPosCycleTimeSet      = &hooking.HookPos{Name: "CycleTimeSet"}
	HookPosParametersSet     = &hooking.HookPos{Name: "ParametersSet"}
)
