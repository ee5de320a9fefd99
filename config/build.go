package config

import (
	"fmt"

	"github.com/sarchlab/evtsched/event"
	"github.com/sarchlab/evtsched/hooking"
	"github.com/sarchlab/evtsched/params"
)

// Build creates the parameter tree and the handler described by s. Entries are
// applied in file order: parameters, events, durations, then dependencies.
// Hooks are attached before the first event is added.
func Build(s Schedule, hooks ...hooking.Hook) (*event.Handler, *params.Tree, error) {
	tree, err := buildTree(s.Parameters)
	if err != nil {
		return nil, nil, err
	}

	b := event.MakeBuilder().WithParameterStore(tree)
	for _, hook := range hooks {
		b = b.WithHook(hook)
	}
	h := b.Build()

	if s.CycleTime != 0 {
		if err := h.SetCycleTime(s.CycleTime); err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := addEvents(h, s.Events); err != nil {
		return nil, nil, err
	}

	if err := addDurations(h, s.Durations); err != nil {
		return nil, nil, err
	}

	if err := addDependencies(h, s.Dependencies); err != nil {
		return nil, nil, err
	}

	return h, tree, nil
}

func buildTree(ps []Parameter) (*params.Tree, error) {
	tree := params.NewTree()

	for i, p := range ps {
		kind, err := params.ParseKind(p.Kind)
		if err != nil {
			return nil, fmt.Errorf("config: parameters[%d]: %w", i, err)
		}

		if err := tree.Register(p.Path, p.Value, kind); err != nil {
			return nil, fmt.Errorf("config: parameters[%d]: %w", i, err)
		}
	}

	return tree, nil
}

func addEvents(h *event.Handler, es []Event) error {
	for _, e := range es {
		var opts []event.EventOption
		if e.ComponentIndex != nil {
			opts = append(opts, event.WithComponentIndex(*e.ComponentIndex))
		}

		if _, err := h.AddEvent(e.Name, e.Parameter, e.State, e.Time, opts...); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	return nil
}

func addDurations(h *event.Handler, ds []Duration) error {
	for _, d := range ds {
		if _, err := h.AddDuration(d.Name, d.Start, d.End, d.Time); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	return nil
}

func addDependencies(h *event.Handler, deps []Dependency) error {
	for _, d := range deps {
		factors := d.Factors
		if len(factors) == 0 {
			factors = nil
		}

		if err := h.AddEventDependency(d.Dependent, d.Independents, factors); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	return nil
}
