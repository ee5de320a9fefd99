// Package hooking lets observers attach to a registry and be notified after
// each mutation it commits.
package hooking

import "slices"

// HookPos names the mutation a hook is fired for.
type HookPos struct {
	Name string
}

// HookCtx describes one committed mutation.
type HookCtx struct {
	// Domain fired the hook.
	Domain Hookable

	// Pos is the kind of mutation.
	Pos *HookPos

	// Item is the changed event or duration, or the domain itself for
	// changes that span several entities.
	Item any

	// Detail is position specific, for example the attached dependency or
	// the names of the changed entities. It may be nil.
	Detail any
}

// Hookable accepts observers.
type Hookable interface {
	// AcceptHook appends a hook. Hooks are attached while the registry is
	// configured and stay attached.
	AcceptHook(hook Hook)

	// NumHooks returns the number of attached hooks.
	NumHooks() int

	// Hooks returns the attached hooks in the order they fire.
	Hooks() []Hook

	// InvokeHook calls every attached hook with ctx.
	InvokeHook(ctx HookCtx)
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase is embedded by types that implement Hookable.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase returns a HookableBase without hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns a copy of the attached hooks.
func (h *HookableBase) Hooks() []Hook {
	return slices.Clone(h.hooks)
}

// AcceptHook appends a hook. Attaching the same hook value twice panics;
// HookFunc values are not comparable and are always accepted.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); !isFunc && slices.Contains(h.hooks, hook) {
		panic("hooking: hook attached twice")
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls the hooks in the order they were attached.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
