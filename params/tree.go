// Package params provides the in-memory parameter tree that events write
// their states into. It stands in for the parameter interface of a process
// model: parameters are addressed by dot paths, may be flagged as section
// dependent (events may change them) and as polynomial.
package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sarchlab/evtsched/naming"
)

var (
	ErrUnknownPath   = errors.New("unknown parameter path")
	ErrDuplicatePath = errors.New("parameter path already registered")
	ErrTypeMismatch  = errors.New("parameter type mismatch")
	ErrShapeMismatch = errors.New("parameter shape mismatch")
	ErrNotNumeric    = errors.New("parameter value is not numeric")
)

// Kind classifies how a parameter may be used by events.
type Kind int

const (
	// Constant parameters cannot be changed by events.
	Constant Kind = iota

	// SectionDependent parameters can change at event times and hold a
	// constant value over a section.
	SectionDependent

	// Polynomial parameters are section dependent and vary within a section
	// according to polynomial coefficients.
	Polynomial
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case SectionDependent:
		return "section_dependent"
	case Polynomial:
		return "polynomial"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the textual form produced by Kind.String. The empty string
// parses as SectionDependent.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "section_dependent":
		return SectionDependent, nil
	case "constant":
		return Constant, nil
	case "polynomial":
		return Polynomial, nil
	default:
		return Constant, fmt.Errorf("params: unknown kind %q", s)
	}
}

// Tree owns named parameter values and their kinds.
type Tree struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	kind  Kind
	value any
}

// NewTree constructs a Tree with no registered parameters.
func NewTree() *Tree {
	return &Tree{entries: make(map[string]*entry)}
}

// Register installs a new parameter under the provided path. The value is
// copied so that further mutations to the original do not affect the tree.
func (t *Tree) Register(path string, value any, kind Kind) error {
	if _, err := naming.ParsePath(path); err != nil {
		return fmt.Errorf("params: %w", err)
	}

	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("params: value for %q: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[path]; exists {
		return fmt.Errorf("params: %w: %q", ErrDuplicatePath, path)
	}

	for existing := range t.entries {
		if strings.HasPrefix(existing, path+".") ||
			strings.HasPrefix(path, existing+".") {
			return fmt.Errorf(
				"params: %w: %q overlaps %q", ErrDuplicatePath, path, existing)
		}
	}

	t.entries[path] = &entry{kind: kind, value: v}

	return nil
}

// Get returns a copy of the value stored under path.
func (t *Tree) Get(path string) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[path]
	if !ok {
		return nil, fmt.Errorf("params: %w: %q", ErrUnknownPath, path)
	}

	return clone(e.value), nil
}

// Set replaces the value stored under path. A scalar may only be replaced by a
// scalar and a sequence only by a sequence of the same length.
func (t *Tree) Set(path string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("params: value for %q: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[path]
	if !ok {
		return fmt.Errorf("params: %w: %q", ErrUnknownPath, path)
	}

	if err := mustMatchShape(path, e.value, v); err != nil {
		return err
	}

	e.value = v

	return nil
}

func mustMatchShape(path string, current, next any) error {
	cur, curIsSeq := current.([]float64)
	nxt, nextIsSeq := next.([]float64)

	if curIsSeq != nextIsSeq {
		return fmt.Errorf("params: %w: %q expects a %s",
			ErrTypeMismatch, path, shapeName(curIsSeq))
	}

	if curIsSeq && len(cur) != len(nxt) {
		return fmt.Errorf("params: %w: %q expects %d entries, got %d",
			ErrShapeMismatch, path, len(cur), len(nxt))
	}

	return nil
}

func shapeName(isSeq bool) string {
	if isSeq {
		return "sequence"
	}
	return "scalar"
}

// Kind returns the kind of the parameter under path.
func (t *Tree) Kind(path string) (Kind, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[path]
	if !ok {
		return Constant, false
	}

	return e.kind, true
}

// IsSectionDependent reports whether events may change the parameter.
func (t *Tree) IsSectionDependent(path string) bool {
	k, ok := t.Kind(path)
	return ok && k != Constant
}

// IsPolynomial reports whether the parameter is polynomial.
func (t *Tree) IsPolynomial(path string) bool {
	k, ok := t.Kind(path)
	return ok && k == Polynomial
}

// Paths lists all registered paths in lexical order.
func (t *Tree) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.entries))
	for p := range t.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}

// Nested returns the values as a nested map following the path hierarchy.
func (t *Tree) Nested() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	root := make(map[string]any)
	for path, e := range t.entries {
		tokens := strings.Split(path, ".")
		node := root
		for _, token := range tokens[:len(tokens)-1] {
			child, ok := node[token].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[token] = child
			}
			node = child
		}
		node[tokens[len(tokens)-1]] = clone(e.value)
	}

	return root
}

// RegisterNested registers every leaf of a nested map with the given kind.
// Leaves are numbers or sequences of numbers.
func (t *Tree) RegisterNested(nested map[string]any, kind Kind) error {
	return t.registerNested("", nested, kind)
}

func (t *Tree) registerNested(prefix string, nested map[string]any, kind Kind) error {
	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := naming.BuildPath(prefix, k)

		if child, ok := nested[k].(map[string]any); ok {
			if err := t.registerNested(path, child, kind); err != nil {
				return err
			}
			continue
		}

		if err := t.Register(path, nested[k], kind); err != nil {
			return err
		}
	}

	return nil
}
