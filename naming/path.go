// Package naming parses and validates the dot-separated parameter paths that
// events use to address parameters of the process model.
package naming

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned when a path does not follow the path convention.
var ErrInvalidPath = errors.New("invalid parameter path")

// A Path is a hierarchical parameter path, such as "flow_sheet.feed.flow_rate".
type Path struct {
	Tokens []string
}

// ParsePath splits and validates a path string. There are several rules that a
// path must follow.
//  1. Tokens are separated by dots. "a.b.c" is valid, but "a.b.c." is not.
//  2. Tokens must not be empty. "a..b" is not valid.
//  3. Tokens must not contain whitespace, brackets or quotes.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}

	tokens := strings.Split(s, ".")
	for _, token := range tokens {
		if err := tokenMustBeValid(token); err != nil {
			return Path{}, fmt.Errorf("%w: %q: %s", ErrInvalidPath, s, err.Error())
		}
	}

	return Path{Tokens: tokens}, nil
}

func tokenMustBeValid(token string) error {
	if token == "" {
		return errors.New("path element must not be empty")
	}

	if strings.ContainsAny(token, " \t\n[]\"'") {
		return fmt.Errorf("path element %q contains an invalid character", token)
	}

	return nil
}

// String joins the tokens back into the dotted form.
func (p Path) String() string {
	return strings.Join(p.Tokens, ".")
}

// Performer returns the path of the object that owns the parameter, that is,
// the path without its last token. A single-token path is its own performer.
func (p Path) Performer() string {
	if len(p.Tokens) <= 1 {
		return p.String()
	}

	return strings.Join(p.Tokens[:len(p.Tokens)-1], ".")
}

// Leaf returns the last token of the path.
func (p Path) Leaf() string {
	if len(p.Tokens) == 0 {
		return ""
	}

	return p.Tokens[len(p.Tokens)-1]
}

// SplitPerformer splits a path string at its last dot. A path without a dot
// has an empty leaf.
func SplitPerformer(path string) (performer, leaf string) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return path, ""
	}

	return path[:i], path[i+1:]
}

// BuildPath builds a path from a parent path and an element name.
func BuildPath(parent, element string) string {
	if parent == "" {
		return element
	}

	return parent + "." + element
}
