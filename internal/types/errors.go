package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple, fieldless failure modes, following the
// teacher's flat errors.New block discipline — kept un-wrapped by default
// so callers can errors.Is against them directly.
var (
	// ErrNoGoldenRule indicates zero rules have in-degree zero in the
	// reference graph.
	ErrNoGoldenRule = errors.New("no golden rule: every rule is referenced by another")

	// ErrGoldenRuleAmbiguous indicates more than one rule has in-degree
	// zero in the reference graph.
	ErrGoldenRuleAmbiguous = errors.New("golden rule ambiguous: more than one rule has no incoming references")

	// ErrEmptyRuleSet indicates a load was attempted with no rules.
	ErrEmptyRuleSet = errors.New("rule set contains no rules")

	// ErrTimeout indicates the evaluator's cooperative deadline was
	// exceeded between leaf evaluations.
	ErrTimeout = errors.New("evaluation deadline exceeded")

	// ErrPathTooDeep indicates a property path exceeds MaxPropertyPathDepth.
	ErrPathTooDeep = errors.New("property path exceeds maximum depth")

	// ErrTooManyInValues indicates an is in / is not in list exceeds
	// MaxInOperatorValues.
	ErrTooManyInValues = errors.New("is in/is not in list has too many values")

	// ErrRuleTextTooLarge indicates submitted rule source exceeds
	// MaxRuleTextSize.
	ErrRuleTextTooLarge = errors.New("rule text exceeds maximum size")

	// ErrTooManyRules indicates a rule set exceeds MaxRuleCount.
	ErrTooManyRules = errors.New("rule set exceeds maximum rule count")
)

// ParseError reports a grammar failure at a specific source position,
// spec.md §7's ParseError{line, col, expected}.
type ParseError struct {
	Line     int
	Col      int
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: expected %s", e.Line, e.Col, e.Expected)
}

// DuplicateDefinitionError reports an outcome or label collision,
// spec.md §7's DuplicateDefinition{kind, name}.
type DuplicateDefinitionError struct {
	Kind string // "outcome" | "label"
	Name string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate %s definition: %q", e.Kind, e.Name)
}

// UnknownReferenceError reports a rule or label reference that resolves
// to nothing, spec.md §7's UnknownReference{name}.
type UnknownReferenceError struct {
	Name string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown reference: %q", e.Name)
}

// CyclicReferenceError reports a reference loop discovered by the
// resolver's DFS, spec.md §7's CyclicReference{path}.
type CyclicReferenceError struct {
	Path []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Path, " -> "))
}
