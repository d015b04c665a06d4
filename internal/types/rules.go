// internal/types/rules.go
package types

/*
 * Domain types for the Abstract Rule Tree: Rule, RuleSet, and the binary
 * condition tree spec.md §3 defines.
 *
 * Adapted from TrapperKeeper's DNF-flavored Rule/OrGroup/Condition trio:
 * where the teacher's rules were a flat OR-of-AND-groups shape, the
 * policy DSL's condition tree is a general left-deep binary tree over
 * {and, or} (spec.md §4.B), so Condition here is a tagged node rather than
 * a DNF leaf. Wire-format agnostic, same as the teacher's version -
 * nothing here imports encoding/json.
 *
 * Dependencies: internal/operator (predicate enum), internal/value
 * (the value lattice literals live in).
 */

import (
	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/value"
)

// ConditionKind tags which shape a Condition node takes.
type ConditionKind int

const (
	CondProperty ConditionKind = iota
	CondAggregate
	CondLabelRef
	CondRuleRef
	CondBinary
)

// Condition is one node of the binary condition tree over {and, or}
// (spec.md §3/§4.B). Leaves are CondProperty/CondAggregate/CondLabelRef/
// CondRuleRef; CondBinary combines two already-built subtrees with a
// connective, assembled strictly left-deep by internal/parser.
type Condition struct {
	Kind ConditionKind

	// CondProperty / CondAggregate
	Path      []value.PathSegment
	Aggregate string // "length" or "number", empty for a plain property
	Predicate operator.Predicate
	Operand   value.Value   // scalar operand for comparison predicates
	Operands  []value.Value // list operand for is in / is not in

	// CondLabelRef / CondRuleRef
	RefName string
	Ref     *Rule // filled by internal/resolve.Build

	// CondBinary
	Left, Right *Condition
	Connective  string // "and" | "or"
}

// Rule is a named clause: an optional label, the object selector its
// header names, the outcome it produces, and its condition tree.
type Rule struct {
	Label    string
	Selector string
	Outcome  string
	Verb     string
	Root     *Condition
	Source   string
}

// RuleSet is an ordered, resolved collection of rules (spec.md §3).
type RuleSet struct {
	Rules         []*Rule
	ByOutcome     map[string]*Rule
	ByLabel       map[string]*Rule
	SelectorIndex map[string][]*Rule
	Golden        *Rule
	Hash          string
}
