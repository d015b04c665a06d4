// Package trace implements component G: a JSON-serializable record of how
// an evaluation reached its verdict. Grounded on the teacher's MatchResult
// diagnostic-carrying return value (internal/rules/evaluate.go), widened
// from a flat per-rule result into the tagged tree spec.md §4.G calls for.
// A Node is an immutable value once built; the evaluator constructs the
// tree bottom-up as it walks, so no node is ever mutated after its
// children are attached — there is no shared mutable state to race on.
package trace

import (
	"fmt"

	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/value"
)

// Kind tags which variant a Node is.
type Kind int

const (
	KindRule Kind = iota
	KindConditionTree
	KindLeaf
	KindSkipped
	KindPropertyResolve
	KindOperatorApply
	KindRuleRef
	KindLabelRef
)

func (k Kind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindConditionTree:
		return "condition_tree"
	case KindLeaf:
		return "leaf"
	case KindSkipped:
		return "skipped"
	case KindPropertyResolve:
		return "property_resolve"
	case KindOperatorApply:
		return "operator_apply"
	case KindRuleRef:
		return "rule_ref"
	case KindLabelRef:
		return "label_ref"
	default:
		return "unknown"
	}
}

// Node is one entry of the evaluation trace tree. Only the fields
// relevant to Kind are populated; JSON tags omit zero-valued diagnostic
// fields so a leaf's trace stays compact.
type Node struct {
	Kind       string  `json:"kind"`
	Result     bool    `json:"result"`
	Label      string  `json:"label,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Selector   string  `json:"selector,omitempty"`
	Connective string  `json:"connective,omitempty"`
	Aggregate  string  `json:"aggregate,omitempty"`
	Path       string  `json:"path,omitempty"`
	Found      bool    `json:"found,omitempty"`
	RawValue   any     `json:"raw_value,omitempty"`
	Predicate  string  `json:"predicate,omitempty"`
	Operand    any     `json:"operand,omitempty"`
	Mismatch   string  `json:"mismatch,omitempty"`
	RefName    string  `json:"ref_name,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// Rule records the outcome of evaluating one rule's condition tree
// (or its absence, for an unconditional rule).
func Rule(label, outcome, selector string, result bool, child *Node) *Node {
	n := &Node{Kind: KindRule.String(), Label: label, Outcome: outcome, Selector: selector, Result: result}
	if child != nil {
		n.Children = []*Node{child}
	}
	return n
}

// ConditionTree records a binary and/or combination of two already-traced
// subtrees.
func ConditionTree(connective string, result bool, left, right *Node) *Node {
	return &Node{Kind: KindConditionTree.String(), Connective: connective, Result: result, Children: []*Node{left, right}}
}

// Skipped records a condition tree operand that short-circuit evaluation
// never actually compared — it is still attached to the tree, per spec.md
// §9, so a trace consumer can see the rule's full shape even when only
// half of it ran.
func Skipped(reason string) *Node {
	return &Node{Kind: KindSkipped.String(), Mismatch: reason}
}

// pathString renders a property path in the DSL's dotted display form,
// root segment first.
func pathString(path []value.PathSegment) string {
	s := ""
	for i, seg := range path {
		if i > 0 {
			s += "."
		}
		s += seg.Name
	}
	return s
}

// PropertyResolve records one property-path lookup against the request
// payload. A miss renders RawValue as the literal Missing(...) marker
// rather than leaving it to a caller to infer missingness from Found
// alone. The marker names the path's property segments with selectors
// left out (__age__ of **Person** reads Missing(age)); a path of
// selectors only is named in full.
func PropertyResolve(path []value.PathSegment, found bool, raw any) *Node {
	p := pathString(path)
	n := &Node{Kind: KindPropertyResolve.String(), Path: p, Found: found, Result: found}
	if found {
		n.RawValue = raw
	} else {
		var props []value.PathSegment
		for _, seg := range path {
			if !seg.Selector {
				props = append(props, seg)
			}
		}
		if len(props) == 0 {
			props = path
		}
		n.RawValue = fmt.Sprintf("Missing(%s)", pathString(props))
	}
	return n
}

// OperatorApply records a predicate comparison: its canonical phrase, the
// operand (rendered for display, not re-parseable), the mismatch kind (if
// any) and the boolean verdict.
func OperatorApply(pred operator.Predicate, operandDisplay any, mismatch operator.MismatchKind, result bool, child *Node) *Node {
	n := &Node{
		Kind:      KindOperatorApply.String(),
		Predicate: pred.String(),
		Operand:   operandDisplay,
		Result:    result,
	}
	switch mismatch {
	case operator.TypeMismatch:
		n.Mismatch = "type_mismatch"
	case operator.MissingOperand:
		n.Mismatch = "missing_operand"
	}
	if child != nil {
		n.Children = []*Node{child}
	}
	return n
}

// Leaf wraps a property/aggregate condition's full evaluation: the
// property resolution feeding the operator application.
func Leaf(aggregate string, result bool, resolve, apply *Node) *Node {
	n := &Node{Kind: KindLeaf.String(), Aggregate: aggregate, Result: result}
	n.Children = []*Node{resolve, apply}
	return n
}

// LabelRef records a label reference leaf's recursive evaluation of the
// rule it points to.
func LabelRef(refName string, result bool, child *Node) *Node {
	n := &Node{Kind: KindLabelRef.String(), RefName: refName, Result: result}
	if child != nil {
		n.Children = []*Node{child}
	}
	return n
}

// RuleRef records a rule reference leaf's recursive evaluation of the
// rule it addresses by outcome identifier.
func RuleRef(refName string, result bool, child *Node) *Node {
	n := &Node{Kind: KindRuleRef.String(), RefName: refName, Result: result}
	if child != nil {
		n.Children = []*Node{child}
	}
	return n
}
