// Package evaluator implements component F: a tree-walking evaluator over
// a resolved types.RuleSet. Grounded on internal/rules/evaluate.go's
// orchestration shape (resolve conditions against a payload, short-circuit
// boolean composition, carry a diagnostic trace alongside the verdict),
// generalized from the teacher's flat OR-of-AND-groups walk into a
// recursive walk over the policy DSL's general binary condition tree and
// its label/rule reference leaves.
package evaluator

import (
	"time"

	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/trace"
	"github.com/solatis/clausekeeper/internal/types"
	"github.com/solatis/clausekeeper/internal/value"
)

// Options configures one evaluation run.
type Options struct {
	// Now anchors relative-date predicates (is older/younger than, is
	// within). Zero means "use time.Now().UTC()" — tests should set this
	// explicitly for determinism.
	Now time.Time

	// Deadline, when non-zero, is checked cooperatively between leaf
	// evaluations; exceeding it aborts with types.ErrTimeout rather than
	// running an unbounded or adversarially deep rule set to completion.
	Deadline time.Time

	// Trace, when true, builds the full diagnostic trace tree alongside
	// the verdict. Left false, Evaluate does no extra allocation.
	Trace bool
}

// Result is the verdict for the golden rule, the labels map accumulated
// over every rule actually visited during the walk (spec.md §6: "one entry
// per rule evaluated"), and the trace when Options.Trace was set.
type Result struct {
	Outcome string
	Verdict bool
	Labels  map[string]bool
	Trace   *trace.Node
}

// Evaluate walks ruleSet's golden rule against data and returns its
// verdict. Label and rule references recurse into other rules in the same
// set, always against the same top-level payload — object selectors are
// names for substructures of one payload, not separate scopes. Every rule
// the walk actually visits (the golden rule plus any rule reached through
// a label or rule reference) contributes its outcome and verdict to
// Result.Labels, even when Options.Trace is left off.
func Evaluate(ruleSet *types.RuleSet, data any, opts Options) (Result, error) {
	w := &walker{opts: opts, labels: make(map[string]bool)}
	result, tr, err := w.evalRule(ruleSet.Golden, data)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: ruleSet.Golden.Outcome, Verdict: result, Labels: w.labels, Trace: tr}, nil
}

// walker carries the state threaded through one evaluation: the run's
// options and the labels map every visited rule records into. It exists
// only to avoid passing the labels map through every recursive call.
type walker struct {
	opts   Options
	labels map[string]bool
}

func (w *walker) evalRule(rule *types.Rule, data any) (bool, *trace.Node, error) {
	var result bool
	var childTrace *trace.Node
	var err error
	if rule.Root == nil {
		result = true
	} else {
		result, childTrace, err = w.evalCondition(rule.Root, data)
		if err != nil {
			return false, nil, err
		}
	}

	w.labels[rule.Outcome] = result

	var tr *trace.Node
	if w.opts.Trace {
		tr = trace.Rule(rule.Label, rule.Outcome, rule.Selector, result, childTrace)
	}
	return result, tr, nil
}

func (w *walker) evalCondition(c *types.Condition, data any) (bool, *trace.Node, error) {
	if err := checkDeadline(w.opts); err != nil {
		return false, nil, err
	}

	switch c.Kind {
	case types.CondBinary:
		return w.evalBinary(c, data)
	case types.CondLabelRef, types.CondRuleRef:
		return w.evalRef(c, data)
	default:
		return w.evalLeaf(c, data)
	}
}

// evalBinary combines two subtrees strictly left to right: the right
// operand is never evaluated once the connective's verdict is already
// determined by the left operand alone (or-short-circuits-on-true,
// and-short-circuits-on-false). The skipped operand is still attached to
// the trace as a Skipped node, per spec.md §9, so a trace reader sees the
// rule's full shape even though only half of it ran.
func (w *walker) evalBinary(c *types.Condition, data any) (bool, *trace.Node, error) {
	leftResult, leftTrace, err := w.evalCondition(c.Left, data)
	if err != nil {
		return false, nil, err
	}

	shortCircuit := (c.Connective == "or" && leftResult) || (c.Connective == "and" && !leftResult)
	if shortCircuit {
		var tr *trace.Node
		if w.opts.Trace {
			tr = trace.ConditionTree(c.Connective, leftResult, leftTrace, trace.Skipped("short_circuit"))
		}
		return leftResult, tr, nil
	}

	rightResult, rightTrace, err := w.evalCondition(c.Right, data)
	if err != nil {
		return false, nil, err
	}

	var result bool
	if c.Connective == "or" {
		result = leftResult || rightResult
	} else {
		result = leftResult && rightResult
	}

	var tr *trace.Node
	if w.opts.Trace {
		tr = trace.ConditionTree(c.Connective, result, leftTrace, rightTrace)
	}
	return result, tr, nil
}

// evalRef recurses into the rule a label or rule reference points at. The
// resolver guarantees this recursion terminates: Build rejects any cycle
// in the reference graph before an evaluator ever sees the RuleSet.
func (w *walker) evalRef(c *types.Condition, data any) (bool, *trace.Node, error) {
	result, childTrace, err := w.evalRule(c.Ref, data)
	if err != nil {
		return false, nil, err
	}

	var tr *trace.Node
	if w.opts.Trace {
		if c.Kind == types.CondLabelRef {
			tr = trace.LabelRef(c.RefName, result, childTrace)
		} else {
			tr = trace.RuleRef(c.RefName, result, childTrace)
		}
	}
	return result, tr, nil
}

// evalLeaf resolves a property (or length/number aggregate) against data
// and applies its predicate. A missing property never errors — it
// degrades to a MissingOperand mismatch and a false verdict, same as the
// operator core's own propagation policy.
func (w *walker) evalLeaf(c *types.Condition, data any) (bool, *trace.Node, error) {
	resolved, err := value.Resolve(c.Path, data)
	if err != nil {
		return false, nil, err
	}

	raw, found := resolved.Value, resolved.Found
	if c.Aggregate != "" {
		raw, found = applyAggregate(raw, found)
	}

	now := w.opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	in := operator.Input{Found: found, Raw: raw, Operand: c.Operand, Operands: c.Operands, Now: now}
	result, mismatch := operator.Compare(c.Predicate, in)

	var tr *trace.Node
	if w.opts.Trace {
		resolveNode := trace.PropertyResolve(c.Path, found, raw)
		applyNode := trace.OperatorApply(c.Predicate, operandDisplay(c.Predicate, c.Operand, c.Operands), mismatch, result, nil)
		tr = trace.Leaf(c.Aggregate, result, resolveNode, applyNode)
	}
	return result, tr, nil
}

// applyAggregate implements "length of"/"number of", both counting
// elements of a string, list, or object — spec.md §4.C treats them as
// synonyms.
func applyAggregate(raw any, found bool) (any, bool) {
	if !found {
		return raw, found
	}
	switch v := raw.(type) {
	case []any:
		return float64(len(v)), true
	case string:
		return float64(len(v)), true
	case map[string]any:
		return float64(len(v)), true
	default:
		return nil, false
	}
}

func checkDeadline(opts Options) error {
	if opts.Deadline.IsZero() {
		return nil
	}
	if time.Now().After(opts.Deadline) {
		return types.ErrTimeout
	}
	return nil
}

// operandDisplay renders a DSL operand back to a JSON-friendly value for
// trace output.
func operandDisplay(pred operator.Predicate, operand value.Value, operands []value.Value) any {
	if pred == operator.In || pred == operator.NotIn {
		vals := make([]any, len(operands))
		for i, v := range operands {
			vals[i] = displayOne(v)
		}
		return vals
	}
	return displayOne(operand)
}

func displayOne(v value.Value) any {
	switch v.Kind {
	case value.KindNumber:
		return v.Number
	case value.KindBool:
		return v.Bool
	case value.KindString:
		return v.Str
	case value.KindDate:
		return v.Date.Format(value.DateLayout)
	case value.KindDuration:
		return map[string]any{"quantity": v.Duration.Quantity, "unit": unitName(v.Duration.Unit)}
	default:
		return nil
	}
}

func unitName(u value.Unit) string {
	switch u {
	case value.UnitSecond:
		return "second"
	case value.UnitMinute:
		return "minute"
	case value.UnitHour:
		return "hour"
	case value.UnitDay:
		return "day"
	case value.UnitWeek:
		return "week"
	case value.UnitMonth:
		return "month"
	case value.UnitYear:
		return "year"
	case value.UnitDecade:
		return "decade"
	case value.UnitCentury:
		return "century"
	default:
		return "unknown"
	}
}
