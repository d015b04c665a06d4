package parser

import (
	"testing"

	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/types"
	"github.com/solatis/clausekeeper/internal/value"
)

func parseOne(t *testing.T, src string) *types.Rule {
	t.Helper()
	rules, err := ParseRules(src)
	if err != nil {
		t.Fatalf("ParseRules(%q) returned error: %v", src, err)
	}
	if len(rules) != 1 {
		t.Fatalf("ParseRules(%q) returned %d rules, want 1", src, len(rules))
	}
	return rules[0]
}

func TestParseRules_SimpleComparison(t *testing.T) {
	src := `A **Person** gets senior_discount if the __age__ of the **Person** is greater than or equal to 65.`
	rule := parseOne(t, src)

	if rule.Selector != "Person" || rule.Outcome != "senior_discount" || rule.Verb != "gets" {
		t.Fatalf("rule header = %+v", rule)
	}
	if rule.Root == nil || rule.Root.Kind != types.CondProperty {
		t.Fatalf("rule.Root = %+v, want CondProperty", rule.Root)
	}
	wantPath := []value.PathSegment{{Selector: true, Name: "Person"}, {Name: "age"}}
	if len(rule.Root.Path) != len(wantPath) {
		t.Fatalf("path = %+v, want %+v", rule.Root.Path, wantPath)
	}
	for i := range wantPath {
		if rule.Root.Path[i] != wantPath[i] {
			t.Errorf("path[%d] = %+v, want %+v", i, rule.Root.Path[i], wantPath[i])
		}
	}
	if rule.Root.Predicate != operator.GreaterOrEqual {
		t.Errorf("predicate = %v, want GreaterOrEqual", rule.Root.Predicate)
	}
	if rule.Root.Operand.Kind != value.KindNumber || rule.Root.Operand.Number != 65 {
		t.Errorf("operand = %+v, want Number(65)", rule.Root.Operand)
	}
}

func TestParseRules_NegativeComparisonStillParses(t *testing.T) {
	src := `A **Person** gets senior_discount if the __age__ of the **Person** is greater than or equal to 65.`
	rule := parseOne(t, src)
	if rule.Root.Predicate != operator.GreaterOrEqual {
		t.Fatalf("predicate = %v", rule.Root.Predicate)
	}
}

func TestParseRules_LabelTwoWordVerbListMembershipAndConjunction(t *testing.T) {
	src := `§Eligible. A **Customer** qualifies for upgrade if the __membership_level__ of the **Customer** is in ["gold","platinum"] and the __account_age_days__ of the **Customer** is greater than 365.`
	rule := parseOne(t, src)

	if rule.Label != "Eligible" {
		t.Errorf("label = %q, want Eligible", rule.Label)
	}
	if rule.Verb != "qualifies for" || rule.Outcome != "upgrade" {
		t.Errorf("verb/outcome = %q/%q, want \"qualifies for\"/\"upgrade\"", rule.Verb, rule.Outcome)
	}
	if rule.Root == nil || rule.Root.Kind != types.CondBinary || rule.Root.Connective != "and" {
		t.Fatalf("root = %+v, want CondBinary(and)", rule.Root)
	}

	left := rule.Root.Left
	if left == nil || left.Kind != types.CondProperty || left.Predicate != operator.In {
		t.Fatalf("left = %+v, want CondProperty(In)", left)
	}
	if len(left.Operands) != 2 || left.Operands[0].Str != "gold" || left.Operands[1].Str != "platinum" {
		t.Errorf("left.Operands = %+v, want [gold platinum]", left.Operands)
	}

	right := rule.Root.Right
	if right == nil || right.Kind != types.CondProperty || right.Predicate != operator.GreaterThan {
		t.Fatalf("right = %+v, want CondProperty(GreaterThan)", right)
	}
	if right.Operand.Number != 365 {
		t.Errorf("right.Operand = %+v, want Number(365)", right.Operand)
	}
}

func TestParseRules_LeftDeepThreeConditions(t *testing.T) {
	src := `A **Order** gets priority if the __total__ of the **Order** is greater than 100 and the __rush__ of the **Order** is equal to true or the __vip__ of the **Order** is equal to true.`
	rule := parseOne(t, src)

	// ((C1 and C2) or C3), never C1 and (C2 or C3).
	top := rule.Root
	if top == nil || top.Kind != types.CondBinary || top.Connective != "or" {
		t.Fatalf("top = %+v, want CondBinary(or)", top)
	}
	inner := top.Left
	if inner == nil || inner.Kind != types.CondBinary || inner.Connective != "and" {
		t.Fatalf("inner = %+v, want CondBinary(and)", inner)
	}
	if top.Right == nil || top.Right.Kind != types.CondProperty {
		t.Fatalf("top.Right = %+v, want CondProperty", top.Right)
	}
}

func TestParseRules_LabelReferenceLeafWithSucceeds(t *testing.T) {
	src := `A **Order** gets approval if §Verified succeeds.`
	rule := parseOne(t, src)

	if rule.Root == nil || rule.Root.Kind != types.CondLabelRef || rule.Root.RefName != "Verified" {
		t.Fatalf("root = %+v, want CondLabelRef(Verified)", rule.Root)
	}
}

func TestParseRules_RuleReferenceLeaf(t *testing.T) {
	src := `A **Order** gets priority if the **Shipping** express_handling.`
	rule := parseOne(t, src)

	if rule.Root == nil || rule.Root.Kind != types.CondRuleRef || rule.Root.RefName != "express_handling" {
		t.Fatalf("root = %+v, want CondRuleRef(express_handling)", rule.Root)
	}
}

func TestParseRules_DurationOperand(t *testing.T) {
	src := `A **Person** gets senior_discount if the __birth_date__ of the **Person** is older than 18 years.`
	rule := parseOne(t, src)

	if rule.Root.Predicate != operator.OlderThan {
		t.Fatalf("predicate = %v, want OlderThan", rule.Root.Predicate)
	}
	if rule.Root.Operand.Kind != value.KindDuration {
		t.Fatalf("operand kind = %v, want KindDuration", rule.Root.Operand.Kind)
	}
	if rule.Root.Operand.Duration.Quantity != 18 || rule.Root.Operand.Duration.Unit != value.UnitYear {
		t.Errorf("operand duration = %+v, want 18 years", rule.Root.Operand.Duration)
	}
}

func TestParseRules_EmptyPredicateHasNoOperand(t *testing.T) {
	src := `A **User** gets flagged if the __nickname__ of the **User** is empty.`
	rule := parseOne(t, src)

	if rule.Root.Predicate != operator.Empty {
		t.Fatalf("predicate = %v, want Empty", rule.Root.Predicate)
	}
	if rule.Root.Operand.Kind != value.KindNumber || rule.Root.Operand.Number != 0 {
		t.Errorf("operand = %+v, want zero value", rule.Root.Operand)
	}
}

func TestParseRules_AggregateLengthOf(t *testing.T) {
	src := `A **Cart** gets bulk_order if the length of the __items__ of the **Cart** is greater than 10.`
	rule := parseOne(t, src)

	if rule.Root.Kind != types.CondAggregate || rule.Root.Aggregate != "length" {
		t.Fatalf("root = %+v, want CondAggregate(length)", rule.Root)
	}
}

func TestParseRules_BareOutcomeIdentifierNoVerb(t *testing.T) {
	src := `A **Flag** raised if the __set__ of the **Flag** is equal to true.`
	rule := parseOne(t, src)
	if rule.Verb != "" || rule.Outcome != "raised" {
		t.Errorf("verb/outcome = %q/%q, want \"\"/raised", rule.Verb, rule.Outcome)
	}
}

func TestParseRules_MultipleRulesPreserveOrder(t *testing.T) {
	src := `A **Person** gets first_outcome if the __a__ of the **Person** is equal to true. A **Person** gets second_outcome if the __b__ of the **Person** is equal to true.`
	rules, err := ParseRules(src)
	if err != nil {
		t.Fatalf("ParseRules returned error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].Outcome != "first_outcome" || rules[1].Outcome != "second_outcome" {
		t.Errorf("order = %q, %q", rules[0].Outcome, rules[1].Outcome)
	}
}

func TestParseRules_ErrorCases(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty source", ""},
		{"missing trailing period", `A **Person** gets flagged if the __a__ of the **Person** is equal to true`},
		{"missing selector", `A gets flagged if the __a__ of the **Person** is equal to true.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules(tt.src); err == nil {
				t.Errorf("ParseRules(%q) succeeded, want error", tt.src)
			}
		})
	}
}
