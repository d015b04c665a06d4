package trace

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/value"
)

func TestOperatorApply_RecordsMismatch(t *testing.T) {
	n := OperatorApply(operator.GreaterThan, 65.0, operator.MissingOperand, false, nil)
	if n.Mismatch != "missing_operand" {
		t.Errorf("Mismatch = %q, want missing_operand", n.Mismatch)
	}
	if n.Result {
		t.Errorf("Result = true, want false")
	}
}

func TestOperatorApply_NoMismatchOmitsField(t *testing.T) {
	n := OperatorApply(operator.Equal, "gold", operator.NoMismatch, true, nil)
	if n.Mismatch != "" {
		t.Errorf("Mismatch = %q, want empty", n.Mismatch)
	}
}

func TestPropertyResolve_PathRendering(t *testing.T) {
	path := []value.PathSegment{{Selector: true, Name: "Person"}, {Name: "age"}}
	n := PropertyResolve(path, true, 65.0)
	if n.Path != "Person.age" {
		t.Errorf("Path = %q, want Person.age", n.Path)
	}
	if !n.Found {
		t.Errorf("Found = false, want true")
	}
}

func TestLeaf_ComposesResolveAndApply(t *testing.T) {
	resolve := PropertyResolve([]value.PathSegment{{Name: "age"}}, true, 70.0)
	apply := OperatorApply(operator.GreaterOrEqual, 65.0, operator.NoMismatch, true, nil)
	leaf := Leaf("", true, resolve, apply)

	if len(leaf.Children) != 2 {
		t.Fatalf("leaf has %d children, want 2", len(leaf.Children))
	}
	if !leaf.Result {
		t.Errorf("leaf.Result = false, want true")
	}
}

func TestConditionTree_BothBranchesAttached(t *testing.T) {
	left := Leaf("", true, PropertyResolve(nil, true, true), OperatorApply(operator.Equal, true, operator.NoMismatch, true, nil))
	right := Skipped("short_circuit")
	tree := ConditionTree("or", true, left, right)

	if tree.Connective != "or" {
		t.Errorf("Connective = %q, want or", tree.Connective)
	}
	if tree.Children[1].Kind != KindSkipped.String() {
		t.Errorf("right child kind = %q, want skipped", tree.Children[1].Kind)
	}
}

func TestRule_SerializesToJSON(t *testing.T) {
	resolve := PropertyResolve([]value.PathSegment{{Selector: true, Name: "User"}, {Name: "confirmed"}}, true, true)
	apply := OperatorApply(operator.Equal, true, operator.NoMismatch, true, nil)
	leaf := Leaf("", true, resolve, apply)
	rule := Rule("Verified", "verified", "User", true, leaf)

	out, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"kind":"rule"`) {
		t.Errorf("json = %s, missing rule kind", s)
	}
	if !strings.Contains(s, `"label":"Verified"`) {
		t.Errorf("json = %s, missing label", s)
	}
}

func TestKind_StringAllVariants(t *testing.T) {
	kinds := []Kind{KindRule, KindConditionTree, KindLeaf, KindSkipped, KindPropertyResolve, KindOperatorApply, KindRuleRef, KindLabelRef}
	seen := make(map[string]bool)
	for _, k := range kinds {
		s := k.String()
		if s == "" || s == "unknown" {
			t.Errorf("Kind(%d).String() = %q", k, s)
		}
		if seen[s] {
			t.Errorf("duplicate Kind string %q", s)
		}
		seen[s] = true
	}
}
