package resolve

import (
	"testing"

	"github.com/solatis/clausekeeper/internal/parser"
	"github.com/solatis/clausekeeper/internal/types"
)

func mustParse(t *testing.T, src string) []*types.Rule {
	t.Helper()
	rules, err := parser.ParseRules(src)
	if err != nil {
		t.Fatalf("parser.ParseRules(%q) returned error: %v", src, err)
	}
	return rules
}

func TestBuild_GoldenRuleAndIndexes(t *testing.T) {
	src := `§Verified. A **User** gets verified if the __confirmed__ of the **User** is equal to true. A **User** gets access if §Verified succeeds and the __active__ of the **User** is equal to true.`
	rules := mustParse(t, src)

	rs, err := Build(rules)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if rs.Golden == nil || rs.Golden.Outcome != "access" {
		t.Fatalf("golden = %+v, want rule with outcome access", rs.Golden)
	}
	if len(rs.SelectorIndex["User"]) != 2 {
		t.Errorf("SelectorIndex[User] has %d rules, want 2", len(rs.SelectorIndex["User"]))
	}
	if rs.ByOutcome["verified"] == nil || rs.ByOutcome["access"] == nil {
		t.Errorf("ByOutcome = %+v, missing verified/access", rs.ByOutcome)
	}
	if rs.ByLabel["Verified"] == nil {
		t.Errorf("ByLabel[Verified] not set")
	}
	if rs.Hash == "" {
		t.Errorf("Hash is empty")
	}

	accessRule := rs.ByOutcome["access"]
	if accessRule.Root.Left.Ref != rs.ByLabel["Verified"] {
		t.Errorf("label reference not bound to the Verified rule")
	}
}

func TestBuild_DuplicateOutcome(t *testing.T) {
	src := `A **X** gets dup if the __a__ of the **X** is equal to true. A **Y** gets dup if the __b__ of the **Y** is equal to true.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	dup, ok := err.(*types.DuplicateDefinitionError)
	if !ok {
		t.Fatalf("err = %v (%T), want *types.DuplicateDefinitionError", err, err)
	}
	if dup.Kind != "outcome" || dup.Name != "dup" {
		t.Errorf("dup = %+v", dup)
	}
}

func TestBuild_DuplicateLabel(t *testing.T) {
	src := `§L. A **X** gets a if the __a__ of the **X** is equal to true. §L. A **Y** gets b if the __b__ of the **Y** is equal to true.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	dup, ok := err.(*types.DuplicateDefinitionError)
	if !ok {
		t.Fatalf("err = %v (%T), want *types.DuplicateDefinitionError", err, err)
	}
	if dup.Kind != "label" || dup.Name != "L" {
		t.Errorf("dup = %+v", dup)
	}
}

func TestBuild_UnknownLabelReference(t *testing.T) {
	src := `A **X** gets a if §Ghost succeeds.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	unk, ok := err.(*types.UnknownReferenceError)
	if !ok {
		t.Fatalf("err = %v (%T), want *types.UnknownReferenceError", err, err)
	}
	if unk.Name != "Ghost" {
		t.Errorf("unk.Name = %q, want Ghost", unk.Name)
	}
}

func TestBuild_UnknownRuleReference(t *testing.T) {
	src := `A **X** gets a if the **Y** ghost_outcome.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	unk, ok := err.(*types.UnknownReferenceError)
	if !ok {
		t.Fatalf("err = %v (%T), want *types.UnknownReferenceError", err, err)
	}
	if unk.Name != "ghost_outcome" {
		t.Errorf("unk.Name = %q, want ghost_outcome", unk.Name)
	}
}

func TestBuild_CyclicReference(t *testing.T) {
	src := `§A. A **X** gets a if §B succeeds. §B. A **X** gets b if §A succeeds.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	cyc, ok := err.(*types.CyclicReferenceError)
	if !ok {
		t.Fatalf("err = %v (%T), want *types.CyclicReferenceError", err, err)
	}
	if len(cyc.Path) < 2 {
		t.Errorf("cyc.Path = %v, want at least 2 entries", cyc.Path)
	}
}

func TestBuild_GoldenRuleAmbiguous(t *testing.T) {
	src := `A **X** gets a if the __a__ of the **X** is equal to true. A **Y** gets b if the __b__ of the **Y** is equal to true.`
	rules := mustParse(t, src)

	_, err := Build(rules)
	if err != types.ErrGoldenRuleAmbiguous {
		t.Fatalf("err = %v, want ErrGoldenRuleAmbiguous", err)
	}
}

func TestBuild_EmptyRuleSet(t *testing.T) {
	_, err := Build(nil)
	if err != types.ErrEmptyRuleSet {
		t.Fatalf("err = %v, want ErrEmptyRuleSet", err)
	}
}
