// Package resolve implements component C, the RuleSet Resolver: it turns
// a flat, order-preserved slice of parsed rules into a validated
// types.RuleSet with every label/rule reference bound, duplicate
// definitions rejected, and exactly one golden rule identified. Grounded
// on internal/rules/compile.go's "validate at compile time, not
// evaluation time" discipline — resource-limit and reference-integrity
// failures surface at load, never mid-evaluation.
package resolve

import (
	"strings"

	"github.com/solatis/clausekeeper/internal/types"
)

// Build resolves rules into a RuleSet. It fails closed: any duplicate
// outcome/label, dangling reference, reference cycle, or golden-rule
// ambiguity returns an error rather than a partially usable RuleSet.
func Build(rules []*types.Rule) (*types.RuleSet, error) {
	if len(rules) == 0 {
		return nil, types.ErrEmptyRuleSet
	}
	if len(rules) > types.MaxRuleCount {
		return nil, types.ErrTooManyRules
	}

	byOutcome := make(map[string]*types.Rule, len(rules))
	byLabel := make(map[string]*types.Rule, len(rules))
	selectorIndex := make(map[string][]*types.Rule)

	for _, r := range rules {
		if _, dup := byOutcome[r.Outcome]; dup {
			return nil, &types.DuplicateDefinitionError{Kind: "outcome", Name: r.Outcome}
		}
		byOutcome[r.Outcome] = r

		if r.Label != "" {
			if _, dup := byLabel[r.Label]; dup {
				return nil, &types.DuplicateDefinitionError{Kind: "label", Name: r.Label}
			}
			byLabel[r.Label] = r
		}

		selectorIndex[r.Selector] = append(selectorIndex[r.Selector], r)
	}

	inDegree := make(map[*types.Rule]int, len(rules))
	for _, r := range rules {
		inDegree[r] = 0
	}

	var resolveCond func(c *types.Condition) error
	resolveCond = func(c *types.Condition) error {
		if c == nil {
			return nil
		}
		switch c.Kind {
		case types.CondBinary:
			if err := resolveCond(c.Left); err != nil {
				return err
			}
			return resolveCond(c.Right)
		case types.CondLabelRef:
			target, ok := byLabel[c.RefName]
			if !ok {
				return &types.UnknownReferenceError{Name: c.RefName}
			}
			c.Ref = target
			inDegree[target]++
		case types.CondRuleRef:
			target, ok := byOutcome[c.RefName]
			if !ok {
				return &types.UnknownReferenceError{Name: c.RefName}
			}
			c.Ref = target
			inDegree[target]++
		}
		return nil
	}

	for _, r := range rules {
		if err := resolveCond(r.Root); err != nil {
			return nil, err
		}
	}

	if err := detectCycle(rules); err != nil {
		return nil, err
	}

	var golden []*types.Rule
	for _, r := range rules {
		if inDegree[r] == 0 {
			golden = append(golden, r)
		}
	}
	switch len(golden) {
	case 0:
		return nil, types.ErrNoGoldenRule
	case 1:
		// fall through
	default:
		return nil, types.ErrGoldenRuleAmbiguous
	}

	return &types.RuleSet{
		Rules:         rules,
		ByOutcome:     byOutcome,
		ByLabel:       byLabel,
		SelectorIndex: selectorIndex,
		Golden:        golden[0],
		Hash:          types.ComputeRuleSetHash(normalizedSource(rules)),
	}, nil
}

// ruleName prefers a rule's label (the form references usually address)
// and falls back to its outcome identifier, for cycle-path reporting.
func ruleName(r *types.Rule) string {
	if r.Label != "" {
		return r.Label
	}
	return r.Outcome
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// detectCycle runs a DFS over the reference graph (Condition.Ref edges),
// reporting the first cycle found as a CyclicReferenceError carrying the
// path of rule names from the cycle's start back to itself. Grounded on
// spec.md §9's "arena of rules addressed by index" note: since Rule
// pointers are stable and acyclicity must hold globally (not just from
// the golden rule), every rule is visited, not only reachable ones.
func detectCycle(rules []*types.Rule) error {
	color := make(map[*types.Rule]int, len(rules))
	var path []string
	var cycleErr error

	var visit func(r *types.Rule) bool
	visit = func(r *types.Rule) bool {
		color[r] = colorGray
		path = append(path, ruleName(r))

		var walk func(c *types.Condition) bool
		walk = func(c *types.Condition) bool {
			if c == nil {
				return false
			}
			switch c.Kind {
			case types.CondBinary:
				return walk(c.Left) || walk(c.Right)
			case types.CondLabelRef, types.CondRuleRef:
				if c.Ref == nil {
					return false
				}
				switch color[c.Ref] {
				case colorGray:
					cycleErr = &types.CyclicReferenceError{Path: append(append([]string{}, path...), ruleName(c.Ref))}
					return true
				case colorWhite:
					if visit(c.Ref) {
						return true
					}
				}
			}
			return false
		}

		found := walk(r.Root)
		path = path[:len(path)-1]
		color[r] = colorBlack
		return found
	}

	for _, r := range rules {
		if color[r] == colorWhite {
			if visit(r) {
				return cycleErr
			}
		}
	}
	return nil
}

// normalizedSource joins each rule's captured source text in slice order,
// the content the RuleSet.Hash is computed over (spec.md §3 addition).
func normalizedSource(rules []*types.Rule) string {
	var b strings.Builder
	for i, r := range rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.Source)
	}
	return b.String()
}
