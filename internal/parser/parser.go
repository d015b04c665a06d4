// Package parser implements component B, the AST Builder: a recursive
// descent reader over internal/lexer's token stream that assembles
// types.Rule/types.Condition trees. Grounded on original_source's
// src/runner/parser.rs for the grammar shape (header, outcome, condition
// tree), reworked as a hand-rolled Go parser since nothing in the pack
// carries a parser-generator dependency (see DESIGN.md).
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/solatis/clausekeeper/internal/lexer"
	"github.com/solatis/clausekeeper/internal/operator"
	"github.com/solatis/clausekeeper/internal/types"
	"github.com/solatis/clausekeeper/internal/value"
)

// twoWordVerbs lists the multi-word entries of spec.md §6's outcome verb
// set; anything else consumes exactly one leading word as the verb.
var twoWordVerbs = map[string]bool{
	"qualifies for": true,
	"succeeds in":   true,
	"excels at":     true,
	"benefits from": true,
	"arrives at":    true,
	"comes to":      true,
}

var fillerWords = map[string]bool{
	"the": true,
	"a":   true,
	"an":  true,
}

type parser struct {
	lex       *lexer.Lexer
	lookahead *lexer.Token
}

// ParseRules parses source into an ordered slice of rules, the shape
// internal/resolve.Build consumes. It enforces spec.md's size limits
// (MaxRuleTextSize is the caller's responsibility before source even
// reaches here, since it's a pre-parse guard on raw bytes).
func ParseRules(source string) ([]*types.Rule, error) {
	p := &parser{lex: lexer.New(source)}

	var rules []*types.Rule
	for {
		tok := p.peek()
		if tok.Kind == lexer.EOF {
			break
		}
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
		if len(rules) > types.MaxRuleCount {
			return nil, types.ErrTooManyRules
		}
	}

	if len(rules) == 0 {
		return nil, types.ErrEmptyRuleSet
	}
	return rules, nil
}

func (p *parser) peek() lexer.Token {
	if p.lookahead == nil {
		tok := p.lex.Next()
		p.lookahead = &tok
	}
	return *p.lookahead
}

func (p *parser) consume() lexer.Token {
	tok := p.peek()
	p.lookahead = nil
	return tok
}

func (p *parser) expect(kind lexer.Kind, expected string) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, &types.ParseError{Line: tok.Line, Col: tok.Col, Expected: expected}
	}
	return p.consume(), nil
}

// parseRule reads one "[label.] A Selector verb outcome [if conditions]."
// clause. The outcome segment is read with the lexer's raw scan (not
// tokenized) so it faithfully captures spec.md §4.A's greedy,
// truncate-on-"if" production.
func (p *parser) parseRule() (*types.Rule, error) {
	start := p.lex.Pos()

	var label string
	if tok := p.peek(); tok.Kind == lexer.LabelRef {
		label = tok.Text
		p.consume()
		if _, err := p.expect(lexer.Period, "'.' terminating label"); err != nil {
			return nil, err
		}
	}

	// Article word (A/An), discarded; lenient if a rule omits it.
	if tok := p.peek(); tok.Kind == lexer.Word {
		p.consume()
	}

	selTok, err := p.expect(lexer.Selector, "object selector")
	if err != nil {
		return nil, err
	}

	// No peek may happen between the selector and the raw outcome scan,
	// or the scan would start one token too late.
	outcomeText := p.lex.ScanUntilPeriodOrIf()
	verb, outcome, err := splitVerbOutcome(outcomeText)
	if err != nil {
		return nil, err
	}

	var root *types.Condition
	if tok := p.peek(); tok.Kind == lexer.Word && strings.EqualFold(tok.Text, "if") {
		p.consume()
		root, err = p.parseConditionTree()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.Period, "'.' terminating rule"); err != nil {
		return nil, err
	}
	end := p.lex.Pos()

	return &types.Rule{
		Label:    label,
		Selector: selTok.Text,
		Outcome:  outcome,
		Verb:     verb,
		Root:     root,
		Source:   strings.TrimSpace(p.lex.Slice(start, end)),
	}, nil
}

// splitVerbOutcome splits a raw outcome clause into its verb (discarded at
// evaluation time) and outcome identifier. A single-word clause has no
// verb at all — spec.md §4.B's "verb+identifier or bare identifier".
func splitVerbOutcome(text string) (verb, outcome string, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", &types.ParseError{Expected: "outcome identifier"}
	}
	if len(fields) == 1 {
		return "", fields[0], nil
	}
	if len(fields) >= 3 {
		candidate := strings.ToLower(fields[0] + " " + fields[1])
		if twoWordVerbs[candidate] {
			return candidate, strings.Join(fields[2:], " "), nil
		}
	}
	return fields[0], strings.Join(fields[1:], " "), nil
}

// parseConditionTree assembles the strictly left-deep binary tree
// ((C1 op1 C2) op2 C3) spec.md §4.B/§9 calls for — never the AND-first
// grouping original_source's evaluator.rs applies at evaluation time.
func (p *parser) parseConditionTree() (*types.Condition, error) {
	left, err := p.parseLeaf()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != lexer.Connective {
			break
		}
		p.consume()
		right, err := p.parseLeaf()
		if err != nil {
			return nil, err
		}
		left = &types.Condition{Kind: types.CondBinary, Left: left, Right: right, Connective: tok.Text}
	}
	return left, nil
}

func (p *parser) parseLeaf() (*types.Condition, error) {
	tok := p.peek()
	if tok.Kind == lexer.LabelRef {
		p.consume()
		cond := &types.Condition{Kind: types.CondLabelRef, RefName: tok.Text}
		p.consumeOptionalLabelPredicateWords()
		return cond, nil
	}
	return p.parsePropertyOrRuleRef()
}

// consumeOptionalLabelPredicateWords discards the trailing descriptor word
// a label reference may carry ("succeeds", "holds", "is approved"). The
// lexer's embedded-space identifier run already merges a multi-word
// descriptor like "is approved" into a single Word token, so any one
// trailing Word token (of any text) is the whole descriptor.
func (p *parser) consumeOptionalLabelPredicateWords() {
	if tok := p.peek(); tok.Kind == lexer.Word {
		p.consume()
	}
}

// parsePropertyOrRuleRef parses an optional aggregate prefix ("length
// of"/"number of"), a property-access chain, and either a predicate
// comparison or (when the chain is a bare lone selector followed by a bare
// word) a rule reference to another rule's outcome.
func (p *parser) parsePropertyOrRuleRef() (*types.Condition, error) {
	startTok := p.peek()

	// Filler words may precede an aggregate ("the length of ...").
	for tok := p.peek(); tok.Kind == lexer.Word && fillerWords[strings.ToLower(tok.Text)]; tok = p.peek() {
		p.consume()
	}

	aggregate := ""
	if tok := p.peek(); tok.Kind == lexer.Word {
		lower := strings.ToLower(tok.Text)
		if lower == "length" || lower == "number" {
			p.consume()
			aggregate = lower
			if tok2 := p.peek(); tok2.Kind == lexer.Word && strings.EqualFold(tok2.Text, "of") {
				p.consume()
			}
		}
	}

	segments, err := p.parseSegmentChain()
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, &types.ParseError{Line: startTok.Line, Col: startTok.Col, Expected: "property access or rule reference"}
	}

	if aggregate == "" && len(segments) == 1 && segments[0].Selector {
		if next := p.peek(); next.Kind == lexer.Word {
			refName := next.Text
			p.consume()
			return &types.Condition{Kind: types.CondRuleRef, RefName: refName}, nil
		}
	}

	predTok, err := p.expect(lexer.PredicatePhrase, "predicate phrase")
	if err != nil {
		return nil, err
	}

	kind := types.CondProperty
	if aggregate != "" {
		kind = types.CondAggregate
	}
	cond := &types.Condition{Kind: kind, Path: segments, Aggregate: aggregate, Predicate: predTok.Predicate}

	switch predTok.Predicate {
	case operator.Empty, operator.NotEmpty:
		// no operand
	case operator.In, operator.NotIn:
		operands, err := p.parseOperandList()
		if err != nil {
			return nil, err
		}
		if len(operands) > types.MaxInOperatorValues {
			return nil, types.ErrTooManyInValues
		}
		cond.Operands = operands
	default:
		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		cond.Operand = operand
	}

	return cond, nil
}

// parseSegmentChain reads a sequence of selector/property segments joined
// by "of"/"in", each optionally preceded by a filler word ("the"/"a"/
// "an"), and reverses them: the DSL's surface order lists the tested
// (outermost) segment first, but value.Resolve expects root-first
// traversal order.
func (p *parser) parseSegmentChain() ([]value.PathSegment, error) {
	var segments []value.PathSegment

	for {
		for {
			tok := p.peek()
			if tok.Kind == lexer.Word && fillerWords[strings.ToLower(tok.Text)] {
				p.consume()
				continue
			}
			break
		}

		tok := p.peek()
		switch tok.Kind {
		case lexer.Property:
			p.consume()
			segments = append(segments, value.PathSegment{Name: tok.Text})
		case lexer.Selector:
			p.consume()
			// Dotted parts go in last-first, so the reversal below leaves
			// them in written (outer-to-inner) order.
			parts := strings.Split(tok.Text, ".")
			for i := len(parts) - 1; i >= 0; i-- {
				segments = append(segments, value.PathSegment{Selector: true, Name: parts[i]})
			}
		default:
			if len(segments) > types.MaxPropertyPathDepth {
				return nil, types.ErrPathTooDeep
			}
			reverseSegments(segments)
			return segments, nil
		}

		next := p.peek()
		if next.Kind == lexer.Word {
			lower := strings.ToLower(next.Text)
			if lower == "of" || lower == "in" {
				p.consume()
				continue
			}
		}
		if len(segments) > types.MaxPropertyPathDepth {
			return nil, types.ErrPathTooDeep
		}
		reverseSegments(segments)
		return segments, nil
	}
}

func reverseSegments(segs []value.PathSegment) {
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
}

func (p *parser) parseOperandList() ([]value.Value, error) {
	if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
		return nil, err
	}
	var vals []value.Value
	for {
		if tok := p.peek(); tok.Kind == lexer.RBracket {
			p.consume()
			break
		}
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if tok := p.peek(); tok.Kind == lexer.Comma {
			p.consume()
			continue
		}
	}
	return vals, nil
}

// parseOperand reads a single scalar operand: a number (optionally
// followed by a unit word, forming a duration literal), a quoted or bare
// string, a boolean, or a date literal.
func (p *parser) parseOperand() (value.Value, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Number:
		p.consume()
		n, _ := strconv.ParseFloat(tok.Text, 64)
		if unitTok := p.peek(); unitTok.Kind == lexer.Word {
			if unit, ok := value.UnitFromWord(strings.ToLower(unitTok.Text)); ok {
				p.consume()
				return value.DurationValue(value.Duration{Quantity: n, Unit: unit}), nil
			}
		}
		return value.Number(n), nil
	case lexer.String:
		p.consume()
		return value.String(tok.Text), nil
	case lexer.Boolean:
		p.consume()
		return value.Bool(tok.Text == "true"), nil
	case lexer.DateLiteral:
		p.consume()
		t, err := time.Parse(value.DateLayout, tok.Text)
		if err != nil {
			return value.Value{}, &types.ParseError{Line: tok.Line, Col: tok.Col, Expected: "valid calendar date"}
		}
		return value.DateValue(t), nil
	case lexer.Word:
		p.consume()
		return value.String(tok.Text), nil
	default:
		return value.Value{}, &types.ParseError{Line: tok.Line, Col: tok.Col, Expected: "operand value"}
	}
}
