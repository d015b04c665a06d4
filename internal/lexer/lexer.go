// Package lexer implements component A: a hand-rolled scanner over the
// DSL's composed grammar fragments (identifiers/literals, conditions/
// operators, rules — see DESIGN.md for why a hand-rolled scanner replaces
// original_source's pest grammar). It is stateless and context-free:
// every token decision depends only on the characters at the current
// position, never on what came before. Ordered-alternative predicate
// phrases are resolved here so a longer phrase always wins over a
// prefix of itself (spec.md §4.A/§9).
package lexer

import (
	"strings"
	"unicode"

	"github.com/solatis/clausekeeper/internal/operator"
)

// Kind tags what kind of token was scanned.
type Kind int

const (
	EOF Kind = iota
	Word
	Property
	Selector
	LabelRef
	Number
	String
	Boolean
	DateLiteral
	PredicatePhrase
	Connective
	LBracket
	RBracket
	Comma
	Period
	Invalid
)

// Token is one lexical unit. Predicate is only meaningful when
// Kind == PredicatePhrase.
type Token struct {
	Kind      Kind
	Text      string
	Predicate operator.Predicate
	Line, Col int
}

// phraseEntry pairs a DSL predicate phrase with its operator. Order
// matters: entries that share a prefix must list the longer phrase
// first, exactly spec.md §4.A's "is greater than or equal to before is
// greater than" example, extended to every overlapping family.
var phraseTable = []struct {
	phrase string
	pred   operator.Predicate
}{
	{"is greater than or equal to", operator.GreaterOrEqual},
	{"is less than or equal to", operator.LessOrEqual},
	{"is at least", operator.GreaterOrEqual},
	{"is no more than", operator.LessOrEqual},
	{"is exactly equal to", operator.ExactlyEqual},
	{"is not equal to", operator.NotEqual},
	{"is not the same as", operator.NotSame},
	{"is the same as", operator.Same},
	{"is equal to", operator.Equal},
	{"is older than", operator.OlderThan},
	{"is younger than", operator.YoungerThan},
	{"is later than", operator.LaterThan},
	{"is earlier than", operator.EarlierThan},
	{"is within", operator.Within},
	{"is greater than", operator.GreaterThan},
	{"is less than", operator.LessThan},
	{"is not in", operator.NotIn},
	{"is in", operator.In},
	{"is not empty", operator.NotEmpty},
	{"is empty", operator.Empty},
	{"contains", operator.Contains},
}

// Lexer scans a DSL source string into a token stream.
type Lexer struct {
	src       []rune
	pos       int
	line, col int
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

func (l *Lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) peekAt(offset int) (rune, bool) {
	if l.pos+offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos+offset], true
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}
		if unicode.IsSpace(r) {
			l.advance()
			continue
		}
		if r == '#' {
			for {
				r, ok := l.peekRune()
				if !ok || r == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		return
	}
}

// Next returns the next token in the stream, or an EOF token once the
// source is exhausted.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	startLine, startCol := l.line, l.col
	r, ok := l.peekRune()
	if !ok {
		return Token{Kind: EOF, Line: startLine, Col: startCol}
	}

	switch {
	case r == '*':
		if r2, ok := l.peekAt(1); ok && r2 == '*' {
			return l.scanSelector(startLine, startCol)
		}
	case r == '_':
		if r2, ok := l.peekAt(1); ok && r2 == '_' {
			return l.scanProperty(startLine, startCol)
		}
	case r == '§' || r == '$':
		return l.scanLabelRef(startLine, startCol)
	case r == '"':
		return l.scanQuotedString(startLine, startCol)
	case r == '[':
		l.advance()
		return Token{Kind: LBracket, Text: "[", Line: startLine, Col: startCol}
	case r == ']':
		l.advance()
		return Token{Kind: RBracket, Text: "]", Line: startLine, Col: startCol}
	case r == ',':
		l.advance()
		return Token{Kind: Comma, Text: ",", Line: startLine, Col: startCol}
	case r == '.':
		l.advance()
		return Token{Kind: Period, Text: ".", Line: startLine, Col: startCol}
	case unicode.IsDigit(r):
		return l.scanNumberOrDate(startLine, startCol)
	case isIdentStart(r):
		return l.scanWordLike(startLine, startCol)
	}

	l.advance()
	return Token{Kind: Invalid, Text: string(r), Line: startLine, Col: startCol}
}

func (l *Lexer) scanSelector(line, col int) Token {
	l.advance()
	l.advance() // consume **
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			break
		}
		if r == '*' {
			if r2, ok := l.peekAt(1); ok && r2 == '*' {
				l.advance()
				l.advance()
				break
			}
		}
		b.WriteRune(l.advance())
	}
	return Token{Kind: Selector, Text: strings.TrimSpace(b.String()), Line: line, Col: col}
}

func (l *Lexer) scanProperty(line, col int) Token {
	l.advance()
	l.advance() // consume __
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			break
		}
		if r == '_' {
			if r2, ok := l.peekAt(1); ok && r2 == '_' {
				l.advance()
				l.advance()
				break
			}
		}
		b.WriteRune(l.advance())
	}
	return Token{Kind: Property, Text: strings.TrimSpace(b.String()), Line: line, Col: col}
}

func (l *Lexer) scanLabelRef(line, col int) Token {
	l.advance() // consume § or $
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !isIdentRune(r) {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Kind: LabelRef, Text: b.String(), Line: line, Col: col}
}

func (l *Lexer) scanQuotedString(line, col int) Token {
	l.advance() // consume opening quote
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || r == '"' {
			break
		}
		b.WriteRune(l.advance())
	}
	if _, ok := l.peekRune(); ok {
		l.advance() // consume closing quote
	}
	return Token{Kind: String, Text: b.String(), Line: line, Col: col}
}

// scanNumberOrDate distinguishes a plain number from a YYYY-MM-DD date
// literal by looking for the dash-separated calendar-day shape.
func (l *Lexer) scanNumberOrDate(line, col int) Token {
	save := l.pos
	saveLine, saveCol := l.line, l.col

	digits1 := l.scanDigitRun()
	if len(digits1) == 4 {
		if r, ok := l.peekRune(); ok && r == '-' {
			l.advance()
			digits2 := l.scanDigitRun()
			if len(digits2) == 2 {
				if r, ok := l.peekRune(); ok && r == '-' {
					l.advance()
					digits3 := l.scanDigitRun()
					if len(digits3) == 2 {
						text := digits1 + "-" + digits2 + "-" + digits3
						return Token{Kind: DateLiteral, Text: text, Line: line, Col: col}
					}
				}
			}
		}
	}

	// Not a date: rewind and scan as a plain number.
	l.pos, l.line, l.col = save, saveLine, saveCol
	var b strings.Builder
	b.WriteString(l.scanDigitRun())
	if r, ok := l.peekRune(); ok && r == '.' {
		if r2, ok := l.peekAt(1); ok && unicode.IsDigit(r2) {
			b.WriteRune(l.advance())
			b.WriteString(l.scanDigitRun())
		}
	}
	return Token{Kind: Number, Text: b.String(), Line: line, Col: col}
}

func (l *Lexer) scanDigitRun() string {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !unicode.IsDigit(r) {
			break
		}
		b.WriteRune(l.advance())
	}
	return b.String()
}

// scanWordLike first tries an ordered predicate-phrase match (longest
// match wins because phraseTable lists longer phrases ahead of their
// prefixes), then and/or, then true/false, then falls back to a generic
// identifier run per spec.md §4.A's "letters/digits/underscore with
// embedded, non-trailing spaces" production. It also recognizes the
// date(...) literal wrapper.
func (l *Lexer) scanWordLike(line, col int) Token {
	for _, entry := range phraseTable {
		if newPos, newLine, newCol, ok := l.tryMatchPhrase(entry.phrase); ok {
			l.pos, l.line, l.col = newPos, newLine, newCol
			return Token{Kind: PredicatePhrase, Text: entry.phrase, Predicate: entry.pred, Line: line, Col: col}
		}
	}

	if newPos, newLine, newCol, ok := l.tryMatchWord("and"); ok {
		l.pos, l.line, l.col = newPos, newLine, newCol
		return Token{Kind: Connective, Text: "and", Line: line, Col: col}
	}
	if newPos, newLine, newCol, ok := l.tryMatchWord("or"); ok {
		l.pos, l.line, l.col = newPos, newLine, newCol
		return Token{Kind: Connective, Text: "or", Line: line, Col: col}
	}
	if newPos, newLine, newCol, ok := l.tryMatchWord("true"); ok {
		l.pos, l.line, l.col = newPos, newLine, newCol
		return Token{Kind: Boolean, Text: "true", Line: line, Col: col}
	}
	if newPos, newLine, newCol, ok := l.tryMatchWord("false"); ok {
		l.pos, l.line, l.col = newPos, newLine, newCol
		return Token{Kind: Boolean, Text: "false", Line: line, Col: col}
	}

	if tok, ok := l.tryScanDateWrapper(line, col); ok {
		return tok
	}

	return l.scanIdentifierRun(line, col)
}

// tryMatchPhrase reports whether phrase matches the source starting at
// the lexer's current position, tolerating arbitrary interior whitespace
// runs for each space in phrase, case-insensitively, with a trailing
// word-boundary check so "is in" never swallows the start of "is
// interesting".
func (l *Lexer) tryMatchPhrase(phrase string) (pos, line, col int, ok bool) {
	i := l.pos
	ln, cl := l.line, l.col
	advance := func() {
		if l.src[i] == '\n' {
			ln++
			cl = 1
		} else {
			cl++
		}
		i++
	}

	for _, pr := range phrase {
		if pr == ' ' {
			if i >= len(l.src) || !unicode.IsSpace(l.src[i]) {
				return 0, 0, 0, false
			}
			for i < len(l.src) && unicode.IsSpace(l.src[i]) {
				advance()
			}
			continue
		}
		if i >= len(l.src) || unicode.ToLower(l.src[i]) != unicode.ToLower(pr) {
			return 0, 0, 0, false
		}
		advance()
	}

	if i < len(l.src) && isIdentRune(l.src[i]) {
		return 0, 0, 0, false
	}
	return i, ln, cl, true
}

func (l *Lexer) tryMatchWord(word string) (pos, line, col int, ok bool) {
	return l.tryMatchPhrase(word)
}

func (l *Lexer) tryScanDateWrapper(line, col int) (Token, bool) {
	if newPos, newLine, newCol, ok := l.tryMatchWord("date"); ok {
		save := l.pos
		l.pos, l.line, l.col = newPos, newLine, newCol
		for {
			r, ok := l.peekRune()
			if !ok || !unicode.IsSpace(r) {
				break
			}
			l.advance()
		}
		if r, ok := l.peekRune(); !ok || r != '(' {
			l.pos = save
			return Token{}, false
		}
		l.advance() // consume (
		digits1 := l.scanDigitRun()
		var inner strings.Builder
		inner.WriteString(digits1)
		if r, ok := l.peekRune(); ok && r == '-' {
			inner.WriteRune(l.advance())
			inner.WriteString(l.scanDigitRun())
		}
		if r, ok := l.peekRune(); ok && r == '-' {
			inner.WriteRune(l.advance())
			inner.WriteString(l.scanDigitRun())
		}
		if r, ok := l.peekRune(); ok && r == ')' {
			l.advance()
		}
		return Token{Kind: DateLiteral, Text: inner.String(), Line: line, Col: col}, true
	}
	return Token{}, false
}

// scanIdentifierRun consumes a letter/digit/underscore run with embedded,
// but not trailing, single spaces: "membership level" is one identifier,
// but a run never swallows a multi-space gap or trailing whitespace. A
// space is only ever consumed when another identifier character follows
// it, so the run can never end on a space it swallowed itself. A space
// never joins a grammar word ("if", "of", "in", "the", "a", "an", "and",
// "or") to its neighbour, so "if the __age__ of the" still lexes word by
// word.
func (l *Lexer) scanIdentifierRun(line, col int) Token {
	isGrammarWord := func(w string) bool {
		switch strings.ToLower(w) {
		case "if", "of", "in", "the", "a", "an", "and", "or":
			return true
		}
		return false
	}
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			break
		}
		if isIdentRune(r) {
			b.WriteRune(l.advance())
			continue
		}
		if r == ' ' {
			var next []rune
			for i := 1; ; i++ {
				r3, ok3 := l.peekAt(i)
				if !ok3 || !isIdentRune(r3) {
					break
				}
				next = append(next, r3)
			}
			if r2, ok2 := l.peekAt(1); ok2 && isIdentStart(r2) && !isGrammarWord(b.String()) && !isGrammarWord(string(next)) {
				b.WriteRune(l.advance())
				continue
			}
		}
		break
	}
	return Token{Kind: Word, Text: b.String(), Line: line, Col: col}
}
