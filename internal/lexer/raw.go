package lexer

import (
	"strings"
	"unicode"
)

// Pos returns the lexer's current rune offset into its source, for callers
// (internal/parser) that need to slice out a rule's original source text
// for trace/diagnostic display.
func (l *Lexer) Pos() int { return l.pos }

// Slice returns the source text between two rune offsets previously
// obtained from Pos, clamped to the source length.
func (l *Lexer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(l.src) {
		end = len(l.src)
	}
	if start >= end {
		return ""
	}
	return string(l.src[start:end])
}

// ScanUntilPeriodOrIf implements spec.md §4.A's greedy outcome
// production: it consumes raw characters (bypassing token recognition
// entirely) until it reaches a '.' or the whitespace-bounded word "if",
// and returns the trimmed text consumed. The stop sequence itself is left
// unconsumed so the next Next() call tokenizes it normally. This is
// deliberately NOT token-based: spec.md §9's open question calls for
// preserving the original truncate-on-"if" behavior verbatim, including
// outcomes that happen to contain the word "if".
func (l *Lexer) ScanUntilPeriodOrIf() string {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || r == '.' {
			break
		}
		if unicode.IsSpace(r) && l.matchesIfBoundary() {
			break
		}
		b.WriteRune(l.advance())
	}
	return strings.TrimSpace(b.String())
}

// matchesIfBoundary reports whether the source at the lexer's current
// position (which must be whitespace) matches "whitespace if whitespace".
func (l *Lexer) matchesIfBoundary() bool {
	i := l.pos
	if i >= len(l.src) || !unicode.IsSpace(l.src[i]) {
		return false
	}
	for i < len(l.src) && unicode.IsSpace(l.src[i]) {
		i++
	}
	if i+1 >= len(l.src) {
		return false
	}
	if unicode.ToLower(l.src[i]) != 'i' || unicode.ToLower(l.src[i+1]) != 'f' {
		return false
	}
	k := i + 2
	if k >= len(l.src) || !unicode.IsSpace(l.src[k]) {
		return false
	}
	return true
}
