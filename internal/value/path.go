package value

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyPath mirrors fieldpath.go's rejection of a zero-segment path.
var ErrEmptyPath = errors.New("value: empty property path")

// PathSegment is one step of a property access chain. A Selector segment
// matches an object-selector name (**Customer**); a property segment
// matches a leaf attribute (__age__).
type PathSegment struct {
	Selector bool
	Name     string
}

// ResolveResult carries the outcome of walking a path against data,
// mirroring fieldpath.go's ResolveResult: the value found (if any), the
// prefix of the path actually walked (for trace reporting on a miss), and
// whether resolution succeeded.
type ResolveResult struct {
	Value        any
	Found        bool
	ResolvedPath []PathSegment
}

// Resolve walks path against data segment by segment. Segments are in
// traversal order: the first segment is looked up against the root value,
// the last segment's result is the value under test — the parser is
// responsible for reversing the DSL's surface "A of B of C" syntax (where
// A is the final/outermost segment) into this traversal order.
//
// A selector segment at index 0 falls back to using data itself when no
// matching key exists (the "top-level invocation" case of spec.md §4.D).
// Any failed step yields Found=false rather than an error: missing data
// is a value-level condition, never a load or resolution error.
func Resolve(path []PathSegment, data any) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{}, ErrEmptyPath
	}

	current := data
	resolved := make([]PathSegment, 0, len(path))
	for i, seg := range path {
		var ok bool
		if seg.Selector {
			current, ok = resolveSelector(seg.Name, current, i == 0)
		} else {
			current, ok = resolveProperty(seg.Name, current)
		}
		if !ok {
			return ResolveResult{Value: Missing, ResolvedPath: resolved}, nil
		}
		resolved = append(resolved, seg)
	}
	return ResolveResult{Value: current, Found: true, ResolvedPath: resolved}, nil
}

func resolveSelector(name string, data any, topLevel bool) (any, bool) {
	obj, ok := data.(map[string]any)
	if ok {
		for k, v := range obj {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
	}
	if topLevel {
		return data, true
	}
	return nil, false
}

// resolveProperty tries, in order, the exact key, camelCase, PascalCase,
// and snake_case forms of name against an object's keys — the
// case-tolerant lookup order spec.md §4.D mandates. The first candidate
// that exists as a key wins, even if its value is nil.
func resolveProperty(name string, data any) (any, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}

	candidates := []string{
		name,
		toCamelCase(name),
		toPascalCase(name),
		toSnakeCase(name),
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if v, ok := obj[c]; ok {
			return v, true
		}
	}
	return nil, false
}

func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]) && runes[i-1] != '_' && runes[i-1] != ' ' && runes[i-1] != '-':
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func toSnakeCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

func toCamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalize(strings.ToLower(w)))
	}
	return b.String()
}

func toPascalCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(strings.ToLower(w)))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// IsEmpty reports whether a resolved raw value counts as "empty" for the
// is empty / is not empty predicates: zero-length string, list, or object,
// or an outright miss (found=false is handled by the caller, not here).
func IsEmpty(raw any) bool {
	switch v := raw.(type) {
	case string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case nil:
		return true
	default:
		return false
	}
}
