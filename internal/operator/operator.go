// Package operator implements component E, the Operator Core: a single
// function-based switch over the predicate table, exactly the shape
// operators.go uses ("function-based: user preference favors functional
// composition over interface polymorphism") rather than one method per
// predicate type.
package operator

import (
	"strings"
	"time"

	"github.com/solatis/clausekeeper/internal/value"
)

// Predicate enumerates the closed set of comparison/list/emptiness
// predicates spec.md §3 defines.
type Predicate int

const (
	Unspecified Predicate = iota
	Equal
	NotEqual
	Same
	NotSame
	ExactlyEqual
	GreaterThan
	LessThan
	GreaterOrEqual
	LessOrEqual
	LaterThan
	EarlierThan
	OlderThan
	YoungerThan
	Within
	Contains
	In
	NotIn
	Empty
	NotEmpty
)

// MismatchKind tags why a comparison yielded false without a clean
// typed answer, for trace reporting. NoMismatch means the comparison ran
// cleanly (whatever the boolean result).
type MismatchKind int

const (
	NoMismatch MismatchKind = iota
	TypeMismatch
	MissingOperand
)

// OperandKind reports which value.Kind a predicate expects its operand
// coerced to. Empty/NotEmpty need no operand. The evaluator does not call
// it; no other package in this module does either.
func OperandKind(pred Predicate, operand value.Value) value.Kind {
	switch pred {
	case OlderThan, YoungerThan, Within:
		return value.KindDate
	case LaterThan, EarlierThan:
		return value.KindDate
	default:
		return operand.Kind
	}
}

// Input bundles everything Compare needs: whether the left-hand property
// resolved at all, its raw (pre-coercion) JSON value, the right-hand DSL
// operand(s), and a clock for relative-date predicates.
type Input struct {
	Found    bool
	Raw      any
	Operand  value.Value
	Operands []value.Value
	Now      time.Time
}

// Compare applies pred to in, returning the boolean verdict and, when the
// verdict is a forced false rather than a genuine comparison, which kind
// of mismatch caused it. Per spec.md §7's propagation policy, a mismatch
// never panics or errors — it degrades to false and is recorded in the
// trace by the caller.
func Compare(pred Predicate, in Input) (bool, MismatchKind) {
	if pred == Empty || pred == NotEmpty {
		empty := !in.Found || value.IsEmpty(in.Raw)
		if pred == Empty {
			return empty, NoMismatch
		}
		return !empty, NoMismatch
	}

	if !in.Found {
		return false, MissingOperand
	}

	switch pred {
	case Equal, Same:
		return compareEquality(pred, in, false)
	case NotEqual, NotSame:
		eq, mismatch := compareEquality(equalVariantFor(pred), in, false)
		if mismatch != NoMismatch {
			return false, mismatch
		}
		return !eq, NoMismatch
	case ExactlyEqual:
		return compareEquality(pred, in, true)

	case GreaterThan, LessThan, GreaterOrEqual, LessOrEqual:
		return compareOrdering(pred, in)

	case LaterThan, EarlierThan:
		return compareChronological(pred, in)

	case OlderThan, YoungerThan:
		return compareAge(pred, in)

	case Within:
		return compareWithin(in)

	case Contains:
		return compareContains(in)

	case In, NotIn:
		return compareMembership(pred, in)

	default:
		return false, TypeMismatch
	}
}

func equalVariantFor(pred Predicate) Predicate {
	if pred == NotSame {
		return Same
	}
	return Equal
}

func compareEquality(pred Predicate, in Input, caseSensitive bool) (bool, MismatchKind) {
	kind := in.Operand.Kind
	lhs, ok := value.Coerce(in.Raw, kind)
	if !ok {
		return false, TypeMismatch
	}

	switch kind {
	case value.KindNumber:
		return lhs.Number == in.Operand.Number, NoMismatch
	case value.KindBool:
		return lhs.Bool == in.Operand.Bool, NoMismatch
	case value.KindString:
		if caseSensitive || pred == ExactlyEqual {
			return lhs.Str == in.Operand.Str, NoMismatch
		}
		return strings.EqualFold(lhs.Str, in.Operand.Str), NoMismatch
	case value.KindDate:
		return lhs.Date.Equal(in.Operand.Date), NoMismatch
	case value.KindDuration:
		return lhs.Duration.Seconds() == in.Operand.Duration.Seconds(), NoMismatch
	default:
		return false, TypeMismatch
	}
}

func compareOrdering(pred Predicate, in Input) (bool, MismatchKind) {
	kind := in.Operand.Kind
	lhs, ok := value.Coerce(in.Raw, kind)
	if !ok {
		return false, TypeMismatch
	}

	var less, equal bool
	switch kind {
	case value.KindNumber:
		less = lhs.Number < in.Operand.Number
		equal = lhs.Number == in.Operand.Number
	case value.KindDate:
		less = lhs.Date.Before(in.Operand.Date)
		equal = lhs.Date.Equal(in.Operand.Date)
	default:
		return false, TypeMismatch
	}

	switch pred {
	case GreaterThan:
		return !less && !equal, NoMismatch
	case LessThan:
		return less, NoMismatch
	case GreaterOrEqual:
		return !less, NoMismatch
	case LessOrEqual:
		return less || equal, NoMismatch
	default:
		return false, TypeMismatch
	}
}

func compareChronological(pred Predicate, in Input) (bool, MismatchKind) {
	lhs, ok := value.Coerce(in.Raw, value.KindDate)
	if !ok {
		return false, TypeMismatch
	}
	if in.Operand.Kind != value.KindDate {
		return false, TypeMismatch
	}
	if pred == LaterThan {
		return lhs.Date.After(in.Operand.Date), NoMismatch
	}
	return lhs.Date.Before(in.Operand.Date), NoMismatch
}

// compareAge implements "is older/younger than": compares (now - date)
// against the operand duration's length in seconds.
func compareAge(pred Predicate, in Input) (bool, MismatchKind) {
	lhs, ok := value.Coerce(in.Raw, value.KindDate)
	if !ok {
		return false, TypeMismatch
	}
	if in.Operand.Kind != value.KindDuration {
		return false, TypeMismatch
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	age := now.Sub(lhs.Date).Seconds()
	durSeconds := in.Operand.Duration.Seconds()
	if pred == OlderThan {
		return age > durSeconds, NoMismatch
	}
	return age < durSeconds, NoMismatch
}

func compareWithin(in Input) (bool, MismatchKind) {
	lhs, ok := value.Coerce(in.Raw, value.KindDate)
	if !ok {
		return false, TypeMismatch
	}
	if in.Operand.Kind != value.KindDuration {
		return false, TypeMismatch
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	age := now.Sub(lhs.Date).Seconds()
	if age < 0 {
		age = -age
	}
	return age <= in.Operand.Duration.Seconds(), NoMismatch
}

func compareContains(in Input) (bool, MismatchKind) {
	switch raw := in.Raw.(type) {
	case string:
		lhs, ok := value.Coerce(in.Raw, value.KindString)
		if !ok {
			return false, TypeMismatch
		}
		needle, ok := value.Coerce(operandRaw(in.Operand), value.KindString)
		if !ok {
			return false, TypeMismatch
		}
		return strings.Contains(strings.ToLower(lhs.Str), strings.ToLower(needle.Str)), NoMismatch
	case []any:
		for _, elem := range raw {
			if elementEquals(elem, in.Operand) {
				return true, NoMismatch
			}
		}
		return false, NoMismatch
	default:
		return false, TypeMismatch
	}
}

func compareMembership(pred Predicate, in Input) (bool, MismatchKind) {
	found := false
	for _, candidate := range in.Operands {
		coerced, ok := value.Coerce(in.Raw, candidate.Kind)
		if !ok {
			continue
		}
		if valuesEqual(coerced, candidate) {
			found = true
			break
		}
	}
	if pred == In {
		return found, NoMismatch
	}
	return !found, NoMismatch
}

func valuesEqual(a, b value.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case value.KindNumber:
		return a.Number == b.Number
	case value.KindBool:
		return a.Bool == b.Bool
	case value.KindString:
		return strings.EqualFold(a.Str, b.Str)
	case value.KindDate:
		return a.Date.Equal(b.Date)
	case value.KindDuration:
		return a.Duration.Seconds() == b.Duration.Seconds()
	default:
		return false
	}
}

func elementEquals(raw any, operand value.Value) bool {
	coerced, ok := value.Coerce(raw, operand.Kind)
	if !ok {
		return false
	}
	return valuesEqual(coerced, operand)
}

// operandRaw converts a literal Value back to a raw any for reuse through
// value.Coerce when the comparison needs the operand itself coerced (e.g.
// contains' needle).
func operandRaw(v value.Value) any {
	switch v.Kind {
	case value.KindNumber:
		return v.Number
	case value.KindBool:
		return v.Bool
	case value.KindString:
		return v.Str
	default:
		return v.Str
	}
}
