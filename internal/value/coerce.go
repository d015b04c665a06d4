package value

import (
	"strconv"
	"strings"
	"time"
)

// Coerce interprets a resolved raw JSON value (from Resolve) as the given
// Kind, mirroring coercion.go's FieldType-driven dispatch: numeric and
// boolean coercion are strict (reject the "wrong" JSON shape outright),
// string coercion is lenient (everything has a string form), and list/date
// coercion fall in between. ok is false on a type mismatch — the caller
// (internal/operator) turns that into a recorded TypeMismatch, never a Go
// error, per spec.md §7's propagation policy.
func Coerce(raw any, kind Kind) (Value, bool) {
	switch kind {
	case KindNumber:
		return coerceNumber(raw)
	case KindBool:
		return coerceBool(raw)
	case KindString:
		return coerceStringValue(raw)
	case KindDate:
		return coerceDate(raw)
	case KindDuration:
		return coerceDuration(raw)
	case KindList:
		return coerceList(raw)
	default:
		return Value{}, false
	}
}

func coerceNumber(raw any) (Value, bool) {
	switch v := raw.(type) {
	case float64:
		return Number(v), true
	case int:
		return Number(float64(v)), true
	case int64:
		return Number(float64(v)), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return Value{}, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	default:
		return Value{}, false
	}
}

func coerceBool(raw any) (Value, bool) {
	b, ok := raw.(bool)
	if !ok {
		return Value{}, false
	}
	return Bool(b), true
}

func coerceStringValue(raw any) (Value, bool) {
	switch v := raw.(type) {
	case string:
		return String(v), true
	case bool:
		if v {
			return String("true"), true
		}
		return String("false"), true
	case float64:
		return String(strconv.FormatFloat(v, 'g', -1, 64)), true
	case int:
		return String(strconv.Itoa(v)), true
	case int64:
		return String(strconv.FormatInt(v, 10)), true
	default:
		return Value{}, false
	}
}

func coerceDate(raw any) (Value, bool) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, false
	}
	s = strings.TrimPrefix(s, "date(")
	s = strings.TrimSuffix(s, ")")
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Value{}, false
	}
	return DateValue(t), true
}

func coerceDuration(raw any) (Value, bool) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, false
	}
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Value{}, false
	}
	q, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Value{}, false
	}
	unit, ok := UnitFromWord(strings.ToLower(fields[1]))
	if !ok {
		return Value{}, false
	}
	return DurationValue(Duration{Quantity: q, Unit: unit}), true
}

func coerceList(raw any) (Value, bool) {
	arr, ok := raw.([]any)
	if !ok {
		return Value{}, false
	}
	out := make([]Value, 0, len(arr))
	for _, elem := range arr {
		v, ok := coerceElement(elem)
		if !ok {
			return Value{}, false
		}
		out = append(out, v)
	}
	return List(out), true
}

// coerceElement coerces a single list element opportunistically: numbers
// and booleans keep their native kind, everything else becomes a string.
func coerceElement(raw any) (Value, bool) {
	switch v := raw.(type) {
	case float64:
		return Number(v), true
	case bool:
		return Bool(v), true
	case string:
		return String(v), true
	default:
		return Value{}, false
	}
}
