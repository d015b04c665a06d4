package operator

// String returns the canonical DSL phrase for a predicate, used when the
// tracer records an OperatorApply node (spec.md §4.G: "records... the
// predicate name").
func (p Predicate) String() string {
	switch p {
	case Equal:
		return "is equal to"
	case NotEqual:
		return "is not equal to"
	case Same:
		return "is the same as"
	case NotSame:
		return "is not the same as"
	case ExactlyEqual:
		return "is exactly equal to"
	case GreaterThan:
		return "is greater than"
	case LessThan:
		return "is less than"
	case GreaterOrEqual:
		return "is greater than or equal to"
	case LessOrEqual:
		return "is less than or equal to"
	case LaterThan:
		return "is later than"
	case EarlierThan:
		return "is earlier than"
	case OlderThan:
		return "is older than"
	case YoungerThan:
		return "is younger than"
	case Within:
		return "is within"
	case Contains:
		return "contains"
	case In:
		return "is in"
	case NotIn:
		return "is not in"
	case Empty:
		return "is empty"
	case NotEmpty:
		return "is not empty"
	default:
		return "unspecified"
	}
}
