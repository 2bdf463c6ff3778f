package query

// Comparison semantics over the JSON value domain. Documents come out of the
// codec normalized (numbers as float64, objects as map[string]any, arrays as
// []any); predicate literals supplied by callers are normalized here so that
// Eq("n", 3) matches a stored 3.0.

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func compareEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !compareEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, ave := range av {
			bve, ok := bv[k]
			if !ok || !compareEqual(ave, bve) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareLess implements a strict order on numbers and strings.
// Mixed or unordered kinds (bool, null, arrays, objects) are never ordered.
func compareLess(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	default:
		return false
	}
}
