package reactive

import "reflect"

// sameValue reports whether storing next over prev would be a no-op.
// Reactive wrappers compare by identity; everything else goes through
// defaultEquals. The policy is applied consistently by Map.Set and
// List.SetAt so that equal writes never enqueue dependents.
func sameValue(prev, next any) bool {
	switch p := prev.(type) {
	case *Map:
		n, ok := next.(*Map)
		return ok && p == n
	case *List:
		n, ok := next.(*List)
		return ok && p == n
	}
	if _, ok := next.(*Map); ok {
		return false
	}
	if _, ok := next.(*List); ok {
		return false
	}
	return defaultEquals(prev, next)
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}
