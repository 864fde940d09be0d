package reactive

// Observe converts a plain structured value into a reactive view with
// identical shape. Plain maps become *Map, plain slices become *List, and
// nested structured values are converted recursively, so reactivity
// extends through the whole reachable graph. Already-reactive values are
// returned unchanged, and unstructured values pass through as-is.
//
// The returned wrapper is the only access path to the data: reads while a
// watcher is active register it against the touched property, and writes
// notify registered dependents through the scheduler.
func Observe(value any) any {
	switch v := value.(type) {
	case *Map:
		return v
	case *List:
		return v
	case map[string]any:
		return newMap(v)
	case []any:
		return newList(v)
	default:
		return value
	}
}
