package access

// HasPermission reports whether key is granted by set. NoFeature is always granted.
func HasPermission(set Set, key Feature) bool {
	if key == NoFeature {
		return true
	}
	return set.Has(key)
}

// FilterByPermission keeps the items whose required feature is granted, in their
// original order. keyOf returns NoFeature for items that need no permission.
func FilterByPermission[T any](items []T, set Set, keyOf func(T) Feature) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if HasPermission(set, keyOf(item)) {
			out = append(out, item)
		}
	}
	return out
}

// AnyPermission reports whether at least one of keys is granted.
func AnyPermission(set Set, keys ...Feature) bool {
	for _, key := range keys {
		if HasPermission(set, key) {
			return true
		}
	}
	return false
}
