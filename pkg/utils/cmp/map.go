package cmp

// MapEq reports whether two maps hold the same key-value pairs.
func MapEq[K comparable, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, func(x, y V) bool { return x == y })
}

// MapEqWith is MapEq with a custom value comparator.
func MapEqWith[K comparable, V any, W any](a map[K]V, b map[K]W, eq func(V, W) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}

// MapGeqWith reports whether a contains every key of b with a
// matching value. In other words, a is a superset of b.
func MapGeqWith[K comparable, V any, W any](a map[K]V, b map[K]W, eq func(V, W) bool) bool {
	for k, vb := range b {
		va, ok := a[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}

// MapGeq is MapGeqWith comparing values with ==.
func MapGeq[K comparable, V comparable](a, b map[K]V) bool {
	return MapGeqWith(a, b, func(x, y V) bool { return x == y })
}
