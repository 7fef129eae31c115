package cmp

// SliceEq reports whether two slices have the same elements in the
// same order.
func SliceEq[T comparable](a, b []T) bool {
	return SliceEqWith(a, b, func(x, y T) bool { return x == y })
}

// SliceEqWith is SliceEq with a custom element comparator.
func SliceEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SliceContentEq reports whether two slices are equal as bags:
// same elements with the same multiplicity, in any order.
func SliceContentEq[T comparable](a, b []T) bool {
	return SliceContentEqWith(a, b, func(x, y T) bool { return x == y })
}

// SliceContentEqWith is SliceContentEq with a custom comparator.
//
// Each element of a consumes one matching element of b, so
// duplicates count.
func SliceContentEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	rest := make(map[int]*U, len(b))
	for i := range b {
		rest[i] = &b[i]
	}

NEXT:
	for _, va := range a {
		for k, vb := range rest {
			if eq(va, *vb) {
				delete(rest, k)
				continue NEXT
			}
		}
		return false
	}
	return true
}

// SliceSubsetWith reports whether every element of sub matches some
// element of super.
func SliceSubsetWith[T any, U any](sub []T, super []U, eq func(T, U) bool) bool {
SUB:
	for _, s := range sub {
		for _, p := range super {
			if eq(s, p) {
				continue SUB
			}
		}
		return false
	}
	return true
}

// SliceContains reports whether sli contains v.
func SliceContains[T comparable](sli []T, v T) bool {
	for _, s := range sli {
		if s == v {
			return true
		}
	}
	return false
}
