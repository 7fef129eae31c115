package pointer

// Ref returns a pointer to a copy of t.
func Ref[T any](t T) *T {
	return &t
}

// Deref dereferences ptr. It panics on nil, use SafeDeref when the
// pointer may be absent.
func Deref[T any](ptr *T) T {
	return *ptr
}

// SafeDeref dereferences val, mapping nil to the zero value of T.
func SafeDeref[T any](val *T) T {
	if val == nil {
		return *new(T)
	}
	return *val
}
