package slices

// Map converts each element of sli with mapper, keeping order.
func Map[T any, R any](sli []T, mapper func(T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// MapUntilError maps sli with mapper, stopping at the first error.
func MapUntilError[T any, R any](sli []T, mapper func(T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// Filter returns the elements of vs for which predicator is true.
func Filter[T any](vs []T, predicator func(T) bool) []T {
	ret := []T{}
	for _, v := range vs {
		if predicator(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// First returns the first element matching predicator.
func First[T any](sli []T, predicator func(T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}
	return *new(T), false
}

// ToMap converts a slice to a map keyed by getkey.
//
// If keys collide, the later element wins.
func ToMap[T any, K comparable](sli []T, getkey func(T) K) map[K]T {
	m := map[K]T{}
	for _, v := range sli {
		m[getkey(v)] = v
	}
	return m
}

// KeysOf flattens a map to the slice of its keys. Order is unspecified.
func KeysOf[K comparable, V any](m map[K]V) []K {
	sli := make([]K, 0, len(m))
	for k := range m {
		sli = append(sli, k)
	}
	return sli
}

// ValuesOf flattens a map to the slice of its values. Order is unspecified.
func ValuesOf[K comparable, V any](m map[K]V) []V {
	sli := make([]V, 0, len(m))
	for _, v := range m {
		sli = append(sli, v)
	}
	return sli
}
