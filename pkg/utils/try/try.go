package try

// Fataler is anything with a Fatal method, like *testing.T or
// log.Logger.
type Fataler interface {
	Fatal(...any)
}

// Either holds a (value, error) pair from a fallible call.
//
// It exists for the call sites where an error can only be fatal:
// `try.To(f()).OrFatal(logger)` reads better than four lines of
// boilerplate, in main() and in tests alike.
type Either[T any] interface {
	// Get returns the pair back: (value, nil) when ok,
	// (zero, error) otherwise.
	Get() (T, error)

	// OrFatal returns the value, or hands the error to ftl.Fatal.
	// When ftl has a Helper method (as *testing.T does), it is
	// called first so the failure points at the caller.
	OrFatal(ftl Fataler) T

	// OrDefault returns the value, or the given fallback on error.
	OrDefault(T) T
}

// To wraps the return values of a fallible call.
func To[T any](ok T, ng error) Either[T] {
	if ng == nil {
		return tryOk[T]{ok}
	}
	return tryNg[T]{ng}
}

type tryOk[T any] struct {
	value T
}

type tryNg[T any] struct {
	err error
}

func (ok tryOk[T]) Get() (T, error) {
	return ok.value, nil
}

func (ng tryNg[T]) Get() (T, error) {
	return *new(T), ng.err
}

func (ok tryOk[T]) OrDefault(T) T {
	return ok.value
}

func (ng tryNg[T]) OrDefault(d T) T {
	return d
}

func (ok tryOk[T]) OrFatal(Fataler) T {
	return ok.value
}

func (ng tryNg[T]) OrFatal(ftl Fataler) T {
	if hlp, ok := ftl.(interface{ Helper() }); ok {
		hlp.Helper()
	}
	ftl.Fatal(ng.err)

	return *new(T)
}
