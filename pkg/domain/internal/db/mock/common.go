package mocks

// CallLog records the arguments a mocked method received, one entry
// per invocation, in call order.
type CallLog[T any] []T

// Times is the number of recorded calls.
func (l CallLog[T]) Times() uint {
	return uint(len(l))
}
