// Package errors annotates errors with the location that raised them.
//
//	err := errors.Wrap(cause)
//
// The wrapped error remembers the file, line and function of the Wrap
// call. Wrapping at each layer of an infrastructure call chain makes
// the message a breadcrumb trail; split it on "<-" to read the trail
// top down.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrWithCaller is an error bound to the call site that created it.
type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string { return e.file }

func (e *ErrWithCaller) Line() int { return e.line }

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err.Error())
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// New makes a fresh error located at the caller.
func New(text string) error {
	return locate("", errors.New(text), 1)
}

// Wrap annotates err with the caller's location.
func Wrap(err error) error {
	return locate("", err, 1)
}

// WrapAsOuter annotates err with the location depth frames above the
// caller, for helpers that wrap on behalf of their own caller.
func WrapAsOuter(err error, depth int) error {
	return locate("", err, depth+1)
}

// WrapWithNote is Wrap with a short remark carried in the message.
func WrapWithNote(note string, err error) error {
	return locate(note, err, 1)
}

func locate(note string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file, line = "?", -1
	}

	funcname := "(unknown func)"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{
		funcname: funcname,
		file:     file,
		line:     line,
		note:     note,
		err:      err,
	}
}
