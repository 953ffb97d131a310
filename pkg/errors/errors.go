// Package errors wraps errors with the location where they are wrapped.
//
// Usage:
//
//	return xe.Wrap(err)
//
// Messages of wrapped errors look like
//
//	@ funcname "file.go" l42 <- @ other "other.go" l10 <- original message
//
// Read "<-" as a line break to get a trace.
package errors

import (
	"fmt"
	"runtime"
)

type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err)
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err)
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// Wrap marks err with the caller location. Wrap(nil) is nil.
func Wrap(err error) error {
	return wrap("", err, 1)
}

// WrapWithNote marks err with the caller location and a note. WrapWithNote(_, nil) is nil.
func WrapWithNote(note string, err error) error {
	return wrap(note, err, 1)
}

func wrap(note string, err error, depth int) error {
	if err == nil {
		return nil
	}
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file = "?"
		line = -1
	}
	funcname := "(unknown func)"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{funcname: funcname, file: file, line: line, note: note, err: err}
}
