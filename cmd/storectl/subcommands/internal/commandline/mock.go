package commandline

import (
	"io"
	"strings"

	"github.com/youta-t/flarc"
)

// MockCommandline is a flarc.Commandline for tests.
//
// Stdout and Stderr are captured into builders.
type MockCommandline[T any] struct {
	Fullname_ string

	Stdin_  io.Reader
	Stdout_ *strings.Builder
	Stderr_ *strings.Builder

	Flags_ T
	Args_  map[string][]string
}

var _ flarc.Commandline[struct{}] = &MockCommandline[struct{}]{}

// New builds MockCommandline with empty stdin and fresh output builders.
func New[T any](fullname string, flags T, args map[string][]string) *MockCommandline[T] {
	return &MockCommandline[T]{
		Fullname_: fullname,
		Stdin_:    strings.NewReader(""),
		Stdout_:   &strings.Builder{},
		Stderr_:   &strings.Builder{},
		Flags_:    flags,
		Args_:     args,
	}
}

func (m *MockCommandline[T]) Fullname() string {
	return m.Fullname_
}

func (m *MockCommandline[T]) Stdin() io.Reader {
	return m.Stdin_
}

func (m *MockCommandline[T]) Stdout() io.Writer {
	return m.Stdout_
}

func (m *MockCommandline[T]) Stderr() io.Writer {
	return m.Stderr_
}

func (m *MockCommandline[T]) Flags() T {
	return m.Flags_
}

func (m *MockCommandline[T]) Args() map[string][]string {
	return m.Args_
}
