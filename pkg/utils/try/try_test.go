package try_test

import (
	"errors"
	"testing"

	"github.com/chrisstore/store/pkg/utils/try"
)

type fataler struct {
	fatal  [][]any
	helper uint
}

func (f *fataler) Fatal(args ...any) {
	f.fatal = append(f.fatal, args)
}

func (f *fataler) Helper() {
	f.helper += 1
}

func TestTry(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ftl := &fataler{}
		if actual := try.To(42, nil).OrFatal(ftl); actual != 42 {
			t.Errorf("unexpected result: %d", actual)
		}
		if len(ftl.fatal) != 0 || ftl.helper != 0 {
			t.Errorf("Fatal or Helper is called: %+v", ftl)
		}
		if actual := try.To(42, nil).OrDefault(7); actual != 42 {
			t.Errorf("unexpected result: %d", actual)
		}
	})

	t.Run("no good", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		ftl := &fataler{}
		try.To(42, expectedErr).OrFatal(ftl)

		if len(ftl.fatal) != 1 || ftl.fatal[0][0] != expectedErr {
			t.Errorf("Fatal is not called with the error: %+v", ftl.fatal)
		}
		if ftl.helper != 1 {
			t.Errorf("Helper is not called")
		}
		if actual := try.To(42, expectedErr).OrDefault(7); actual != 7 {
			t.Errorf("unexpected result: %d", actual)
		}
		if _, err := try.To(42, expectedErr).Get(); err != expectedErr {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
