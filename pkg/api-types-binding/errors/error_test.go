package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	binderr "github.com/chrisstore/store/pkg/api-types-binding/errors"
	apierr "github.com/chrisstore/store/pkg/api/types/errors"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/utils/cmp"
)

func TestFromDomainError(t *testing.T) {
	type then struct {
		code   int
		errors map[string][]string
	}
	for name, testcase := range map[string]struct {
		when error
		then then
	}{
		"validation error becomes 400 with field errors": {
			when: domain.NewValidationError(domain.ErrDuplicateVersion, domain.FieldDescriptorFile, "version exists."),
			then: then{
				code:   http.StatusBadRequest,
				errors: map[string][]string{domain.FieldDescriptorFile: {"version exists."}},
			},
		},
		"wrapped validation error becomes 400": {
			when: fmt.Errorf("wrapped: %w", domain.NewValidationError(domain.ErrInvalidTree, domain.FieldPluginTree, "bad.")),
			then: then{
				code:   http.StatusBadRequest,
				errors: map[string][]string{domain.FieldPluginTree: {"bad."}},
			},
		},
		"not found becomes 404": {
			when: fmt.Errorf("%w: pipeline 3", domain.ErrNotFound),
			then: then{code: http.StatusNotFound},
		},
		"forbidden becomes 403": {
			when: fmt.Errorf("%w: pipeline 3", domain.ErrForbidden),
			then: then{code: http.StatusForbidden},
		},
		"conflict becomes 409": {
			when: fmt.Errorf("%w: plugin_meta_version_key", domain.ErrDuplicateVersion),
			then: then{code: http.StatusConflict},
		},
		"invalid becomes 400": {
			when: fmt.Errorf("%w: no", domain.ErrInvalidParameterDefault),
			then: then{code: http.StatusBadRequest},
		},
		"unavailable database becomes 503": {
			when: fmt.Errorf("%w: dial tcp 127.0.0.1:5432: connect: connection refused", domain.ErrUnavailable),
			then: then{code: http.StatusServiceUnavailable},
		},
		"others become 500": {
			when: errors.New("connection reset"),
			then: then{code: http.StatusInternalServerError},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then
			actual := binderr.FromDomainError(when)
			if actual.Code != then.code {
				t.Errorf("code: actual = %d, expected = %d", actual.Code, then.code)
			}
			msg, ok := actual.Message.(apierr.ErrorMessage)
			if !ok {
				t.Fatalf("message is not ErrorMessage: %#v", actual.Message)
			}
			if msg.Reason == "" {
				t.Errorf("reason is empty")
			}
			if !cmp.MapEqWith(msg.Errors, then.errors, cmp.SliceEq[string]) {
				t.Errorf("errors: actual = %+v, expected = %+v", msg.Errors, then.errors)
			}
		})
	}
}
