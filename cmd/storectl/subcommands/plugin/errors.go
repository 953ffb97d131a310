package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chrisstore/store/pkg/domain"
)

// describe makes domain errors readable on terminal.
func describe(err error) error {
	if verr := new(domain.ValidationError); errors.As(err, &verr) {
		return fmt.Errorf("%w\n%s: %s", err, verr.Field, strings.Join(verr.Messages, " "))
	}
	if errors.Is(err, domain.ErrMissing) {
		return fmt.Errorf("%w\nplugin is not found", err)
	}
	return err
}
