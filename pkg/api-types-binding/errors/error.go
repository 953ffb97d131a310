package errors

import (
	"errors"
	"net/http"

	apierr "github.com/chrisstore/store/pkg/api/types/errors"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/labstack/echo/v4"
)

type ErrorMessageOption func(in *apierr.ErrorMessage) *apierr.ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

// WithFieldErrors adds messages of a rejected request field.
func WithFieldErrors(field string, messages ...string) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if len(messages) == 0 {
			return in
		}
		if in.Errors == nil {
			in.Errors = map[string][]string{}
		}
		in.Errors[field] = append(in.Errors[field], messages...)
		return in
	}
}

func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := apierr.ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func ServiceUnavailable(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusServiceUnavailable,
		"service unavailable temporaly",
		WithAdvice(advice),
		WithError(err),
	)
}

func NotFound() *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, "not found")
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Forbidden(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusForbidden,
		"forbidden",
		WithAdvice(advice),
		WithError(err),
	)
}

func Conflict(message string, options ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		message,
		options...,
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		"unexpected error",
		WithError(err),
	)
}

func Unauthorized(message string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusUnauthorized,
		message,
		WithError(err),
	)
}

// FromDomainError translates errors of domain services into HTTP errors.
//
//   - domain.ErrUnavailable: 503
//   - *domain.ValidationError: 400, with messages keyed by the rejected field
//   - domain.ErrMissing: 404
//   - domain.ErrForbidden: 403
//   - domain.ErrConflict: 409
//   - domain.ErrInvalid: 400
//   - others: 500
func FromDomainError(err error) *echo.HTTPError {
	if errors.Is(err, domain.ErrUnavailable) {
		return ServiceUnavailable("retry later.", err)
	}
	if verr := new(domain.ValidationError); errors.As(err, &verr) {
		return NewErrorMessage(
			http.StatusBadRequest,
			"invalid request",
			WithFieldErrors(verr.Field, verr.Messages...),
			WithError(err),
		)
	}

	switch {
	case errors.Is(err, domain.ErrMissing):
		return NotFound()
	case errors.Is(err, domain.ErrForbidden):
		return Forbidden("only the owner can change it.", err)
	case errors.Is(err, domain.ErrConflict):
		return Conflict(
			"conflicted with stored entities",
			WithAdvice("retry after checking current state."),
			WithError(err),
		)
	case errors.Is(err, domain.ErrInvalid):
		return BadRequest(err.Error(), err)
	}
	return InternalServerError(err)
}
