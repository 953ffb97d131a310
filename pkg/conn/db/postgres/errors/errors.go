package errors

import (
	"errors"
	"fmt"
	"net"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// requested data is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domain.ErrMissing
}

// UniqueViolation tells err is caused by an unique constraint, and returns the name of the constraint.
func UniqueViolation(err error) (string, bool) {
	pgerr := new(pgconn.PgError)
	if !errors.As(err, &pgerr) {
		return "", false
	}
	if pgerr.Code != pgerrcode.UniqueViolation {
		return "", false
	}
	return pgerr.ConstraintName, true
}

// ForeignKeyViolation tells err is caused by a foreign key constraint, and returns the name of the constraint.
func ForeignKeyViolation(err error) (string, bool) {
	pgerr := new(pgconn.PgError)
	if !errors.As(err, &pgerr) {
		return "", false
	}
	if pgerr.Code != pgerrcode.ForeignKeyViolation {
		return "", false
	}
	return pgerr.ConstraintName, true
}

// Unavailable tells err is caused by a refused, lost or timed out database connection.
func Unavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrUnavailable) || pgconn.Timeout(err) {
		return true
	}
	pgerr := new(pgconn.PgError)
	if errors.As(err, &pgerr) {
		switch pgerr.Code {
		case pgerrcode.TooManyConnections, pgerrcode.AdminShutdown, pgerrcode.CannotConnectNow:
			return true
		}
		return pgerrcode.IsConnectionException(pgerr.Code)
	}
	operr := new(net.OpError)
	return errors.As(err, &operr)
}

// MarkUnavailable wraps err with domain.ErrUnavailable when it is Unavailable.
//
// Other errors are returned as they are.
func MarkUnavailable(err error) error {
	if !Unavailable(err) || errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
}
