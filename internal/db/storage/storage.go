// Package storage holds what every storage backend shares: the absence
// sentinel and the typed error that tells constraint violations apart.
package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrorKind discriminates storage failures callers react to.
type ErrorKind int

const (
	Other ErrorKind = iota
	UniqueViolation
	ForeignKeyViolation
	CheckViolation
)

// SQLSTATE codes of the integrity constraint violation class.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func (k ErrorKind) String() string {
	switch k {
	case UniqueViolation:
		return "unique violation"
	case ForeignKeyViolation:
		return "foreign key violation"
	case CheckViolation:
		return "check violation"
	}

	return "other"
}

// Error is a storage failure tagged with its kind.
type Error struct {
	Kind ErrorKind

	// Constraint is the name of the violated constraint, if the backend reports one.
	Constraint string

	Err error
}

func (e *Error) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s on %q: %v", e.Kind, e.Constraint, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, constraint string, err error) *Error {
	return &Error{
		Kind:       kind,
		Constraint: constraint,
		Err:        err,
	}
}

// KindOf returns the kind carried by err, or Other when err is not a storage Error.
func KindOf(err error) ErrorKind {
	var storageErr *Error
	if errors.As(err, &storageErr) {
		return storageErr.Kind
	}

	return Other
}

// IsKind reports whether err is a storage Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var storageErr *Error

	return errors.As(err, &storageErr) && storageErr.Kind == kind
}

// Classify converts a driver error into an Error. It understands pgx and lib/pq errors;
// anything else is tagged Other. A nil err stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var storageErr *Error
	if errors.As(err, &storageErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return NewError(kindFromSQLState(pgErr.Code), pgErr.ConstraintName, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return NewError(kindFromSQLState(string(pqErr.Code)), pqErr.Constraint, err)
	}

	return NewError(Other, "", err)
}

func kindFromSQLState(code string) ErrorKind {
	switch code {
	case codeUniqueViolation:
		return UniqueViolation
	case codeForeignKeyViolation:
		return ForeignKeyViolation
	case codeCheckViolation:
		return CheckViolation
	}

	return Other
}
