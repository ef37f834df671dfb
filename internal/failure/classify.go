package failure

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes.
const (
	pgInsufficientPrivilege = "42501"
	pgForeignKeyViolation   = "23503"
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
	pgNotNullViolation      = "23502"
	pgInvalidPassword       = "28P01"
	pgInvalidAuthorization  = "28000"
)

// SQLite extended result codes.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
	sqliteConstraintForeignKey = 787
)

type codedError interface {
	Code() int
}

// Classify converts a store or driver error into a typed *Error. Errors that are
// already classified pass through with their kind intact.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Op: op, Message: "not found", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: KindConflict, Op: op, Message: foreignKeyMessage(op), Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Op: op, Message: "already exists", Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &Error{Kind: KindValidation, Op: op, Message: "constraint violated", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(op, pgErr)
	}

	var coded codedError
	if errors.As(err, &coded) {
		if kind, msg, ok := classifySQLite(op, coded.Code()); ok {
			return &Error{Kind: kind, Op: op, Message: msg, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// foreignKeyMessage reads a foreign key violation by what was attempted. A
// delete was blocked by children; an insert or update pointed at a missing row.
func foreignKeyMessage(op string) string {
	if strings.HasPrefix(op, "delete") {
		return ErrHasChildren.Message
	}
	return ErrMissingParent.Message
}

func classifyPostgres(op string, pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgInsufficientPrivilege, pgInvalidAuthorization, pgInvalidPassword:
		return &Error{Kind: KindPermission, Op: op, Err: pgErr}
	case pgForeignKeyViolation:
		return &Error{Kind: KindConflict, Op: op, Message: foreignKeyMessage(op), Err: pgErr}
	case pgUniqueViolation:
		return &Error{Kind: KindConflict, Op: op, Message: "already exists", Err: pgErr}
	case pgCheckViolation, pgNotNullViolation:
		return &Error{Kind: KindValidation, Op: op, Message: "constraint violated", Err: pgErr}
	default:
		return &Error{Kind: KindTransient, Op: op, Err: pgErr}
	}
}

func classifySQLite(op string, code int) (Kind, string, bool) {
	switch code {
	case sqliteConstraintForeignKey:
		return KindConflict, foreignKeyMessage(op), true
	case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
		return KindConflict, "already exists", true
	case sqliteConstraintCheck, sqliteConstraintNotNull:
		return KindValidation, "constraint violated", true
	default:
		return KindTransient, "", false
	}
}
