// Package failure defines the error kinds every layer of aizer reports and the
// mapping from driver, store, and identity errors into them. Callers switch on
// Kind and never inspect error text.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindTransient covers network and store unavailability ("fetch failed").
	KindTransient Kind = iota
	KindPermission
	KindAuthExpired
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission_denied"
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// Code is the machine-readable value carried in the response envelope.
func Code(k Kind) string {
	return k.String()
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindPermission:
		return http.StatusForbidden
	case KindAuthExpired:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// KindFromCode is the inverse of Code, used by API clients.
func KindFromCode(code string) (Kind, bool) {
	for _, k := range []Kind{KindTransient, KindPermission, KindAuthExpired, KindValidation, KindNotFound, KindConflict} {
		if k.String() == code {
			return k, true
		}
	}
	return KindTransient, false
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind and message so that
// errors.Is(err, ErrHasChildren) holds for a classified FK violation on delete.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message != "" && t.Message == e.Message
}

// UserMessage is the text safe to show to an end user.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindPermission:
		return "you do not have access to this group"
	case KindAuthExpired:
		return "session expired, please sign in again"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "invalid request"
	default:
		return "failed to reach the data store"
	}
}

var (
	ErrHasChildren    = &Error{Kind: KindConflict, Message: "cannot delete — still contains children"}
	ErrMissingParent  = &Error{Kind: KindConflict, Message: "referenced row not found"}
	ErrBothParents    = &Error{Kind: KindValidation, Message: "An inventory can either be in a space OR in another inventory, not both."}
	ErrSessionExpired = &Error{Kind: KindAuthExpired, Message: "session expired, please sign in again"}
)

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Permission(op, message string) *Error {
	return New(KindPermission, op, message)
}

func Conflict(op, message string) *Error {
	return New(KindConflict, op, message)
}

// KindOf reports the kind of err. Unclassified errors are transient.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return fmt.Sprint(err)
}
