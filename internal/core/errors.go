package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so the boundary layer can choose a response code.
type Kind int

const (
	KindUnknown Kind = iota
	KindDuplicateCompany
	KindValidation
	KindFilePolicy
	KindStorage
	KindPersistence
	KindNotFound
	KindBusy
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:          "UnknownFailure",
	KindDuplicateCompany: "DuplicateCompany",
	KindValidation:       "ValidationFailure",
	KindFilePolicy:       "FilePolicyViolation",
	KindStorage:          "StorageFailure",
	KindPersistence:      "PersistenceFailure",
	KindNotFound:         "NotFound",
	KindBusy:             "Busy",
	KindCanceled:         "Canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel errors. Repositories return these so that callers can match with
// errors.Is regardless of the storage engine underneath.
var (
	ErrDuplicateCompany = errors.New("company with this name already exists")
	ErrDuplicateEmail   = errors.New("applicant with this email already exists")
	ErrNotFound         = errors.New("company not found")
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file too large")
	ErrRequestTooLarge  = errors.New("request too large")
)

// Error is the error type returned by Service operations.
//
// Msg is safe to show to a client; Err is the underlying cause and is only
// logged.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		switch cause := e.Err.Error(); {
		case msg == "":
			msg = cause
		case cause != msg:
			msg += ": " + cause
		}
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed input.
func ValidationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// FilePolicyError reports a violation of the per-request file caps.
func FilePolicyError(cause error, msg string) *Error {
	return &Error{Kind: KindFilePolicy, Op: "file policy", Msg: msg, Err: cause}
}

// KindOf reports the Kind of err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}

	switch {
	case errors.Is(err, ErrDuplicateCompany):
		return KindDuplicateCompany
	case errors.Is(err, ErrDuplicateEmail):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTooManyFiles), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrRequestTooLarge):
		return KindFilePolicy
	case errors.Is(err, ErrTooManyRegistrations):
		return KindBusy
	}
	return KindUnknown
}

// IsClientError reports whether err was caused by the request itself rather
// than by the server. A client that went away counts as a client error.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindDuplicateCompany, KindValidation, KindFilePolicy, KindNotFound, KindCanceled:
		return true
	}
	return false
}

// classify turns whatever a unit of work returned into an *Error.
// Sentinels from the repository keep their kind; anything unrecognised is a
// persistence failure. Cancellation wins over every other kind.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Op: op, Msg: "request canceled", Err: err}
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch kind := KindOf(err); kind {
	case KindDuplicateCompany:
		return &Error{Kind: kind, Op: op, Msg: ErrDuplicateCompany.Error(), Err: err}
	case KindValidation:
		return &Error{Kind: kind, Op: op, Msg: ErrDuplicateEmail.Error(), Err: err}
	case KindNotFound:
		return &Error{Kind: kind, Op: op, Msg: ErrNotFound.Error(), Err: err}
	case KindBusy:
		return &Error{Kind: kind, Op: op, Msg: ErrTooManyRegistrations.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindPersistence, Op: op, Msg: "operation interrupted", Err: err}
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}
