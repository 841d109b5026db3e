package check

import (
	"errors"
	"fmt"
)

// Kind classifies why a check did not produce a result. A DOWN target is not
// an error and never has a Kind.
type Kind int

const (
	KindInput Kind = iota + 1
	KindNotFound
	KindCanceled
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindNotFound:
		return "not_found"
	case KindCanceled:
		return "canceled"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Caller-facing messages.
const (
	MsgComplete      = "Uptime check complete"
	MsgMissingSiteID = "Website ID is required"
	MsgSiteNotFound  = "Website not found"
	MsgCheckAborted  = "Check aborted"
	MsgInternalError = "Internal server error"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

func inputError(err error) *Error {
	return &Error{Kind: KindInput, Message: MsgMissingSiteID, Err: err}
}

func notFound(err error) *Error {
	return &Error{Kind: KindNotFound, Message: MsgSiteNotFound, Err: err}
}

func canceled(err error) *Error {
	return &Error{Kind: KindCanceled, Message: MsgCheckAborted, Err: err}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternalError, Err: err}
}
