package lostfound

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a request-scoped failure.
type Kind int

// Error kinds.
const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	}
	return "unknown"
}

// Error is a failure caused by the request rather than the system. Either
// Detail or Fields is set; Fields maps a request field to its messages.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.String() + ": " + e.Detail
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return e.Kind.String() + ": " + strings.Join(parts, "; ")
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Fields: f}
}

// Messages shared with the HTTP layer and tests.
const (
	MsgCredentialsRequired = "Username and password required."
	MsgUsernameTaken       = "Username already taken."
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInvalidToken        = "Invalid token."
	MsgNotAuthenticated    = "Authentication credentials were not provided."
	MsgAdminRequired       = "Admin required to update claimed status."
	MsgNotFound            = "Not found."
	MsgInvalidPage         = "Invalid page."
	MsgFieldRequired       = "This field is required."
	MsgImageRequired       = "Image is required for a new lost item."
	MsgInvalidImage        = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgInvalidDate         = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	MsgInvalidValue        = "Invalid value"
	MsgPasswordTooLong     = "Ensure this field has no more than 72 bytes."
)
