package base

import (
	"errors"
	"fmt"
)

type ErrKind int

const (
	KindInternal ErrKind = iota
	KindAuthorization
	KindPrecondition
	KindNotFound
	KindNestedCall
	KindRedundant
)

var kindNames = map[ErrKind]string{
	KindInternal:      "Internal",
	KindAuthorization: "Authorization",
	KindPrecondition:  "Precondition",
	KindNotFound:      "NotFound",
	KindNestedCall:    "NestedCallFailure",
	KindRedundant:     "Redundant",
}

func (k ErrKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrKind(%d)", int(k))
}

// Error is a named contract failure. Two errors match under errors.Is when
// kind and name agree, so a sentinel matches any copy carrying detail.
type Error struct {
	Kind   ErrKind
	Name   string
	Detail string
}

func NewError(kind ErrKind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Name
	}
	return e.Name + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Name == e.Name
}

// WithDetail returns a copy of e carrying a formatted detail.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Name: e.Name, Detail: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. Errors that are not an *Error are internal.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NameOf returns the error name used in logs and metric labels.
func NameOf(err error) string {
	if err == nil {
		return "OK"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Name
	}
	return "Internal"
}

var (
	ErrInvalidArgs        = NewError(KindPrecondition, "InvalidArgs")
	ErrMethodNotFound     = NewError(KindNotFound, "MethodNotFound")
	ErrAlreadyInitialized = NewError(KindRedundant, "AlreadyInitialized")
	ErrNotInitialized     = NewError(KindPrecondition, "NotInitialized")
	ErrNativeTransfer     = NewError(KindPrecondition, "NativeTransferFailed")
)
