package base

import (
	"fmt"
)

// Error is an engine level failure with a stable code.
type Error struct {
	Code int
	Msg  string
}

func CastError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return ErrInternal.More("%v", err)
}

func (e *Error) Error() string {
	return fmt.Sprintf("Code:%d Msg:%s", e.Code, e.Msg)
}

// Is matches errors with the same code, so errors built with More still
// match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// More appends detail to a copy of the error.
func (e *Error) More(format string, args ...interface{}) *Error {
	return &Error{
		Code: e.Code,
		Msg:  e.Msg + "+" + fmt.Sprintf(format, args...),
	}
}

var (
	ErrSuccess        = &Error{Code: 0, Msg: "success"}
	ErrInternal       = &Error{Code: 50000, Msg: "internal error"}
	ErrParameter      = &Error{Code: 40000, Msg: "param error"}
	ErrTimeRewind     = &Error{Code: 40001, Msg: "timestamp earlier than last block"}
	ErrChainClosed    = &Error{Code: 40002, Msg: "chain already closed"}
	ErrContractDeploy = &Error{Code: 40003, Msg: "contract deploy failed"}
	ErrGenesisAmount  = &Error{Code: 40004, Msg: "bad genesis amount"}
	ErrStorageWrite   = &Error{Code: 50001, Msg: "write state failed"}
	ErrStorageDriver  = &Error{Code: 50002, Msg: "open storage failed"}
)
