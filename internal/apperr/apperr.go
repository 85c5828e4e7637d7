// Package apperr defines the failure kinds the core operations report.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

type Code string

const (
	Validation            Code = "VALIDATION_FAILURE"
	NotFound              Code = "NOT_FOUND"
	InvalidGroupReference Code = "INVALID_GROUP_REFERENCE"
	NotEligible           Code = "NOT_ELIGIBLE"
	Transient             Code = "TRANSIENT_FAILURE"
	Conflict              Code = "CONFLICT"
)

type Error struct {
	Code    Code
	Message string
	Err     error

	// NextEligibleAt is set on NotEligible errors.
	NextEligibleAt *time.Time
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Code: Validation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: NotFound, Message: fmt.Sprintf(format, args...)}
}

func Ineligible(next time.Time) *Error {
	return &Error{
		Code:           NotEligible,
		Message:        "minimum time between doses not elapsed",
		NextEligibleAt: &next,
	}
}

// Wrap marks err as a transient storage failure unless it already carries
// a code.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Code: Transient, Message: msg, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or Transient
// when there is none.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Transient
}

func Is(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
