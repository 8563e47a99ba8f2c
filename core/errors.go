package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			msgs := make([]string, 0, len(err.Fields))
			for _, f := range err.Fields {
				msgs = append(msgs, f.Field+": "+f.Error)
			}
			return strings.Join(msgs, "; ")
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing classroom, student, record or file.
type NotFoundError struct {
	What string
}

func NewNotFoundError(what string) error {
	return &NotFoundError{What: what}
}

func (err NotFoundError) Error() string {
	return err.What + " not found"
}

// ConflictError reports keys colliding with stored rows.
type ConflictError struct {
	Err  error
	Keys []string
}

func NewConflictError(err error, keys ...string) error {
	return &ConflictError{Err: err, Keys: keys}
}

func (err ConflictError) Error() string {
	if len(err.Keys) == 0 {
		return err.Err.Error()
	}
	return fmt.Sprintf("%v: %s", err.Err, strings.Join(err.Keys, ", "))
}

type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) error {
	return &ForbiddenError{Reason: reason}
}

func (err ForbiddenError) Error() string {
	return err.Reason
}

// ExternalToolError is returned when an external program (e.g. the LaTeX compiler) is missing,
// times out or exits with a non-zero status.
type ExternalToolError struct {
	Tool   string
	Reason string
	Output string
}

func NewExternalToolError(tool, reason, output string) error {
	return &ExternalToolError{Tool: tool, Reason: reason, Output: output}
}

func (err ExternalToolError) Error() string {
	return fmt.Sprintf("%s: %s", err.Tool, err.Reason)
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
