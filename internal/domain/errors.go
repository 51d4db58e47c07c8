package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transport layers can map them without
// inspecting messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindResolutionEmpty ErrorKind = "resolution_empty"
	KindProvider        ErrorKind = "provider"
	KindParse           ErrorKind = "parse"
	KindStorage         ErrorKind = "storage"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrResolutionEmpty = errors.New("resolution empty")
	ErrProvider        = errors.New("provider error")
	ErrParse           = errors.New("parse error")
	ErrStorage         = errors.New("storage error")
)

// Error carries a kind, a caller-facing message and the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindResolutionEmpty:
		return ErrResolutionEmpty
	case KindProvider:
		return ErrProvider
	case KindParse:
		return ErrParse
	case KindStorage:
		return ErrStorage
	}
	return nil
}

func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewResolutionEmptyError(msg string) error {
	return &Error{Kind: KindResolutionEmpty, Message: msg}
}

func NewProviderError(msg string, err error) error {
	return &Error{Kind: KindProvider, Message: msg, Err: err}
}

func NewParseError(msg string, err error) error {
	return &Error{Kind: KindParse, Message: msg, Err: err}
}

func NewStorageError(msg string, err error) error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// MessageOf returns the caller-facing message of the first *Error in err's
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
