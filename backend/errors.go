package backend

import (
	"errors"
	"fmt"
)

// Code classifies a cache failure so callers can tell "cache unreachable"
// apart from "bad data" or "bad settings".
type Code uint8

const (
	CodeOther Code = iota
	CodeConnection
	CodeSerialization
	CodeDeserialization
	CodeConfiguration
)

func (c Code) String() string {
	switch c {
	case CodeConnection:
		return "connection"
	case CodeSerialization:
		return "serialization"
	case CodeDeserialization:
		return "deserialization"
	case CodeConfiguration:
		return "configuration"
	default:
		return "other"
	}
}

// Sentinels matched by errors.Is against any *Error of the same Code.
var (
	ErrConnection      = errors.New("cache connection error")
	ErrSerialization   = errors.New("cache serialization error")
	ErrDeserialization = errors.New("cache deserialization error")
	ErrConfiguration   = errors.New("cache configuration error")
	ErrOther           = errors.New("cache error")
)

func (c Code) sentinel() error {
	switch c {
	case CodeConnection:
		return ErrConnection
	case CodeSerialization:
		return ErrSerialization
	case CodeDeserialization:
		return ErrDeserialization
	case CodeConfiguration:
		return ErrConfiguration
	default:
		return ErrOther
	}
}

// Error is the error type returned by every backend.
type Error struct {
	Code Code
	Op   string // e.g. "get", "incr", "init"
	Key  string // empty when the failure is not tied to a key
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var head string
	switch {
	case e.Op != "" && e.Key != "":
		head = fmt.Sprintf("%s %q", e.Op, e.Key)
	case e.Op != "":
		head = e.Op
	}
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if head == "" {
		return fmt.Sprintf("%s error: %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", head, e.Code, msg)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, e.Code.sentinel())
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error with a formatted message and no cause.
func Errorf(code Code, op, key, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around cause. A nil cause yields nil.
func Wrap(code Code, op, key string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Key: key, Err: cause}
}

// CodeOf reports the Code of err. Errors not produced by this package are CodeOther.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeOther
}

// ErrNotInitialized is returned when a registry is read before a successful Init.
var ErrNotInitialized = &Error{Code: CodeOther, Op: "registry", Msg: "cache is not initialized"}
