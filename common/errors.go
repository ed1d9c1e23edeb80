// Package common provides shared constants, types, and utilities
// used across the VPN profile generator.
package common

import "errors"

// Sentinel errors for profile builds.
// These can be checked with errors.Is() for proper error handling.
var (
	// Build step errors. Every build failure carries exactly one of these.
	ErrArgument   = errors.New("invalid arguments")
	ErrResolution = errors.New("address resolution failed")
	ErrIO         = errors.New("write failed")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")

	// History errors.
	ErrHistory = errors.New("history unavailable")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

// NewError builds an error of the given kind. The result matches both
// kind and cause under errors.Is and errors.As.
func NewError(kind error, message string, cause error) error {
	return &wrappedError{
		kind: kind,
		msg:  message,
		err:  cause,
	}
}

type wrappedError struct {
	kind error
	msg  string
	err  error
}

func (e *wrappedError) Error() string {
	s := e.msg
	if e.kind != nil {
		if s == "" {
			s = e.kind.Error()
		} else {
			s = e.kind.Error() + ": " + s
		}
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e *wrappedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// ExitCode maps a build error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrArgument):
		return ExitArgument
	case errors.Is(err, ErrResolution):
		return ExitResolution
	case errors.Is(err, ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}
