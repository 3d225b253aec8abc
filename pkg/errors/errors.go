package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

type FleetError interface {
	// Error returns a user-facing string explaining the error
	Error() string

	// Directive returns a user-facing string explaining how to overcome the error
	Directive() string
}

type ValidationError struct {
	Message string
}

func NewValidationError(message string) ValidationError {
	return ValidationError{Message: message}
}

var _ error = ValidationError{}

func (v ValidationError) Error() string {
	return v.Message
}

// InvalidArgumentError is returned when a selection criterion is missing where one is
// required, or when an operation is called in a state that does not allow it.
type InvalidArgumentError struct {
	Message string
}

func NewInvalidArgumentError(format string, a ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, a...)}
}

var _ FleetError = &InvalidArgumentError{}

func (e *InvalidArgumentError) Error() string { return e.Message }

func (e *InvalidArgumentError) Directive() string {
	return "check the host filter and the topology file"
}

// AmbiguousSelectionError is returned when a selector that must resolve to at most one
// (or exactly one) host matched a different number of hosts.
type AmbiguousSelectionError struct {
	Role    string
	Matches []string
}

var _ FleetError = &AmbiguousSelectionError{}

func (e *AmbiguousSelectionError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("There should be one host with %s defined!", e.Role)
	}
	return fmt.Sprintf("There should be only one host with %s defined, but I found %d (%s)",
		e.Role, len(e.Matches), strings.Join(e.Matches, ", "))
}

func (e *AmbiguousSelectionError) Directive() string {
	return fmt.Sprintf("assign the %s role to exactly one host in the topology", e.Role)
}

// ProvisioningError reports a failed invocation of the external virtualization tool.
type ProvisioningError struct {
	Op       string
	Host     string
	ExitCode int
	Output   string
	Err      error
}

var _ FleetError = &ProvisioningError{}

func (e *ProvisioningError) Error() string {
	target := ""
	if e.Host != "" {
		target = " " + e.Host
	}
	msg := fmt.Sprintf("%s%s failed", e.Op, target)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	} else {
		msg = fmt.Sprintf("%s with exit status %d", msg, e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s\noutput:\n%s", msg, out)
	}
	return msg
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

func (e *ProvisioningError) Directive() string {
	return "inspect the vagrant output above; guests that came up are not rolled back"
}

func WrapAndTrace(err error, messages ...string) error {
	message := ""
	for _, m := range messages {
		message += fmt.Sprintf(" %s", m)
	}
	return errors.Wrap(err, MakeErrorMessage(message))
}

func MakeErrorMessage(message string) string {
	_, fn, line, _ := runtime.Caller(2)
	return fmt.Sprintf("[error] %s:%d %s\n\t", fn, line, message)
}

func New(message string) error {
	return stderrors.New(message)
}

func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...) //nolint:goerr113 // thin passthrough
}

// Wrap prefixes err with message, keeping it reachable through Is and As.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Root follows single-error unwrapping to the innermost error.
func Root(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
