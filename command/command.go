// Package command runs gpio utility invocations. The rpigpio Controller
// builds argument lists and hands them to a Factory; every invocation gets
// its own Command.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrCommandFailed matches every *Error with errors.Is.
var ErrCommandFailed = errors.New("command failed")

type Command interface {
	// Execute runs the command once and returns its trimmed standard output.
	Execute(ctx context.Context) (string, error)
}

type Factory interface {
	Create(args []string) Command
}

// FactoryFunc adapts a plain function to a Factory.
type FactoryFunc func(args []string) Command

func (ff FactoryFunc) Create(args []string) Command {
	return ff(args)
}

// Error is returned when a command could not be started or exited non-zero.
// ExitCode is -1 when the process never reported a status.
type Error struct {
	Args     []string
	ExitCode int
	Err      error
}

func (e *Error) CommandLine() string {
	return strings.Join(e.Args, " ")
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("command %q failed with status %d", e.CommandLine(), e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrCommandFailed
}

func newError(args []string, exitCode int, cause error) *Error {
	return &Error{
		Args:     append([]string(nil), args...),
		ExitCode: exitCode,
		Err:      cause,
	}
}
