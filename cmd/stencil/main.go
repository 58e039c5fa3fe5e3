// Command stencil renders, validates and stores stencil templates.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itsatony/go-stencil"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitCodeSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		exitErr.print(stderr)
		return exitErr.code
	}
	// Anything cobra rejects before a command runs is a usage error.
	fmt.Fprintf(stderr, FmtErrorWithCause, CLIName, err)
	return ExitCodeUsageError
}

// exitError carries the exit code a failed command maps to. An empty msg
// means the command already reported the failure on stdout.
type exitError struct {
	code int
	msg  string
	err  error
}

func newExitError(code int, msg string, err error) *exitError {
	return &exitError{code: code, msg: msg, err: err}
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func (e *exitError) print(w io.Writer) {
	switch {
	case e.msg == "":
	case e.err == nil:
		fmt.Fprintln(w, e.msg)
	default:
		fmt.Fprintf(w, FmtErrorWithCause, e.msg, e.err)
	}
}

// templateExit maps a library error to an exit code.
func templateExit(msg string, err error) *exitError {
	switch {
	case stencil.IsNotFound(err):
		return newExitError(ExitCodeNotFound, msg, err)
	case stencil.IsSyntaxError(err):
		return newExitError(ExitCodeValidationError, msg, err)
	default:
		return newExitError(ExitCodeError, msg, err)
	}
}

// errorClass names the class of a library error.
func errorClass(err error) string {
	switch {
	case stencil.IsSyntaxError(err):
		return ErrorClassSyntax
	case stencil.IsConfigError(err):
		return ErrorClassConfig
	case stencil.IsRenderError(err):
		return ErrorClassRender
	case stencil.IsStorageError(err):
		return ErrorClassStorage
	default:
		return ErrorClassOther
	}
}
