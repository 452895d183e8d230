package cli

import (
	"errors"

	"github.com/joseph-ayodele/product-extractor/internal/common"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitNotFound    = 1 // input is neither file nor directory
	ExitCheckFailed = 1
	ExitFatal       = 2 // single document aborted, or the CLI is misconfigured
)

// ExitError carries the exit code a command wants.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps a command error onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if errors.Is(err, common.ErrInputNotFound) {
		return ExitNotFound
	}
	return ExitFatal
}
