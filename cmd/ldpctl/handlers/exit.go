package handlers

import "errors"

// Process exit codes: 0 when every phase succeeded, 1 for runtime and phase
// failures, 2 for configuration problems detected before anything executed.
const (
	ExitFailure       = 1
	ExitInvalidConfig = 2
)

// ExitError carries the exit code an error maps to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// configErr marks err as an invalid-configuration failure (exit code 2):
// parse or validation errors, plan cycles, dangling dependencies, missing
// required credentials, unreachable required endpoints.
func configErr(err error) error {
	return &ExitError{Code: ExitInvalidConfig, Err: err}
}

// ExitCode maps an Execute error to the process exit code. Errors without
// an explicit code are runtime failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
