package main

import "fmt"

// exitUsage matches the code reported for bad arguments or unexpected errors.
const exitUsage = 2

// exitError carries a process exit code out of a command. A nil err means the
// command already printed everything the user needs.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode converts a command result code into an error for cobra.
func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}
