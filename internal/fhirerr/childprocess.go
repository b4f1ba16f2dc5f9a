package fhirerr

import "fmt"

// ChildProcessFailure is returned whenever a server's control script exits non-zero,
// whether for `up --detach`, `down`, or `logs --no-color`. It carries enough context
// (captured stdout/stderr) to diagnose the failure without re-running the script.
type ChildProcessFailure struct {
	// ServerName identifies which server's control script failed.
	ServerName string
	// Command is the control-script subcommand that was run, e.g. "up --detach".
	Command string
	// ExitCode is the process's exit status.
	ExitCode int
	// Message is a short human-readable description of what was attempted.
	Message string
	// Stdout is the full captured standard output of the failed process.
	Stdout string
	// Stderr is the full captured standard error of the failed process.
	Stderr string
}

func (e *ChildProcessFailure) Error() string {
	return fmt.Sprintf("%s: control script for %q exited %d running %q\nstdout:\n%s\nstderr:\n%s",
		e.Message, e.ServerName, e.ExitCode, e.Command, e.Stdout, e.Stderr)
}
