package lamassu

import "fmt"

// ConnectivityError wraps a failure reaching the remote database, tagged with
// the stage that failed so callers can report "ssh dial" vs "query" distinctly.
type ConnectivityError struct {
	Stage string
	Err   error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("lamassu %s: %v", e.Stage, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

func connErr(stage string, err error) error {
	return &ConnectivityError{Stage: stage, Err: err}
}
