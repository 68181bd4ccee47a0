package types

import "fmt"

// ConnectionError reports that a host could not be reached or refused
// authentication. The poller maps it to the locked state.
type ConnectionError struct {
	Target HostTarget
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
