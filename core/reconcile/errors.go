package reconcile

import (
	"errors"
	"fmt"
)

// UsageError reports bad arguments or a missing input file.
// No work has been performed when it is returned.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// RemoteRequestError reports a failed remote request.
// Request holds the full attempted request so it can be replayed by hand.
type RemoteRequestError struct {
	Request string
	Err     error
}

func (e *RemoteRequestError) Error() string {
	// Causes that already carry the request only contribute their reason.
	var r interface{ Reason() string }
	if errors.As(e.Err, &r) {
		return fmt.Sprintf("%s -> %s", e.Request, r.Reason())
	}
	return fmt.Sprintf("%s -> %v", e.Request, e.Err)
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// StoreError reports a failed store statement or transaction.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
