// Package richerrors defines an error type that carries an HTTP status
// code and a safe external message alongside the wrapped internal error.
package richerrors

// Error is an error with an HTTP code and an external message. The
// external message is what callers outside the service are allowed to
// see; Err holds the full detail for logs.
type Error struct {
	// Code is the HTTP status code to return to the caller.
	Code int
	// ExternalMsg is the message body sent to the caller.
	ExternalMsg string
	// Err is the wrapped internal error.
	Err error
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.ExternalMsg
}

func (e Error) Unwrap() error {
	return e.Err
}
