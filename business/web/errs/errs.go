// Package errs carries errors whose message may be shown to a client, along
// with the HTTP status the error middleware responds with.
package errs

import "errors"

// Response is the document written to the client when a request fails.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted wraps an error a handler expects, such as a rejected transaction
// or registration. Its message is safe to return to the client. Any other
// error becomes a 500 with a generic message.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps the error with the status to respond with.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the message of the wrapped
// error, which is also what is logged.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error so callers can match it with errors.Is.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if a Trusted error exists in the chain.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the first Trusted error in the chain or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
