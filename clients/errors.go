package clients

import "fmt"

// ServerError is a failure the server reported in the JSON "error" field.
type ServerError struct {
	URL     string
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// TransportError covers everything between sending the request and having
// a decoded JSON body: connection failures, timeouts, non-JSON replies.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(url string, format string, args ...any) error {
	return &TransportError{URL: url, Err: fmt.Errorf(format, args...)}
}
