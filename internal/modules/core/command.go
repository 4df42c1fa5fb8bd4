package core

import "fmt"

// Unit is the empty response for commands that return nothing.
type Unit struct{}

// CommandError is the typed failure returned by command and query handlers.
// The status code maps directly onto the HTTP response status.
type CommandError struct {
	Payload    interface{}
	StatusCode int
	Reason     *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func NewCommandError(statusCode int, payload interface{}, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		StatusCode: statusCode,
		Payload:    payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

func (r CommandError) Error() string {
	if r.Reason != nil {
		return *r.Reason
	}

	if err, ok := r.Payload.(error); ok {
		return err.Error()
	}

	return fmt.Sprintf("%+v", r.Payload)
}

// Message returns the human-readable text surfaced to API clients.
// Internal errors stay generic - the payload is for server-side logs only.
func (r CommandError) Message() string {
	if r.Reason != nil {
		return *r.Reason
	}

	if r.StatusCode >= 500 {
		return "internal server error"
	}

	if err, ok := r.Payload.(error); ok {
		return err.Error()
	}

	return fmt.Sprintf("%v", r.Payload)
}
