package models

import "fmt"

// ValidationError reports missing or malformed input, handlers map it to 400
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports a missing resource, handlers map it to 404
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthError reports a failed or missing authentication, handlers map it to 401
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// UpstreamError wraps a failure from a dependency such as the database or the
// mail relay, handlers map it to 500 with a generic body
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }
