package checks

import (
	"fmt"
	"strings"
)

// AssertionError reports one violated assertion.
type AssertionError struct {
	Type    string
	Path    string
	Reason  string
	Message string
}

// Error implements the error interface
func (e *AssertionError) Error() string {
	if e.Reason == "" {
		return e.Message
	}
	return e.Reason + ": " + e.Message
}

// StatusError reports a response whose status code was not accepted.
type StatusError struct {
	StatusCode int
	Expected   []int
	Method     string
	URL        string
	Body       string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	expected := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		expected = append(expected, fmt.Sprintf("%d", s))
	}
	msg := fmt.Sprintf("unexpected status %d from %s %s (expected %s)", e.StatusCode, e.Method, e.URL, strings.Join(expected, " or "))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
