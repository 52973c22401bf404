// Package checks provides the registry and implementation of all checks supported by airprobe.
// This file defines the registry system that allows assertion types and
// Go-coded check handlers to be registered, discovered, and compiled into
// runnable handlers.
package checks

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	execContext "airprobe/pkg/context"
	"airprobe/pkg/suite"
)

// Verdict is what a check handler concludes about one check invocation.
type Verdict struct {
	Passed     bool
	Details    string
	Warnings   []string
	Snapshot   string
	StatusCode int
}

// Handler runs one check. Returning an error (transport failure, timeout,
// malformed JSON) is equivalent to a failed verdict carrying the error text.
type Handler func(ctx context.Context, execCtx *execContext.ExecutionContext) (*Verdict, error)

// Input carries the request side of a check to assertions that compare
// response fields with what was sent.
type Input struct {
	RequestBody interface{}
	StatusCode  int
	Header      http.Header
}

// AssertionFunc validates a decoded response body against one assertion.
type AssertionFunc func(body interface{}, a *suite.Assertion, in *Input) error

// CheckRegistry manages the registration and lookup of assertion types and
// Go-coded handlers
type CheckRegistry struct {
	mu         sync.RWMutex
	assertions map[string]AssertionFunc
	handlers   map[string]Handler
}

// NewCheckRegistry creates a new empty check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{
		assertions: make(map[string]AssertionFunc),
		handlers:   make(map[string]Handler),
	}
}

// RegisterAssertion adds a new assertion type to the registry
func (r *CheckRegistry) RegisterAssertion(assertionType string, fn AssertionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fn == nil {
		return fmt.Errorf("assertion '%s' has a nil implementation", assertionType)
	}
	if _, exists := r.assertions[assertionType]; exists {
		return fmt.Errorf("assertion type '%s' is already registered", assertionType)
	}

	r.assertions[assertionType] = fn
	return nil
}

// RegisterHandler adds a Go-coded check handler to the registry
func (r *CheckRegistry) RegisterHandler(name string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("handler '%s' is nil", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("check handler '%s' is already registered", name)
	}

	r.handlers[name] = handler
	return nil
}

// Assertion retrieves an assertion implementation by type
func (r *CheckRegistry) Assertion(assertionType string) (AssertionFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.assertions[assertionType]
	if !exists {
		return nil, fmt.Errorf("no assertion registered for type '%s'", assertionType)
	}
	return fn, nil
}

// Handler retrieves a Go-coded check handler by name
func (r *CheckRegistry) Handler(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("no handler registered with name '%s'", name)
	}
	return handler, nil
}

// AssertionTypes lists the registered assertion types, sorted.
func (r *CheckRegistry) AssertionTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.assertions))
	for t := range r.assertions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// HandlerNames lists the registered Go-coded handlers, sorted.
func (r *CheckRegistry) HandlerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Global instance for convenience
var DefaultRegistry = NewCheckRegistry()

// MustRegisterAssertion registers an assertion with the default registry, panicking if it fails
func MustRegisterAssertion(assertionType string, fn AssertionFunc) {
	if err := DefaultRegistry.RegisterAssertion(assertionType, fn); err != nil {
		panic(err)
	}
}

// MustRegisterHandler registers a handler with the default registry, panicking if it fails
func MustRegisterHandler(name string, handler Handler) {
	if err := DefaultRegistry.RegisterHandler(name, handler); err != nil {
		panic(err)
	}
}

// Compile builds a handler for a check using the default registry
func Compile(check *suite.Check) (Handler, error) {
	return DefaultRegistry.Compile(check)
}
