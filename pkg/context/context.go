// Package context defines the ExecutionContext which holds the state of one
// test run against one target. It stores variables written by earlier
// checks (for example the ID of a created watch), handles variable
// substitution (`{{...}}`) and function calls within strings, and remembers
// the last response for diagnostics.
package context

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"airprobe/pkg/client"
)

// ExecutionContext holds the state during a run. One context serves one
// target; nothing in it is shared between targets.
type ExecutionContext struct {
	mu       sync.RWMutex
	resolved map[string]interface{}

	target     string
	baseURL    string
	httpClient *client.Client

	lastStatusCode int
	lastResponse   []byte
	lastCheck      string
}

// NewExecutionContext creates a context for a target. The base URL is
// passed in explicitly; there is no package-level default.
func NewExecutionContext(target, baseURL string) *ExecutionContext {
	return &ExecutionContext{
		resolved: make(map[string]interface{}),
		target:   target,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Target returns the display name of the target under test.
func (c *ExecutionContext) Target() string { return c.target }

// BaseURL returns the root address of the service, without trailing slash.
func (c *ExecutionContext) BaseURL() string { return c.baseURL }

// URL joins the base URL and a request path.
func (c *ExecutionContext) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// SetHTTPClient stores the client checks use for their requests
func (c *ExecutionContext) SetHTTPClient(hc *client.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = hc
}

// GetHTTPClient returns the stored client, creating one with default
// options on first use.
func (c *ExecutionContext) GetHTTPClient() *client.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = client.New(client.Options{})
	}
	return c.httpClient
}

// HasVariable reports whether a variable path resolves to a non-nil value.
func (c *ExecutionContext) HasVariable(path string) bool {
	v, err := c.ResolveVariable(path)
	return err == nil && v != nil
}

// ResolveVariable resolves a dot path like "watch_id" or "search.first.price".
// It navigates maps and structs within the resolved data.
func (c *ExecutionContext) ResolveVariable(path string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if path == "" {
		return nil, fmt.Errorf("invalid variable path: empty path")
	}
	parts := strings.Split(path, ".")

	var current interface{} = c.resolved

	for i, part := range parts {
		if current == nil {
			return nil, fmt.Errorf("cannot resolve path '%s': encountered nil value at '%s'", path, strings.Join(parts[:i], "."))
		}

		currentValue := reflect.ValueOf(current)
		if currentValue.Kind() == reflect.Ptr {
			currentValue = currentValue.Elem()
		}

		switch currentValue.Kind() {
		case reflect.Map:
			if currentValue.Type().Key().Kind() != reflect.String {
				return nil, fmt.Errorf("cannot resolve path '%s': map key is not string at '%s'", path, strings.Join(parts[:i], "."))
			}
			mapValue := currentValue.MapIndex(reflect.ValueOf(part))
			if !mapValue.IsValid() {
				return nil, fmt.Errorf("variable '%s' is not set", strings.Join(parts[:i+1], "."))
			}
			current = mapValue.Interface()

		case reflect.Struct:
			fieldValue := currentValue.FieldByName(part)
			if !fieldValue.IsValid() {
				return nil, fmt.Errorf("field '%s' not found in struct at '%s' (type: %s)", part, strings.Join(parts[:i], "."), currentValue.Type().Name())
			}
			if !fieldValue.CanInterface() {
				return nil, fmt.Errorf("cannot access unexported field '%s' at '%s'", part, strings.Join(parts[:i], "."))
			}
			current = fieldValue.Interface()

		default:
			return nil, fmt.Errorf("cannot resolve path '%s': encountered non-navigable type '%s' at '%s'", path, currentValue.Kind(), strings.Join(parts[:i], "."))
		}
	}

	return current, nil
}

// SetVariable sets a value at a given path, creating nested maps as needed.
func (c *ExecutionContext) SetVariable(path string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path == "" {
		return fmt.Errorf("invalid variable path: empty path")
	}
	parts := strings.Split(path, ".")

	currentMap := c.resolved
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		next, exists := currentMap[part]
		if !exists {
			newMap := make(map[string]interface{})
			currentMap[part] = newMap
			currentMap = newMap
			continue
		}
		nextMap, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot set variable: path part '%s' conflicts with existing non-map value at '%s'", part, strings.Join(parts[:i+1], "."))
		}
		currentMap = nextMap
	}

	currentMap[parts[len(parts)-1]] = value
	return nil
}

// Variables returns a shallow copy of the top-level variables.
func (c *ExecutionContext) Variables() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]interface{}, len(c.resolved))
	for k, v := range c.resolved {
		out[k] = v
	}
	return out
}

// SetLastResponse records the status and body of the most recent response
func (c *ExecutionContext) SetLastResponse(statusCode int, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastStatusCode = statusCode
	c.lastResponse = body
}

// GetLastStatusCode retrieves the most recent HTTP status code
func (c *ExecutionContext) GetLastStatusCode() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastStatusCode
}

// GetLastResponse retrieves the most recent HTTP response body
func (c *ExecutionContext) GetLastResponse() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastResponse
}

// SetLastCheck stores the name of the check being executed
func (c *ExecutionContext) SetLastCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCheck = name
}

// GetLastCheck retrieves the name of the most recent check
func (c *ExecutionContext) GetLastCheck() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCheck
}
