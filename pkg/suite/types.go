// Package suite defines the Go data structures that describe a check suite.
// A suite is an ordered list of named checks; each check either names a
// Go-coded handler or declares one HTTP request plus the expectations its
// response must satisfy.
package suite

// SuiteWrapper represents a document with a top-level 'suite:' key
type SuiteWrapper struct {
	Suite Suite `yaml:"suite" json:"suite"`
}

// Suite is the top-level suite object
type Suite struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Checks      []Check `yaml:"checks" json:"checks"`
}

// Check is one self-contained request/assert unit.
type Check struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Handler names a Go-coded check registered with the checks package.
	// Mutually exclusive with Request.
	Handler string `yaml:"handler,omitempty" json:"handler,omitempty"`

	// Requires lists variables that earlier checks must have set.
	Requires []string `yaml:"requires,omitempty" json:"requires,omitempty"`

	Request *Request     `yaml:"request,omitempty" json:"request,omitempty"`
	Expect  *Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`
	Extract []Extract    `yaml:"extract,omitempty" json:"extract,omitempty"`

	// Summary is rendered into the details of a passing result. Patterns
	// {{path}} and {{len(path)}} are looked up in the response body.
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// Request describes the single HTTP call a check makes
type Request struct {
	Method  string            `yaml:"method" json:"method"`
	Path    string            `yaml:"path" json:"path"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    interface{}       `yaml:"body,omitempty" json:"body,omitempty"`
	Timeout string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Expectation holds everything validated against the response
type Expectation struct {
	// Status is the expected status code. Zero means 200.
	Status int `yaml:"status,omitempty" json:"status,omitempty"`
	// AcceptStatus lists alternative status codes that still count as a pass
	// (e.g. 404 for endpoints the service may not expose).
	AcceptStatus []int       `yaml:"accept_status,omitempty" json:"accept_status,omitempty"`
	Assertions   []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Assertion is a single field-level constraint on the decoded body
type Assertion struct {
	Type   string        `yaml:"type" json:"type"`
	Path   string        `yaml:"path,omitempty" json:"path,omitempty"`
	Keys   []string      `yaml:"keys,omitempty" json:"keys,omitempty"`
	Value  interface{}   `yaml:"value,omitempty" json:"value,omitempty"`
	Values []interface{} `yaml:"values,omitempty" json:"values,omitempty"`
	Field  string        `yaml:"field,omitempty" json:"field,omitempty"`
	Length *int          `yaml:"length,omitempty" json:"length,omitempty"`
	Min    *int          `yaml:"min,omitempty" json:"min,omitempty"`

	// Echo maps a response field (relative to Path) to a request body field
	// whose value it must repeat.
	Echo map[string]string `yaml:"echo,omitempty" json:"echo,omitempty"`

	// Reason labels the failure, e.g. "missing fields" or "data integrity".
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`

	// Soft assertions only produce warnings.
	Soft bool `yaml:"soft,omitempty" json:"soft,omitempty"`

	// WhenStatus restricts the assertion to responses with this status.
	WhenStatus int `yaml:"when_status,omitempty" json:"when_status,omitempty"`
}

// Extract copies a value out of the response body into a run variable
type Extract struct {
	Variable string `yaml:"variable" json:"variable"`
	Path     string `yaml:"path" json:"path"`
}

// CheckNames returns the check names in declaration order.
func (s *Suite) CheckNames() []string {
	names := make([]string, 0, len(s.Checks))
	for _, c := range s.Checks {
		names = append(names, c.Name)
	}
	return names
}
