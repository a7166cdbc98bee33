// Package suite defines the Go data structures representing a smoke-test suite.
// A suite is an ordered list of named checks, each describing one HTTP request (or a
// pause), the outcome it expects, and the values it captures for later checks.
// The structs map directly to the YAML format loaded by LoadFile and Parse.
package suite

// Wrapper represents a document with a top-level 'suite:' key
type Wrapper struct {
	Suite Suite `yaml:"suite" json:"suite"`
}

// Suite is the top-level definition interpreted by the runner
type Suite struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Variables   map[string]interface{} `yaml:"variables,omitempty" json:"variables,omitempty"`
	// Env lists environment variable names seeded into the context as env.<NAME>.
	// Variables with a default are written NAME=default.
	Env    []string `yaml:"env,omitempty" json:"env,omitempty"`
	Checks []Check  `yaml:"checks" json:"checks"`
}

// Action types understood by the runner
const (
	ActionHTTPRequest = "http_request"
	ActionWait        = "wait"
)

// Authentication schemes for outbound requests
const (
	AuthNone    = "none"
	AuthAnon    = "anon"
	AuthService = "service"
)

// Check is one named request/assertion step
type Check struct {
	Name string `yaml:"name" json:"name"`
	// Requires lists context keys that must hold a non-empty value; otherwise the check is skipped.
	Requires []string  `yaml:"requires,omitempty" json:"requires,omitempty"`
	Action   string    `yaml:"action,omitempty" json:"action,omitempty"`
	Request  *Request  `yaml:"request,omitempty" json:"request,omitempty"`
	Duration string    `yaml:"duration,omitempty" json:"duration,omitempty"`
	Expect   *Expect   `yaml:"expect,omitempty" json:"expect,omitempty"`
	Extract  []Extract `yaml:"extract,omitempty" json:"extract,omitempty"`
	// Note is rendered into the detail of a passed result
	Note string `yaml:"note,omitempty" json:"note,omitempty"`
	// ForEach names a context list; Checks then run once per element with the
	// element bound under As (default "item").
	ForEach string  `yaml:"for_each,omitempty" json:"for_each,omitempty"`
	As      string  `yaml:"as,omitempty" json:"as,omitempty"`
	Checks  []Check `yaml:"checks,omitempty" json:"checks,omitempty"`
}

// DefaultLoopVariable is the context key bound to the current for_each element
const DefaultLoopVariable = "item"

// LoopVariable returns the name the current for_each element is bound to
func (c *Check) LoopVariable() string {
	if c.As == "" {
		return DefaultLoopVariable
	}
	return c.As
}

// ActionType returns the action type, defaulting to http_request
func (c *Check) ActionType() string {
	if c.Action == "" {
		return ActionHTTPRequest
	}
	return c.Action
}

// Request describes the outbound HTTP request of a check
type Request struct {
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	URL     string            `yaml:"url" json:"url"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    interface{}       `yaml:"body,omitempty" json:"body,omitempty"`
	Auth    string            `yaml:"auth,omitempty" json:"auth,omitempty"`
}

// Expect is the outcome predicate of a check. Zero value means "any 2xx".
type Expect struct {
	// Status accepts an int, a "200-299" range, a "200,201" list or a YAML list.
	Status        interface{}       `yaml:"status,omitempty" json:"status,omitempty"`
	ErrorCode     string            `yaml:"error_code,omitempty" json:"error_code,omitempty"`
	ErrorCodePath string            `yaml:"error_code_path,omitempty" json:"error_code_path,omitempty"`
	BodyContains  []string          `yaml:"body_contains,omitempty" json:"body_contains,omitempty"`
	BodyRegex     string            `yaml:"body_regex,omitempty" json:"body_regex,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	JSON          []JSONAssertion   `yaml:"json,omitempty" json:"json,omitempty"`
	JSONSchema    interface{}       `yaml:"json_schema,omitempty" json:"json_schema,omitempty"`
}

// DefaultErrorCodePath is where the platform puts error codes in failed responses
const DefaultErrorCodePath = "error.code"

// JSONAssertion checks a single value addressed by a JSON path
type JSONAssertion struct {
	Path      string      `yaml:"path" json:"path"`
	Exists    *bool       `yaml:"exists,omitempty" json:"exists,omitempty"`
	Equals    interface{} `yaml:"equals,omitempty" json:"equals,omitempty"`
	MinLength *int        `yaml:"min_length,omitempty" json:"min_length,omitempty"`
}

// Extractor types
const (
	ExtractJSON   = "json"
	ExtractHeader = "header"
	ExtractRegex  = "regex"
	ExtractHTML   = "html"
	ExtractXML    = "xml"
)

// Extract captures a value from the response into the context
type Extract struct {
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Target    string `yaml:"target" json:"target"`
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	Header    string `yaml:"header,omitempty" json:"header,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Selector  string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	XPath     string `yaml:"xpath,omitempty" json:"xpath,omitempty"`
	Optional  bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// ExtractorType returns the extractor type, defaulting to json
func (e *Extract) ExtractorType() string {
	if e.Type == "" {
		return ExtractJSON
	}
	return e.Type
}
