// Package checks provides the registry and implementation of the expectations a check's
// response is evaluated against.
// This file specifically defines the Outcome type and the registry that runs the
// evaluators in a fixed order, stopping at the first failure.
package checks

import (
	"fmt"
	"sync"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// Outcome is the verdict of evaluating a response
type Outcome struct {
	Pass   bool
	Detail string
}

// Pass returns a passing outcome
func Pass() Outcome {
	return Outcome{Pass: true}
}

// Fail returns a failing outcome with a formatted detail
func Fail(format string, args ...interface{}) Outcome {
	return Outcome{Detail: fmt.Sprintf(format, args...)}
}

// CheckHandler evaluates one aspect of an expectation. A returned error means the
// expectation itself could not be evaluated (bad regex, unresolved variable).
type CheckHandler func(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error)

// CheckRegistry manages the registration and ordered evaluation of check handlers
type CheckRegistry struct {
	mu       sync.RWMutex
	order    []string
	handlers map[string]CheckHandler
}

// NewCheckRegistry creates a new empty check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{
		handlers: make(map[string]CheckHandler),
	}
}

// Register appends a check handler; handlers run in registration order
func (r *CheckRegistry) Register(checkType string, handler CheckHandler) error {
	if handler == nil {
		return fmt.Errorf("check handler for type '%s' is nil", checkType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[checkType]; exists {
		return fmt.Errorf("check handler for type '%s' is already registered", checkType)
	}

	r.handlers[checkType] = handler
	r.order = append(r.order, checkType)
	return nil
}

// MustRegister adds a new check handler to the registry, panicking if it fails
func (r *CheckRegistry) MustRegister(checkType string, handler CheckHandler) {
	if err := r.Register(checkType, handler); err != nil {
		panic(err)
	}
}

// Get retrieves a check handler by type
func (r *CheckRegistry) Get(checkType string) (CheckHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[checkType]
	if !exists {
		return nil, fmt.Errorf("no handler registered for check type '%s'", checkType)
	}

	return handler, nil
}

// Evaluate runs every handler against resp and returns the first failure.
// A nil expect means "any 2xx".
func (r *CheckRegistry) Evaluate(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) Outcome {
	if resp == nil {
		return Fail("no response to evaluate")
	}
	if expect == nil {
		expect = &suite.Expect{}
	}

	r.mu.RLock()
	order := append([]string(nil), r.order...)
	r.mu.RUnlock()

	for _, name := range order {
		handler, err := r.Get(name)
		if err != nil {
			return Fail("%v", err)
		}
		outcome, err := handler(vars, expect, resp)
		if err != nil {
			return Fail("invalid %s expectation: %v", name, err)
		}
		if !outcome.Pass {
			return outcome
		}
	}

	return Pass()
}

// DefaultRegistry holds the standard checks
var DefaultRegistry = NewCheckRegistry()

// MustRegisterCheck registers a check handler with the default registry, panicking if it fails
func MustRegisterCheck(checkType string, handler CheckHandler) {
	DefaultRegistry.MustRegister(checkType, handler)
}

// Evaluate evaluates resp using the default registry
func Evaluate(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) Outcome {
	return DefaultRegistry.Evaluate(vars, expect, resp)
}

func init() {
	MustRegisterCheck("status", statusCheck)
	MustRegisterCheck("error_code", errorCodeCheck)
	MustRegisterCheck("body_contains", bodyContainsCheck)
	MustRegisterCheck("body_regex", bodyRegexCheck)
	MustRegisterCheck("headers", headersCheck)
	MustRegisterCheck("json", jsonAssertionsCheck)
	MustRegisterCheck("json_schema", jsonSchemaCheck)
}
