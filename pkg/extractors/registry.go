// Package extractors provides the registry and implementation of all response data extractors.
// Extractors pull values out of HTTP responses (JSON bodies, headers, HTML, XML or raw text)
// and store them in the execution context for use by subsequent checks.
package extractors

import (
	"fmt"
	"sync"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// ExtractorHandler is the function signature for extractor execution handlers
type ExtractorHandler func(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error)

// ExtractorRegistry manages the registration and lookup of extractor handlers
type ExtractorRegistry struct {
	mu       sync.RWMutex
	handlers map[string]ExtractorHandler
}

// NewExtractorRegistry creates a new empty extractor registry
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		handlers: make(map[string]ExtractorHandler),
	}
}

// Register adds a new extractor handler to the registry
func (r *ExtractorRegistry) Register(extractorType string, handler ExtractorHandler) error {
	if handler == nil {
		return fmt.Errorf("extractor handler for type '%s' is nil", extractorType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[extractorType]; exists {
		return fmt.Errorf("extractor handler for type '%s' is already registered", extractorType)
	}

	r.handlers[extractorType] = handler
	return nil
}

// MustRegister adds a new extractor handler to the registry, panicking if it fails
func (r *ExtractorRegistry) MustRegister(extractorType string, handler ExtractorHandler) {
	if err := r.Register(extractorType, handler); err != nil {
		panic(err)
	}
}

// Get retrieves an extractor handler by type
func (r *ExtractorRegistry) Get(extractorType string) ExtractorHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.handlers[extractorType]
}

// Execute runs an extractor and stores its value under the extractor's target.
// An optional extractor that finds nothing leaves the target untouched and returns
// (nil, false, nil).
func (r *ExtractorRegistry) Execute(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, bool, error) {
	if ex == nil {
		return nil, false, fmt.Errorf("cannot execute nil extractor")
	}
	if ex.Target == "" {
		return nil, false, fmt.Errorf("extractor missing required 'target' field")
	}
	if resp == nil {
		return nil, false, fmt.Errorf("extractor '%s' has no response to read", ex.Target)
	}

	handler := r.Get(ex.ExtractorType())
	if handler == nil {
		return nil, false, fmt.Errorf("no handler registered for extractor type '%s'", ex.ExtractorType())
	}

	value, err := handler(vars, ex, resp)
	if err != nil {
		if ex.Optional {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("extract '%s': %w", ex.Target, err)
	}

	if err := vars.SetVariable(ex.Target, value); err != nil {
		return nil, false, fmt.Errorf("failed to set target variable '%s': %w", ex.Target, err)
	}

	return value, true, nil
}

// DefaultRegistry holds the standard extractors
var DefaultRegistry = NewExtractorRegistry()

// MustRegisterExtractor registers an extractor handler with the default registry, panicking if it fails
func MustRegisterExtractor(extractorType string, handler ExtractorHandler) {
	DefaultRegistry.MustRegister(extractorType, handler)
}

// ExecuteExtractor executes an extractor using the default registry
func ExecuteExtractor(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, bool, error) {
	return DefaultRegistry.Execute(vars, ex, resp)
}

func init() {
	MustRegisterExtractor(suite.ExtractJSON, extractFromJSONHandler)
	MustRegisterExtractor(suite.ExtractHeader, extractFromHeaderHandler)
	MustRegisterExtractor(suite.ExtractRegex, extractFromRegexHandler)
	MustRegisterExtractor(suite.ExtractHTML, extractFromHTMLHandler)
	MustRegisterExtractor(suite.ExtractXML, extractFromXMLHandler)
}
