// Package actions provides the registry and implementation of the actions a check can run.
// This file defines the registry that allows actions to be registered, discovered
// and executed, and the dependencies handed to every handler.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/suite"
)

// Env carries the run-wide dependencies handlers need
type Env struct {
	Client      *http.Client
	Credentials *credentials.Provider
	// Limiter paces outbound requests; nil means unlimited
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// ActionHandler is the function signature for action execution handlers.
// Handlers that do not talk HTTP return a nil response.
type ActionHandler func(ctx context.Context, env *Env, vars *execContext.ExecutionContext, check *suite.Check) (*HTTPResponse, error)

// ActionRegistry manages the registration and lookup of action handlers
type ActionRegistry struct {
	mu       sync.RWMutex
	handlers map[string]ActionHandler
}

// NewActionRegistry creates a new empty action registry
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		handlers: make(map[string]ActionHandler),
	}
}

// Register adds a new action handler to the registry
func (r *ActionRegistry) Register(actionType string, handler ActionHandler) error {
	if handler == nil {
		return fmt.Errorf("action handler for type '%s' is nil", actionType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[actionType]; exists {
		return fmt.Errorf("action handler for type '%s' is already registered", actionType)
	}

	r.handlers[actionType] = handler
	return nil
}

// MustRegister adds a new action handler to the registry, panicking if it fails
func (r *ActionRegistry) MustRegister(actionType string, handler ActionHandler) {
	if err := r.Register(actionType, handler); err != nil {
		panic(err)
	}
}

// Get retrieves an action handler by type
func (r *ActionRegistry) Get(actionType string) (ActionHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[actionType]
	if !exists {
		return nil, fmt.Errorf("no handler registered for action type '%s'", actionType)
	}

	return handler, nil
}

// Execute runs the action of a check using the appropriate handler
func (r *ActionRegistry) Execute(ctx context.Context, env *Env, vars *execContext.ExecutionContext, check *suite.Check) (*HTTPResponse, error) {
	if check == nil {
		return nil, fmt.Errorf("cannot execute nil check")
	}

	handler, err := r.Get(check.ActionType())
	if err != nil {
		return nil, err
	}

	return handler(ctx, env, vars, check)
}

// DefaultRegistry holds the standard actions
var DefaultRegistry = NewActionRegistry()

// MustRegisterAction registers an action handler with the default registry, panicking if it fails
func MustRegisterAction(actionType string, handler ActionHandler) {
	DefaultRegistry.MustRegister(actionType, handler)
}

// ExecuteAction executes an action using the default registry
func ExecuteAction(ctx context.Context, env *Env, vars *execContext.ExecutionContext, check *suite.Check) (*HTTPResponse, error) {
	return DefaultRegistry.Execute(ctx, env, vars, check)
}

func init() {
	MustRegisterAction(suite.ActionHTTPRequest, httpRequestHandler)
	MustRegisterAction(suite.ActionWait, waitHandler)
}
