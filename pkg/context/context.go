// Package context defines the ExecutionContext which holds the state of one suite run.
// It stores the values captured by checks (tokens, identifiers), the suite variables,
// selected environment values and configuration, and handles `{{ ... }}` substitution
// and function calls within strings and request bodies.
package context

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ErrNotFound is returned when a variable path does not resolve
var ErrNotFound = errors.New("variable not found")

// ExecutionContext holds the key/value state of a run. It is written by one check
// and read by later ones.
type ExecutionContext struct {
	mu       sync.RWMutex
	resolved map[string]interface{}
}

// NewExecutionContext creates a context seeded with the given top-level values.
// The seed map is copied; nested values are not.
func NewExecutionContext(seed map[string]interface{}) *ExecutionContext {
	ctx := &ExecutionContext{
		resolved: make(map[string]interface{}, len(seed)),
	}
	for k, v := range seed {
		ctx.resolved[k] = v
	}
	return ctx
}

// ResolveVariable resolves a dotted path like "vars.accounts.0.email" or "access_token".
// It navigates maps, slices (numeric parts, negative counts from the end) and exported
// struct fields.
func (c *ExecutionContext) ResolveVariable(path string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("invalid variable path: empty path")
	}

	parts := strings.Split(path, ".")
	var current interface{} = c.resolved

	for i, part := range parts {
		if current == nil {
			return nil, fmt.Errorf("%w: '%s' (nil value at '%s')", ErrNotFound, path, strings.Join(parts[:i], "."))
		}

		currentValue := reflect.ValueOf(current)
		// Dereference pointers if needed
		for currentValue.Kind() == reflect.Ptr || currentValue.Kind() == reflect.Interface {
			if currentValue.IsNil() {
				return nil, fmt.Errorf("%w: '%s' (nil value at '%s')", ErrNotFound, path, strings.Join(parts[:i], "."))
			}
			currentValue = currentValue.Elem()
		}

		switch currentValue.Kind() {
		case reflect.Map:
			if currentValue.Type().Key().Kind() != reflect.String {
				return nil, fmt.Errorf("cannot resolve path '%s': map key is not string at '%s'", path, strings.Join(parts[:i], "."))
			}
			mapValue := currentValue.MapIndex(reflect.ValueOf(part).Convert(currentValue.Type().Key()))
			if !mapValue.IsValid() {
				return nil, fmt.Errorf("%w: '%s' (no '%s' at '%s')", ErrNotFound, path, part, strings.Join(parts[:i], "."))
			}
			current = mapValue.Interface()

		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("cannot resolve path '%s': '%s' is not a list index", path, part)
			}
			if index < 0 {
				index += currentValue.Len()
			}
			if index < 0 || index >= currentValue.Len() {
				return nil, fmt.Errorf("%w: '%s' (index %s out of range, length %d)", ErrNotFound, path, part, currentValue.Len())
			}
			current = currentValue.Index(index).Interface()

		case reflect.Struct:
			fieldValue := currentValue.FieldByName(part)
			if !fieldValue.IsValid() || !fieldValue.CanInterface() {
				return nil, fmt.Errorf("%w: '%s' (no field '%s' in %s)", ErrNotFound, path, part, currentValue.Type().Name())
			}
			current = fieldValue.Interface()

		default:
			return nil, fmt.Errorf("cannot resolve path '%s': encountered non-navigable type '%s' at '%s'", path, currentValue.Kind(), strings.Join(parts[:i], "."))
		}
	}

	return current, nil
}

// Has reports whether path resolves to a usable value. Nil values and empty strings
// count as absent.
func (c *ExecutionContext) Has(path string) bool {
	v, err := c.ResolveVariable(path)
	if err != nil || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// SetVariable sets a value at a given path, creating nested maps as needed.
func (c *ExecutionContext) SetVariable(path string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(strings.TrimSpace(path), ".")
	if len(parts) == 0 || parts[0] == "" {
		return fmt.Errorf("invalid variable path: empty path")
	}

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

// Unset removes the value at path. Missing paths are ignored.
func (c *ExecutionContext) Unset(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(strings.TrimSpace(path), ".")
	currentMap := c.resolved
	for i := 0; i < len(parts)-1; i++ {
		next, ok := currentMap[parts[i]].(map[string]interface{})
		if !ok {
			return
		}
		currentMap = next
	}
	delete(currentMap, parts[len(parts)-1])
}

// Keys returns the top-level keys currently held
func (c *ExecutionContext) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.resolved))
	for k := range c.resolved {
		keys = append(keys, k)
	}
	return keys
}
