// Package suite defines the Go data structures representing a smoke-test suite.
// This file handles loading suite definitions from YAML files, parsing them into
// the defined Go structs, and performing structural validation.
package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSuite is wrapped by every validation failure
var ErrInvalidSuite = errors.New("invalid suite")

// LoadFile reads a suite definition from a given YAML file path,
// unmarshals it into the Suite struct, and validates it.
func LoadFile(filePath string) (*Suite, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file '%s': %w", filePath, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("suite file '%s': %w", filepath.Base(filePath), err)
	}
	return s, nil
}

// Parse decodes a suite document. It accepts both a direct Suite object and a
// Wrapper object (with top-level 'suite:' key).
func Parse(data []byte) (*Suite, error) {
	// Try parsing as a wrapper first (has 'suite:' top-level key)
	var wrapper Wrapper
	if err := yaml.Unmarshal(data, &wrapper); err == nil && wrapper.Suite.Name != "" {
		if err := Validate(&wrapper.Suite); err != nil {
			return nil, err
		}
		return &wrapper.Suite, nil
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate performs structural validation of a Suite
func Validate(s *Suite) error {
	if s == nil {
		return fmt.Errorf("%w: nil suite", ErrInvalidSuite)
	}

	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSuite)
	}

	if len(s.Checks) == 0 {
		return fmt.Errorf("%w: at least one check is required", ErrInvalidSuite)
	}

	seen := make(map[string]bool, len(s.Checks))
	for i := range s.Checks {
		c := &s.Checks[i]
		if c.Name == "" {
			return fmt.Errorf("%w: checks[%d].name is required", ErrInvalidSuite, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate check name '%s'", ErrInvalidSuite, c.Name)
		}
		seen[c.Name] = true

		if err := validateCheck(c); err != nil {
			return fmt.Errorf("%w: check '%s': %v", ErrInvalidSuite, c.Name, err)
		}
	}

	return nil
}

func validateCheck(c *Check) error {
	if c.ForEach != "" {
		return validateGroup(c)
	}
	if len(c.Checks) > 0 {
		return fmt.Errorf("nested checks require for_each")
	}

	switch c.ActionType() {
	case ActionHTTPRequest:
		if c.Request == nil || c.Request.URL == "" {
			return fmt.Errorf("http_request requires request.url")
		}
		switch c.Request.Auth {
		case "", AuthNone, AuthAnon, AuthService:
		default:
			return fmt.Errorf("unknown auth scheme '%s'", c.Request.Auth)
		}
	case ActionWait:
		if c.Duration == "" {
			return fmt.Errorf("wait requires duration")
		}
		// templated durations are parsed once resolved
		if strings.Contains(c.Duration, "{{") {
			break
		}
		if _, err := time.ParseDuration(c.Duration); err != nil {
			return fmt.Errorf("invalid duration '%s': %v", c.Duration, err)
		}
	default:
		return fmt.Errorf("unknown action type '%s'", c.Action)
	}

	for i, r := range c.Requires {
		if r == "" {
			return fmt.Errorf("requires[%d] is empty", i)
		}
	}

	for i := range c.Extract {
		e := &c.Extract[i]
		if e.Target == "" {
			return fmt.Errorf("extract[%d].target is required", i)
		}
		switch e.ExtractorType() {
		case ExtractJSON:
			if e.Path == "" {
				return fmt.Errorf("extract[%d]: json extractor requires path", i)
			}
		case ExtractHeader:
			if e.Header == "" {
				return fmt.Errorf("extract[%d]: header extractor requires header", i)
			}
		case ExtractRegex:
			if e.Pattern == "" {
				return fmt.Errorf("extract[%d]: regex extractor requires pattern", i)
			}
		case ExtractHTML:
			if e.Selector == "" {
				return fmt.Errorf("extract[%d]: html extractor requires selector", i)
			}
		case ExtractXML:
			if e.XPath == "" {
				return fmt.Errorf("extract[%d]: xml extractor requires xpath", i)
			}
		default:
			return fmt.Errorf("extract[%d]: unknown extractor type '%s'", i, e.Type)
		}
	}

	if c.Expect != nil {
		for i, a := range c.Expect.JSON {
			if a.Path == "" {
				return fmt.Errorf("expect.json[%d].path is required", i)
			}
		}
	}

	return nil
}

// validateGroup validates a for_each check and its nested checks
func validateGroup(c *Check) error {
	if c.Request != nil || c.Action != "" {
		return fmt.Errorf("for_each checks cannot carry an action of their own")
	}
	if len(c.Checks) == 0 {
		return fmt.Errorf("for_each requires nested checks")
	}

	seen := make(map[string]bool, len(c.Checks))
	for i := range c.Checks {
		nested := &c.Checks[i]
		if nested.Name == "" {
			return fmt.Errorf("checks[%d].name is required", i)
		}
		if seen[nested.Name] {
			return fmt.Errorf("duplicate nested check name '%s'", nested.Name)
		}
		seen[nested.Name] = true

		if nested.ForEach != "" {
			return fmt.Errorf("nested check '%s': for_each cannot be nested", nested.Name)
		}
		if err := validateCheck(nested); err != nil {
			return fmt.Errorf("nested check '%s': %v", nested.Name, err)
		}
	}
	return nil
}
