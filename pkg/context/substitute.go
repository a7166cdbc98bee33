package context

import (
	"fmt"
	"strings"
)

// Substitute performs variable substitution in a string, including function calls.
// It replaces all occurrences of {{ ... }} with their resolved values.
func (c *ExecutionContext) Substitute(input string) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	result := input
	startIdx := 0
	for {
		openBrace := strings.Index(result[startIdx:], "{{")
		if openBrace == -1 {
			break
		}
		openBrace += startIdx

		closeBrace := strings.Index(result[openBrace:], "}}")
		if closeBrace == -1 {
			return result, fmt.Errorf("unclosed substitution pattern in '%s'", result[openBrace:])
		}
		closeBrace += openBrace

		replacement, err := c.evaluate(strings.TrimSpace(result[openBrace+2 : closeBrace]))
		if err != nil {
			return result, err
		}

		replacementStr := stringify(replacement)
		result = result[:openBrace] + replacementStr + result[closeBrace+2:]

		startIdx = openBrace + len(replacementStr)
		if startIdx >= len(result) {
			break
		}
	}

	return result, nil
}

// SubstituteValue walks maps, slices and strings and substitutes every string it finds.
// A string consisting of exactly one {{ ... }} pattern is replaced by the resolved value
// itself, so numbers and booleans keep their type in JSON bodies.
func (c *ExecutionContext) SubstituteValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		if pattern, ok := singlePattern(v); ok {
			return c.evaluate(pattern)
		}
		return c.Substitute(v)

	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			resolved, err := c.SubstituteValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = resolved
		}
		return out, nil

	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			resolved, err := c.SubstituteValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return value, nil
	}
}

// evaluate resolves the content of one {{ ... }} pattern: a function call or a variable path
func (c *ExecutionContext) evaluate(pattern string) (interface{}, error) {
	funcNameEnd := strings.Index(pattern, "(")
	if funcNameEnd == -1 {
		value, err := c.ResolveVariable(pattern)
		if err != nil {
			return nil, fmt.Errorf("error resolving variable %s: %w", pattern, err)
		}
		return value, nil
	}

	funcName := strings.TrimSpace(pattern[:funcNameEnd])
	if !strings.HasSuffix(pattern, ")") {
		return nil, fmt.Errorf("invalid function call syntax: missing closing parenthesis in '%s'", pattern)
	}
	argsStr := strings.TrimSpace(pattern[funcNameEnd+1 : len(pattern)-1])

	var args []interface{}
	if argsStr != "" {
		for _, rawArg := range splitArgs(argsStr) {
			arg, err := c.evaluateArg(rawArg)
			if err != nil {
				return nil, fmt.Errorf("error in argument of %s: %w", funcName, err)
			}
			args = append(args, arg)
		}
	}

	fn, exists := GetFunction(funcName)
	if !exists {
		return nil, fmt.Errorf("undefined function: %s", funcName)
	}

	value, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("error executing function %s: %w", funcName, err)
	}
	return value, nil
}

// evaluateArg turns a raw function argument into a value. Quoted arguments are literals,
// nested calls are evaluated, resolvable paths are looked up, anything else is a literal.
func (c *ExecutionContext) evaluateArg(rawArg string) (interface{}, error) {
	if len(rawArg) >= 2 {
		first, last := rawArg[0], rawArg[len(rawArg)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return rawArg[1 : len(rawArg)-1], nil
		}
	}
	if strings.Contains(rawArg, "(") {
		return c.evaluate(rawArg)
	}
	if value, err := c.ResolveVariable(rawArg); err == nil {
		return value, nil
	}
	return rawArg, nil
}

// singlePattern reports whether s is exactly one {{ ... }} pattern and returns its content
func singlePattern(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{{") || !strings.HasSuffix(trimmed, "}}") {
		return "", false
	}
	inner := trimmed[2 : len(trimmed)-2]
	if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

// splitArgs splits a comma-separated argument string, respecting nested parentheses
// and quotes. For example: "a, f(b, c), 'd,e'" -> ["a", "f(b, c)", "'d,e'"]
func splitArgs(argsStr string) []string {
	var args []string
	var currentArg strings.Builder
	parenLevel := 0
	var quote rune

	for _, char := range argsStr {
		switch {
		case quote != 0:
			if char == quote {
				quote = 0
			}
			currentArg.WriteRune(char)
		case char == '"' || char == '\'':
			quote = char
			currentArg.WriteRune(char)
		case char == '(':
			parenLevel++
			currentArg.WriteRune(char)
		case char == ')':
			parenLevel--
			currentArg.WriteRune(char)
		case char == ',' && parenLevel == 0:
			args = append(args, strings.TrimSpace(currentArg.String()))
			currentArg.Reset()
		default:
			currentArg.WriteRune(char)
		}
	}

	if last := strings.TrimSpace(currentArg.String()); last != "" {
		args = append(args, last)
	}
	return args
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}
