// Package context defines the ExecutionContext which holds the state of one suite run.
// This file implements the built-in functions (e.g. unix, random_string, uuid)
// available within substitution syntax (`{{ func(...) }}`) and a registration
// mechanism for them.
package context

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VariableFunction is the type for all built-in functions available in substitution.
type VariableFunction func(args ...interface{}) (interface{}, error)

var (
	functionsMu         sync.RWMutex
	registeredFunctions = map[string]VariableFunction{
		"timestamp":     timestamp,
		"unix":          unixTime,
		"random_string": randomString,
		"random_int":    randomInt,
		"uuid":          newUUID,
		"concat":        concat,
		"lower":         lower,
		"upper":         upper,
		"base64_encode": base64Encode,
		"url_encode":    urlEncode,
		"json_encode":   jsonEncode,
	}
)

// GetFunction retrieves a registered function by name.
func GetFunction(name string) (VariableFunction, bool) {
	functionsMu.RLock()
	defer functionsMu.RUnlock()
	f, ok := registeredFunctions[name]
	return f, ok
}

// RegisterFunction allows registering custom functions.
func RegisterFunction(name string, fn VariableFunction) error {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	if _, exists := registeredFunctions[name]; exists {
		return fmt.Errorf("function %s is already registered", name)
	}
	registeredFunctions[name] = fn
	return nil
}

// checkArgCount validates the number of arguments for a function.
func checkArgCount(name string, args []interface{}, expectedCount int) error {
	if len(args) != expectedCount {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, expectedCount, len(args))
	}
	return nil
}

func toInt(name string, arg interface{}) (int, error) {
	switch v := arg.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		n, err := strconv.Atoi(strings.TrimSpace(stringify(v)))
		if err != nil {
			return 0, fmt.Errorf("%s: '%v' is not an integer", name, arg)
		}
		return n, nil
	}
}

// timestamp returns the current UTC time, RFC3339 or in the given Go layout
func timestamp(args ...interface{}) (interface{}, error) {
	now := time.Now().UTC()
	if len(args) == 0 {
		return now.Format(time.RFC3339), nil
	}
	if err := checkArgCount("timestamp", args, 1); err != nil {
		return nil, err
	}
	return now.Format(stringify(args[0])), nil
}

func unixTime(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("unix", args, 0); err != nil {
		return nil, err
	}
	return time.Now().Unix(), nil
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("random_string", args, 1); err != nil {
		return nil, err
	}
	n, err := toInt("random_string", args[0])
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > 1024 {
		return nil, fmt.Errorf("random_string: length must be between 1 and 1024, got %d", n)
	}

	b := make([]byte, n)
	for i := range b {
		b[i] = randomAlphabet[rand.Intn(len(randomAlphabet))]
	}
	return string(b), nil
}

func randomInt(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("random_int", args, 2); err != nil {
		return nil, err
	}
	lo, err := toInt("random_int", args[0])
	if err != nil {
		return nil, err
	}
	hi, err := toInt("random_int", args[1])
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, fmt.Errorf("random_int: max %d is less than min %d", hi, lo)
	}
	return lo + rand.Intn(hi-lo+1), nil
}

func newUUID(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("uuid", args, 0); err != nil {
		return nil, err
	}
	return uuid.NewString(), nil
}

func concat(args ...interface{}) (interface{}, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(stringify(a))
	}
	return sb.String(), nil
}

func lower(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("lower", args, 1); err != nil {
		return nil, err
	}
	return strings.ToLower(stringify(args[0])), nil
}

func upper(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("upper", args, 1); err != nil {
		return nil, err
	}
	return strings.ToUpper(stringify(args[0])), nil
}

func base64Encode(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("base64_encode", args, 1); err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString([]byte(stringify(args[0]))), nil
}

func urlEncode(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("url_encode", args, 1); err != nil {
		return nil, err
	}
	return url.QueryEscape(stringify(args[0])), nil
}

func jsonEncode(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("json_encode", args, 1); err != nil {
		return nil, err
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("json_encode: %w", err)
	}
	return string(data), nil
}
