package runner

import (
	"sort"
	"strings"

	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// Top-level context keys seeded before the first check
const (
	KeyConfig = "config"
	KeyVars   = "vars"
	KeyEnv    = "env"
)

// seed builds the context of a run: config values, the environment names the
// suite lists, then the suite variables resolved against both and each other.
// Overrides replace suite variables before any is resolved.
func (r *Runner) seed(s *suite.Suite) (*execContext.ExecutionContext, []string) {
	env, secrets := r.lookupEnv(s.Env)

	vars := execContext.NewExecutionContext(map[string]interface{}{
		KeyConfig: map[string]interface{}{"base_url": r.opts.BaseURL},
		KeyEnv:    env,
	})

	resolved := make(map[string]interface{}, len(s.Variables)+len(r.opts.Variables))
	for name, value := range r.opts.Variables {
		resolved[name] = value
	}

	// Variables may refer to each other, so resolve in passes until none progress
	pending := make([]string, 0, len(s.Variables))
	for name := range s.Variables {
		if _, overridden := resolved[name]; !overridden {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)

	errs := make(map[string]error)
	for len(pending) > 0 {
		_ = vars.SetVariable(KeyVars, resolved)
		var left []string
		for _, name := range pending {
			value, err := vars.SubstituteValue(s.Variables[name])
			if err != nil {
				errs[name] = err
				left = append(left, name)
				continue
			}
			resolved[name] = value
		}
		if len(left) == len(pending) {
			break
		}
		pending = left
	}
	for _, name := range pending {
		r.opts.Logger.Warn("Suite variable left unresolved", "variable", name, "error", errs[name])
		resolved[name] = s.Variables[name]
	}
	_ = vars.SetVariable(KeyVars, resolved)

	return vars, secrets
}

// lookupEnv reads NAME or NAME=default entries. Values of names that look like
// secrets are returned for scrubbing.
func (r *Runner) lookupEnv(entries []string) (map[string]interface{}, []string) {
	env := make(map[string]interface{}, len(entries))
	var secrets []string

	for _, entry := range entries {
		name, def, hasDefault := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		value, ok := r.opts.LookupEnv(name)
		if !ok || value == "" {
			if !hasDefault {
				continue
			}
			value = def
		}
		env[name] = value
		if sensitiveName(name) {
			secrets = append(secrets, value)
		}
	}
	return env, secrets
}

func sensitiveName(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range []string{"PASSWORD", "SECRET", "TOKEN", "KEY"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
