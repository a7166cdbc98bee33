package runner

import (
	"context"
	"fmt"
	"reflect"

	"metrosmoke/pkg/reporter"
	"metrosmoke/pkg/suite"
)

// runGroup expands a for_each check: its nested checks run once per element of
// the list, named "<group>[i].<check>". Values captured in one iteration do not
// leak into the next.
func (st *run) runGroup(ctx context.Context, group *suite.Check) {
	if ctx.Err() != nil {
		st.record(skipped(group.Name, DetailCancelled))
		return
	}
	if key, missing := st.missingPrerequisite(group.Requires); missing {
		st.record(skipped(group.Name, "missing prerequisite: "+key))
		return
	}

	raw, err := st.vars.ResolveVariable(group.ForEach)
	if err != nil || raw == nil {
		st.record(skipped(group.Name, "missing prerequisite: "+group.ForEach))
		return
	}
	items, ok := toList(raw)
	if !ok {
		st.record(reporter.CheckResult{
			Name:   group.Name,
			Status: reporter.StatusFailed,
			Detail: fmt.Sprintf("for_each '%s' is not a list (got %T)", group.ForEach, raw),
		})
		return
	}

	loopVar := group.LoopVariable()
	var targets []string
	for i := range group.Checks {
		for _, ex := range group.Checks[i].Extract {
			targets = append(targets, ex.Target)
		}
	}

	st.opts.Logger.Debug("Expanding for_each", "check", group.Name, "list", group.ForEach, "items", len(items))

	for i, item := range items {
		for _, target := range targets {
			st.vars.Unset(target)
		}
		if err := st.vars.SetVariable(loopVar, item); err != nil {
			st.record(reporter.CheckResult{
				Name:   fmt.Sprintf("%s[%d]", group.Name, i),
				Status: reporter.StatusFailed,
				Detail: fmt.Sprintf("failed to bind '%s': %v", loopVar, err),
			})
			continue
		}

		for j := range group.Checks {
			child := &group.Checks[j]
			st.record(st.runCheck(ctx, child, fmt.Sprintf("%s[%d].%s", group.Name, i, child.Name)))
		}
	}

	st.vars.Unset(loopVar)
	for _, target := range targets {
		st.vars.Unset(target)
	}
}

// toList converts any slice or array to []interface{}
func toList(v interface{}) ([]interface{}, bool) {
	if list, ok := v.([]interface{}); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
