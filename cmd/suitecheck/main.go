// Package main validates suite files and prints their structure.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"metrosmoke/pkg/suite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, w io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: suitecheck <suite-file|builtin-name>...")
		return 2
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	failed := 0
	for _, ref := range args {
		fmt.Fprintf(w, "Parsing: %s\n", ref)
		s, err := suite.Load(ref)
		if err != nil {
			red.Fprintf(w, "❌ %v\n\n", err)
			failed++
			continue
		}
		green.Fprintf(w, "✅ Suite '%s' is valid\n", s.Name)
		printSuite(w, s)
		fmt.Fprintln(w)
	}

	if failed > 0 {
		red.Fprintf(w, "%d of %d suite(s) invalid\n", failed, len(args))
		return 1
	}
	return 0
}

// printSuite prints summary information about a suite
func printSuite(w io.Writer, s *suite.Suite) {
	cyan := color.New(color.FgCyan)
	if s.Description != "" {
		cyan.Fprintf(w, "Description: %s\n", truncateString(s.Description, 80))
	}

	if len(s.Env) > 0 {
		fmt.Fprintf(w, "- Environment (%d): %s\n", len(s.Env), strings.Join(envNames(s.Env), ", "))
	}
	if len(s.Variables) > 0 {
		names := make([]string, 0, len(s.Variables))
		for name := range s.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "- Variables (%d): %s\n", len(names), strings.Join(names, ", "))
	}

	fmt.Fprintf(w, "- Checks (%d):\n", len(s.Checks))
	printChecks(w, s.Checks, "  ")
}

// envNames drops the defaults of NAME=default entries
func envNames(entries []string) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name, _, _ := strings.Cut(e, "=")
		names = append(names, name)
	}
	return names
}

func printChecks(w io.Writer, checks []suite.Check, indent string) {
	for i, c := range checks {
		fmt.Fprintf(w, "%s[%d] %s\n", indent, i+1, c.Name)

		if c.ForEach != "" {
			fmt.Fprintf(w, "%s  For each '%s' as '%s' with %d nested checks\n", indent, c.ForEach, c.LoopVariable(), len(c.Checks))
			printChecks(w, c.Checks, indent+"    ")
			continue
		}

		switch c.ActionType() {
		case suite.ActionWait:
			fmt.Fprintf(w, "%s  Wait %s\n", indent, c.Duration)
		default:
			method := c.Request.Method
			if method == "" {
				method = "GET"
			}
			auth := c.Request.Auth
			if auth == "" {
				auth = suite.AuthNone
			}
			fmt.Fprintf(w, "%s  HTTP %s %s (auth: %s)\n", indent, strings.ToUpper(method), truncateString(c.Request.URL, 60), auth)
		}

		if len(c.Requires) > 0 {
			fmt.Fprintf(w, "%s  Requires: %s\n", indent, strings.Join(c.Requires, ", "))
		}
		if c.Expect != nil && c.Expect.ErrorCode != "" {
			fmt.Fprintf(w, "%s  Expects error: %s\n", indent, c.Expect.ErrorCode)
		}
		for _, ex := range c.Extract {
			optional := ""
			if ex.Optional {
				optional = " (optional)"
			}
			fmt.Fprintf(w, "%s  Extract %s -> %s%s\n", indent, ex.ExtractorType(), ex.Target, optional)
		}
		if c.Note != "" {
			fmt.Fprintf(w, "%s  Note: %s\n", indent, c.Note)
		}
	}
}

// truncateString shortens a string if it's too long
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
