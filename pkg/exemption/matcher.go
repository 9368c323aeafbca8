// Package exemption decides whether a dependency coordinate is exempt from
// freshness enforcement. Rules are regular expressions matched against the
// "group:artifact" string; any matching rule exempts. Patterns are not
// anchored implicitly, policy authors anchor them when they need to.
package exemption

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern indicates an exemption rule that does not compile.
var ErrInvalidPattern = errors.New("invalid exemption pattern")

// Rule is a single compiled exemption pattern.
type Rule struct {
	Pattern string
	re      *regexp.Regexp
}

// NewRule compiles a single exemption pattern.
func NewRule(pattern string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return Rule{Pattern: pattern, re: re}, nil
}

// Matches reports whether the rule matches the coordinate.
func (r Rule) Matches(coordinate string) bool {
	return r.re != nil && r.re.MatchString(coordinate)
}

// Matcher holds an unordered set of compiled rules.
type Matcher struct {
	rules []Rule
}

// Compile builds a Matcher from raw patterns. The first pattern that fails to
// compile aborts compilation.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{rules: make([]Rule, 0, len(patterns))}
	for i, p := range patterns {
		r, err := NewRule(p)
		if err != nil {
			return nil, fmt.Errorf("exemption #%d: %w", i, err)
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level defaults.
func MustCompile(patterns ...string) *Matcher {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// IsExempt reports whether any rule matches the coordinate. A nil or empty
// matcher exempts nothing.
func (m *Matcher) IsExempt(coordinate string) bool {
	if m == nil {
		return false
	}
	return IsExempt(coordinate, m.rules)
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Patterns returns the raw patterns in configuration order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.Pattern
	}
	return out
}

// IsExempt reports whether at least one rule matches the coordinate.
func IsExempt(coordinate string, rules []Rule) bool {
	for _, r := range rules {
		if r.Matches(coordinate) {
			return true
		}
	}
	return false
}
