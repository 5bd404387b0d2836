// Package traits implements trait-based test case filtering.
//
// A filter spec is a semicolon-delimited list of name=value pairs. Include
// specs select any test carrying at least one listed pair; exclude specs
// reject any test carrying any listed pair. Exclusion always wins.
package traits

import (
	"fmt"
	"strings"
)

// FilterSet holds compiled include/exclude trait predicates. It is immutable
// after Compile and safe for concurrent use; Match is a pure function of the
// test's traits.
type FilterSet struct {
	included map[string]map[string]struct{}
	excluded map[string]map[string]struct{}
}

// Compile parses the include and exclude specs into a FilterSet. Malformed
// pairs are reported through warn and skipped; they never fail the run.
func Compile(includeSpec, excludeSpec string, warn func(msg string)) FilterSet {
	if warn == nil {
		warn = func(string) {}
	}
	return FilterSet{
		included: parseSpec(includeSpec, warn),
		excluded: parseSpec(excludeSpec, warn),
	}
}

func parseSpec(spec string, warn func(string)) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, pair := range strings.Split(spec, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			warn(fmt.Sprintf("ignoring malformed trait filter %q (expected name=value)", pair))
			continue
		}
		values, exists := out[name]
		if !exists {
			values = make(map[string]struct{})
			out[name] = values
		}
		values[value] = struct{}{}
	}
	return out
}

// Empty reports whether the set contains no include and no exclude pairs.
func (f FilterSet) Empty() bool {
	return len(f.included) == 0 && len(f.excluded) == 0
}

// Match decides whether a test case with the given traits should run.
//
// The test is selected when both hold:
//   - the include set is empty, or the traits contain at least one included
//     name/value pair;
//   - the traits contain no excluded name/value pair.
func (f FilterSet) Match(testTraits map[string][]string) bool {
	if len(f.included) > 0 && !containsAny(testTraits, f.included) {
		return false
	}
	return !containsAny(testTraits, f.excluded)
}

func containsAny(testTraits map[string][]string, pairs map[string]map[string]struct{}) bool {
	for name, values := range pairs {
		for _, have := range testTraits[name] {
			if _, ok := values[have]; ok {
				return true
			}
		}
	}
	return false
}
