package harness

import (
	"fmt"
	"sort"

	"github.com/kestrelworks/ruleflow"
)

// Facts is the context shape scenarios describe in YAML.
type Facts = map[string]any

// Library is a registry of named rules that scenarios reference.
// Scenarios list rule names; the library supplies the implementations.
type Library struct {
	rules map[string]ruleflow.Rule[Facts]
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{rules: make(map[string]ruleflow.Rule[Facts])}
}

// Register adds a rule to the library. The rule must be named, and names
// must be unique: a scenario's trace identifies rules by name, so an
// anonymous or duplicated rule would make traces ambiguous.
func (l *Library) Register(rule ruleflow.Rule[Facts]) error {
	if rule.Name == "" {
		return fmt.Errorf("library rules must be named")
	}
	if _, exists := l.rules[rule.Name]; exists {
		return fmt.Errorf("duplicate rule name: %s", rule.Name)
	}
	l.rules[rule.Name] = rule
	return nil
}

// MustRegister is like Register but panics on error.
// Use in test setup where a registration failure is a programming error.
func (l *Library) MustRegister(rule ruleflow.Rule[Facts]) {
	if err := l.Register(rule); err != nil {
		panic(err)
	}
}

// Rule returns the named rule and whether it exists.
func (l *Library) Rule(name string) (ruleflow.Rule[Facts], bool) {
	r, ok := l.rules[name]
	return r, ok
}

// Names returns the registered rule names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.rules))
	for name := range l.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve maps scenario rule names to rules, preserving scenario order.
func (l *Library) resolve(names []string) ([]ruleflow.Rule[Facts], error) {
	rules := make([]ruleflow.Rule[Facts], 0, len(names))
	for i, name := range names {
		rule, ok := l.rules[name]
		if !ok {
			return nil, fmt.Errorf("rules[%d]: unknown rule %q", i, name)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
