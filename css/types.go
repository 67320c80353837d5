// Package css parses stylesheets into an editable rule structure and
// writes them back out. It supports exactly what the conversion flow
// needs: locating a rule by selector, setting properties on it, and
// re-serializing the sheet deterministically.
package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is one property declaration. Declarations keep their
// source order; Rule.Set appends new properties at the end.
type Declaration struct {
	Property string
	Value    string
}

// Rule represents a single ruleset (selector group + declarations).
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// Get returns the value of property, or "" and false if it is not set.
func (r *Rule) Get(property string) (string, bool) {
	for _, d := range r.Declarations {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

// Set assigns property to value, keeping the declaration's position when
// it already exists. It reports whether the rule actually changed.
func (r *Rule) Set(property, value string) bool {
	for i, d := range r.Declarations {
		if d.Property == property {
			if d.Value == value {
				return false
			}
			r.Declarations[i].Value = value
			return true
		}
	}
	r.Declarations = append(r.Declarations, Declaration{Property: property, Value: value})
	return true
}

// Matches reports whether selector appears in the rule's selector group.
func (r *Rule) Matches(selector string) bool {
	for _, s := range r.Selectors {
		if s == selector {
			return true
		}
	}
	return false
}

// AtRule is an @-rule, either a simple one (@import, @charset) or one
// carrying a block of nested rules (@media).
type AtRule struct {
	Name     string // including the "@"
	Params   string
	HasBlock bool
	Items    []Item
}

// Item is a single top-level stylesheet item. Exactly one of Rule and
// AtRule is non-nil.
type Item struct {
	Rule   *Rule
	AtRule *AtRule
}

// Stylesheet is a parsed CSS stylesheet in source order.
type Stylesheet struct {
	Items []Item
}

// Find returns every rule whose selector group contains selector,
// including rules nested in block @-rules.
func (s *Stylesheet) Find(selector string) []*Rule {
	return findRules(s.Items, selector)
}

func findRules(items []Item, selector string) []*Rule {
	var rules []*Rule
	for _, item := range items {
		switch {
		case item.Rule != nil && item.Rule.Matches(selector):
			rules = append(rules, item.Rule)
		case item.AtRule != nil && item.AtRule.HasBlock:
			rules = append(rules, findRules(item.AtRule.Items, selector)...)
		}
	}
	return rules
}

// Append adds a rule at the end of the stylesheet.
func (s *Stylesheet) Append(rule *Rule) {
	s.Items = append(s.Items, Item{Rule: rule})
}

// WriteTo writes the stylesheet to w in source order, implementing
// io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	return writeItems(w, s.Items, "")
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeItems(w io.Writer, items []Item, indent string) (int64, error) {
	var total int64
	for i, item := range items {
		var n int64
		var err error

		switch {
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, indent)
		case item.AtRule != nil:
			n, err = writeAtRule(w, item.AtRule, indent)
		}
		total += n
		if err != nil {
			return total, err
		}

		if i < len(items)-1 {
			m, err := fmt.Fprint(w, "\n")
			total += int64(m)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func writeRule(w io.Writer, rule *Rule, indent string) (int64, error) {
	var total int64
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, strings.Join(rule.Selectors, ", "))
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err = fmt.Fprintf(w, "%s  %s: %s;\n", indent, d.Property, d.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += int64(n)
	return total, err
}

func writeAtRule(w io.Writer, at *AtRule, indent string) (int64, error) {
	var total int64
	head := at.Name
	if at.Params != "" {
		head += " " + at.Params
	}

	if !at.HasBlock {
		n, err := fmt.Fprintf(w, "%s%s;\n", indent, head)
		return int64(n), err
	}

	n, err := fmt.Fprintf(w, "%s%s {\n", indent, head)
	total += int64(n)
	if err != nil {
		return total, err
	}
	m, err := writeItems(w, at.Items, indent+"  ")
	total += m
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += int64(n)
	return total, err
}
