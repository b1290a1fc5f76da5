// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"cmp"
	"slices"
	"strings"
)

type (
	// Redactor replaces secret substrings in output lines.
	//
	// Sources are applied longest first, ties broken lexicographically, so a secret
	// that contains another secret is replaced as a whole. A nil Redactor is valid
	// and leaves lines untouched.
	Redactor struct {
		rules []redaction
	}

	redaction struct {
		from string
		to   string
	}
)

// NewRedactor builds a Redactor from a source to replacement mapping.
// Empty sources are ignored.
func NewRedactor(mapping map[string]string) *Redactor {
	rules := make([]redaction, 0, len(mapping))
	for from, to := range mapping {
		if from == "" {
			continue
		}
		rules = append(rules, redaction{from: from, to: to})
	}
	slices.SortFunc(rules, func(a, b redaction) int {
		if c := cmp.Compare(len(b.from), len(a.from)); c != 0 {
			return c
		}
		return strings.Compare(a.from, b.from)
	})
	return &Redactor{rules: rules}
}

// Apply returns line with every source replaced.
func (r *Redactor) Apply(line string) string {
	if r == nil {
		return line
	}
	for _, rule := range r.rules {
		line = strings.ReplaceAll(line, rule.from, rule.to)
	}
	return line
}

// Len returns the number of active replacements.
func (r *Redactor) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}
