// SPDX-License-Identifier: MPL-2.0

// Package skip decides whether a build step is skipped.
//
// A Skip holds condition expressions and, once evaluated, their combined result.
// Conditions are OR-ed: a single true condition skips the step.
package skip

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// Skip is a set of skip conditions with an optional evaluation result.
	// The zero value has no conditions and has not been evaluated.
	Skip struct {
		conditions []string
		evaluated  *bool
	}

	// Evaluator decides a single condition expression.
	Evaluator interface {
		EvalBool(expr string) (bool, error)
	}

	// ConditionError reports a condition that could not be evaluated.
	ConditionError struct {
		Condition string
		Err       error
	}
)

func (e *ConditionError) Error() string {
	return fmt.Sprintf("evaluating skip condition %q: %v", e.Condition, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// New returns an unevaluated Skip for conditions. Blank conditions are dropped.
func New(conditions ...string) Skip {
	s := Skip{}
	for _, c := range conditions {
		if c = strings.TrimSpace(c); c != "" {
			s.conditions = append(s.conditions, c)
		}
	}
	return s
}

// Conditions returns a copy of the condition expressions in order.
func (s Skip) Conditions() []string {
	return slices.Clone(s.conditions)
}

// IsEmpty reports whether there are no conditions.
func (s Skip) IsEmpty() bool {
	return len(s.conditions) == 0
}

// Evaluated returns the evaluation result and whether one exists.
func (s Skip) Evaluated() (result, ok bool) {
	if s.evaluated == nil {
		return false, false
	}
	return *s.evaluated, true
}

// Merge combines the conditions of s and other. When either side evaluated to
// true the result is true; when both evaluated to false it is false; otherwise
// the merged Skip must be evaluated again.
func (s Skip) Merge(other Skip) Skip {
	merged := Skip{conditions: slices.Concat(s.conditions, other.conditions)}
	left, leftOK := s.Evaluated()
	right, rightOK := other.Evaluated()
	switch {
	case (leftOK && left) || (rightOK && right):
		merged.evaluated = boolPtr(true)
	case leftOK && rightOK:
		merged.evaluated = boolPtr(false)
	}
	return merged
}

// WithEval evaluates the conditions in order and stops at the first true one.
// A failing condition aborts evaluation with a *ConditionError.
func (s Skip) WithEval(ev Evaluator) (Skip, error) {
	out := Skip{conditions: s.conditions}
	for _, c := range s.conditions {
		ok, err := ev.EvalBool(c)
		if err != nil {
			return s, &ConditionError{Condition: c, Err: err}
		}
		if ok {
			out.evaluated = boolPtr(true)
			return out, nil
		}
	}
	out.evaluated = boolPtr(false)
	return out, nil
}

// Eval reports whether the step is skipped. A Skip that was never evaluated
// skips, so callers must run WithEval first.
func (s Skip) Eval() bool {
	if s.evaluated == nil {
		return true
	}
	return *s.evaluated
}

func boolPtr(b bool) *bool { return &b }
