// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ErrNotBoolean is returned when an expression evaluates to a non-truthy kind.
var ErrNotBoolean = errors.New("expression does not evaluate to a boolean")

// Evaluator evaluates expressions against a fixed set of variables.
// It is safe for concurrent use.
type Evaluator struct {
	mu    sync.Mutex
	ctx   *cue.Context
	scope cue.Value
}

// NewEvaluator returns an Evaluator whose expressions may reference the keys of vars.
func NewEvaluator(vars map[string]any) (*Evaluator, error) {
	ctx := cuecontext.New()
	scope := ctx.Encode(vars)
	if err := scope.Err(); err != nil {
		return nil, fmt.Errorf("encoding variables: %w", err)
	}
	return &Evaluator{ctx: ctx, scope: scope}, nil
}

// EvalBool evaluates expr and converts the result to a boolean.
//
// Booleans are returned as is. Numbers are true when non-zero, strings when
// non-empty, and null is false. Structs and lists are rejected with ErrNotBoolean.
func (e *Evaluator) EvalBool(expr string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.ctx.CompileString(expr, cue.Scope(e.scope), cue.InferBuiltins(true), cue.Filename("condition"))
	if err := v.Err(); err != nil {
		return false, FormatError(err, expr)
	}

	switch v.IncompleteKind() {
	case cue.BoolKind:
		return v.Bool()
	case cue.NullKind:
		return false, nil
	case cue.StringKind:
		s, err := v.String()
		return s != "", err
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		return f != 0, err
	default:
		return false, fmt.Errorf("%s: %w (got %s)", expr, ErrNotBoolean, v.IncompleteKind())
	}
}
