// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE helpers.
//
// ParseAndDecode validates a user file against an embedded schema definition and
// decodes it:
//
//	result, err := cueutil.ParseAndDecode[map[string]any](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("config.cue"),
//	)
//
// EvalBool evaluates a single expression against a set of variables, which is how
// skip conditions such as `linux && x86_64` are decided. Errors from both carry the
// CUE path of the offending value.
package cueutil
