// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test contains helpers that remove the common boilerplate from the
// package tests.
//
// The Expect functions report a failure and let the test continue. The Demand
// functions stop the test, which is useful when the tested value is used by
// the following checks (eg. a slice length before indexing it).
//
// A nil error is a success value.
package test

import (
	"bytes"
	"fmt"
	"testing"
)

func id(tags ...any) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprint(tags...) + ": "
}

// ExpectEquality fails the test if v is not equal to expected.
func ExpectEquality[T comparable](t *testing.T, v, expected T, tags ...any) bool {
	t.Helper()
	if v != expected {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality but stops the test on failure.
func DemandEquality[T comparable](t *testing.T, v, expected T, tags ...any) {
	t.Helper()
	if v != expected {
		t.Fatalf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
	}
}

// ExpectBytes fails the test if b differs from expected. The first differing
// offset is reported.
func ExpectBytes(t *testing.T, b, expected []byte, tags ...any) bool {
	t.Helper()
	if bytes.Equal(b, expected) {
		return true
	}
	n := min(len(b), len(expected))
	i := 0
	for i < n && b[i] == expected[i] {
		i++
	}
	t.Errorf("%sbytes differ at offset %#x (len %d, wanted len %d): % x", id(tags...), i, len(b), len(expected), b[i:min(len(b), i+8)])
	return false
}

// ExpectSuccess fails the test if v is a failure value: false or a non-nil
// error.
func ExpectSuccess(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		if !v {
			t.Errorf("%sexpected success (bool)", id(tags...))
			return false
		}
	case error:
		t.Errorf("%sexpected success (error: %v)", id(tags...), v)
		return false
	default:
		t.Fatalf("%sunsupported type (%T) for expectation testing", id(tags...), v)
		return false
	}
	return true
}

// DemandSuccess is like ExpectSuccess but stops the test on failure.
func DemandSuccess(t *testing.T, v any, tags ...any) {
	t.Helper()
	if !ExpectSuccess(t, v, tags...) {
		t.FailNow()
	}
}

// ExpectFailure fails the test if v is a success value: true or a nil error.
func ExpectFailure(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		t.Errorf("%sexpected failure (nil)", id(tags...))
		return false
	case bool:
		if v {
			t.Errorf("%sexpected failure (bool)", id(tags...))
			return false
		}
	case error:
		return true
	default:
		t.Fatalf("%sunsupported type (%T) for expectation testing", id(tags...), v)
		return false
	}
	return true
}
