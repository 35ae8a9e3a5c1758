// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Assert provides assertion capabilities for E2E tests.
//
// This is a thin wrapper around testify/assert with response-aware helpers.
// All assertions log failures but do not stop test execution (use the
// require package for fatal assertions).
//
//	a := NewAssert(t)
//	a.Status(resp, 201)
//	a.Equal("auto-approved", decision.Status)
type Assert struct {
	t *testing.T
}

// NewAssert creates a new assertion helper for the given test.
func NewAssert(t *testing.T) *Assert {
	return &Assert{t: t}
}

// Status asserts the response carries the expected HTTP status and prints
// the body when it does not.
//
//	a.Status(resp, http.StatusUnauthorized)
func (a *Assert) Status(resp *Response, expected int) bool {
	a.t.Helper()
	if resp == nil {
		return assert.Fail(a.t, "no response")
	}
	return assert.Equal(a.t, expected, resp.StatusCode, "body: %s", resp.String())
}

// Decode asserts the response body unmarshals into v.
//
//	var decisions []models.Decision
//	a.Decode(resp, &decisions)
func (a *Assert) Decode(resp *Response, v any) bool {
	a.t.Helper()
	return assert.NoError(a.t, resp.JSON(v), "body: %s", resp.String())
}

// Equal asserts that expected and actual are equal.
func (a *Assert) Equal(expected, actual any, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.Equal(a.t, expected, actual, msgAndArgs...)
}

// NoError asserts that err is nil.
func (a *Assert) NoError(err error, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.NoError(a.t, err, msgAndArgs...)
}

// True asserts that the specified value is true.
func (a *Assert) True(value bool, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.True(a.t, value, msgAndArgs...)
}

// Contains asserts that the string s contains the substring.
func (a *Assert) Contains(s, contains string, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.Contains(a.t, s, contains, msgAndArgs...)
}

// Len asserts that the specified object has the expected length.
func (a *Assert) Len(object any, length int, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.Len(a.t, object, length, msgAndArgs...)
}

// Empty asserts that the specified object is empty.
func (a *Assert) Empty(object any, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.Empty(a.t, object, msgAndArgs...)
}

// NotEmpty asserts that the specified object is not empty.
func (a *Assert) NotEmpty(object any, msgAndArgs ...any) bool {
	a.t.Helper()
	return assert.NotEmpty(a.t, object, msgAndArgs...)
}
