// Package validator provides a custom Validator type for accumulating
// field-level validation errors and returning them as a map.
package validator

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is considered valid.
type Validator struct {
	Errors map[string]string
}

// New creates and returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map contains no entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with the given message.
// If key already has an error it is not overwritten, so the first
// failure for a field is always the one that is reported.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key with message only when ok is false.
// Use this as a single-line guard:
//
//	v.Check(validator.MinChars(title, 3), "title", "must be at least 3 characters long")
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Trim removes leading and trailing whitespace, including newlines.
func Trim(value string) string {
	return strings.TrimSpace(value)
}

// CharCount returns the number of user-perceived characters in value.
// "é" written as e + combining accent counts as one character.
func CharCount(value string) int {
	return uniseg.GraphemeClusterCount(value)
}

// MinChars returns true if value has at least n user-perceived characters.
func MinChars(value string, n int) bool {
	return CharCount(value) >= n
}

// In returns true if value is present in the list slice.
func In(value string, list ...string) bool {
	for _, item := range list {
		if value == item {
			return true
		}
	}
	return false
}
