package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by stores when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// Validation rules reported on a Violation.
const (
	RuleRequired  = "required"
	RuleEnum      = "enum"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleEmail     = "email"
	RuleFormat    = "format"
	RuleUnique    = "unique"
	RuleReference = "reference"
)

// Violation describes one rejected field.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError rejects a candidate document. It names every offending field.
type ValidationError struct {
	Entity     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields maps field name to message, for JSON error bodies.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// Has reports whether field was rejected by rule.
func (e *ValidationError) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && v.Rule == rule {
			return true
		}
	}
	return false
}

// Only reports whether every violation was raised by rule.
func (e *ValidationError) Only(rule string) bool {
	if len(e.Violations) == 0 {
		return false
	}
	for _, v := range e.Violations {
		if v.Rule != rule {
			return false
		}
	}
	return true
}

// Invalid builds a single-violation ValidationError.
func Invalid(entity, field, rule, message string) *ValidationError {
	return &ValidationError{
		Entity:     entity,
		Violations: []Violation{{Field: field, Rule: rule, Message: message}},
	}
}

// Duplicate reports a unique index violation on field.
func Duplicate(entity, field string) *ValidationError {
	return Invalid(entity, field, RuleUnique, fmt.Sprintf("%s already exists", field))
}

// Unresolved reports a reference that does not point at an existing document.
func Unresolved(entity, field, target string) *ValidationError {
	return Invalid(entity, field, RuleReference, fmt.Sprintf("%s does not reference an existing %s", field, target))
}
