// Package security provides security utilities for input validation,
// sanitization, and sensitive data masking.
package security

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validation limits for recommendation requests.
const (
	// Identifier limits.
	MinIDLength = 1
	MaxIDLength = 64

	// Result limits.
	MinLimit = 1
	MaxLimit = 100

	// Default result limit.
	DefaultLimit = 10

	// Weight limits.
	MinWeight = 0.0
	MaxWeight = 1.0

	// Analytics window limits.
	MaxWindowLength = 32

	// Request limits.
	MaxRequestSize = 1 * 1024 * 1024 // 1MB
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// idRegex matches valid identifiers: alphanumeric, hyphen, underscore.
var idRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// windowRegex matches analytics window strings like "30 days" or "12 hours".
var windowRegex = regexp.MustCompile(`^\d+\s+(hour|day|week|month)s?$`)

// ValidateID validates an opaque user or project identifier.
// Requirements: Required, 1-64 chars, alphanumeric + hyphen + underscore,
// must start with alphanumeric.
func ValidateID(field, id string) error {
	if id == "" {
		return &ValidationError{
			Field:      field,
			Constraint: "required",
		}
	}

	length := utf8.RuneCountInString(id)
	if length > MaxIDLength {
		return &ValidationError{
			Field:      field,
			Value:      length,
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxIDLength),
		}
	}

	if !idRegex.MatchString(id) {
		return &ValidationError{
			Field:      field,
			Constraint: "must start with alphanumeric and contain only alphanumeric, hyphen, underscore",
		}
	}

	return nil
}

// ValidateLimit validates a result limit.
// Requirements: 1-100 (0 means "use default" and is allowed).
func ValidateLimit(limit int) error {
	if limit == 0 {
		return nil
	}

	if limit < MinLimit || limit > MaxLimit {
		return &ValidationError{
			Field:      "limit",
			Value:      limit,
			Constraint: fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit),
		}
	}

	return nil
}

// ValidateWeight validates a scoring weight (0.0-1.0).
func ValidateWeight(field string, weight float64) error {
	if weight < MinWeight || weight > MaxWeight {
		return &ValidationError{
			Field:      field,
			Value:      weight,
			Constraint: fmt.Sprintf("must be between %.1f and %.1f", MinWeight, MaxWeight),
		}
	}

	return nil
}

// ValidateDiversityLambda validates the MMR diversity tradeoff.
func ValidateDiversityLambda(lambda float64) error {
	return ValidateWeight("diversity_lambda", lambda)
}

// ValidateWindow validates an analytics window string like "30 days".
func ValidateWindow(window string) error {
	if window == "" {
		return nil // empty means "use default window"
	}

	if len(window) > MaxWindowLength {
		return &ValidationError{
			Field:      "window",
			Value:      len(window),
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxWindowLength),
		}
	}

	if !windowRegex.MatchString(window) {
		return &ValidationError{
			Field:      "window",
			Value:      window,
			Constraint: `must look like "30 days", "4 weeks", or "12 hours"`,
		}
	}

	return nil
}

// RecommendRequestValidator validates a complete recommendation request.
type RecommendRequestValidator struct {
	UserID string
	Limit  int
	Lambda *float64
}

// Validate checks all fields and returns the first error found.
func (v *RecommendRequestValidator) Validate() error {
	if err := ValidateID("user_id", v.UserID); err != nil {
		return err
	}

	if err := ValidateLimit(v.Limit); err != nil {
		return err
	}

	if v.Lambda != nil {
		if err := ValidateDiversityLambda(*v.Lambda); err != nil {
			return err
		}
	}

	return nil
}
