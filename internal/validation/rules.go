// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/keystorage/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PathSegment validates that a string can be embedded as exactly one segment
// of a storage path: no separators, no NUL bytes and no traversal names.
var PathSegment = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_path_segment_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "must not be blank")
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return validation.NewError("validation_path_segment_separator", "must not contain path separators")
	}
	if s == "." || s == ".." {
		return validation.NewError("validation_path_segment_traversal", "must not be a relative path reference")
	}
	return nil
})

// NoTraversal validates that a slash separated path has no ".." segment.
var NoTraversal = validation.NewStringRuleWithError(
	func(s string) bool {
		for _, segment := range strings.FieldsFunc(s, isSeparator) {
			if segment == ".." {
				return false
			}
		}
		return !strings.ContainsRune(s, '\x00')
	},
	validation.NewError("validation_no_traversal", "must not contain parent directory references"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
