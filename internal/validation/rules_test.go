package validation

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathSegment(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
		errMsg    string
	}{
		{
			name:      "module id",
			input:     "encryption_module_0",
			shouldErr: false,
		},
		{
			name:      "dotted key id",
			input:     "alice.privateKey",
			shouldErr: false,
		},
		{
			name:      "empty left to required",
			input:     "",
			shouldErr: false,
		},
		{
			name:      "blank",
			input:     "  ",
			shouldErr: true,
			errMsg:    "must not be blank",
		},
		{
			name:      "forward slash",
			input:     "a/b",
			shouldErr: true,
			errMsg:    "path separators",
		},
		{
			name:      "backslash",
			input:     "a\\b",
			shouldErr: true,
			errMsg:    "path separators",
		},
		{
			name:      "nul byte",
			input:     "a\x00b",
			shouldErr: true,
			errMsg:    "path separators",
		},
		{
			name:      "current directory",
			input:     ".",
			shouldErr: true,
			errMsg:    "relative path reference",
		},
		{
			name:      "parent directory",
			input:     "..",
			shouldErr: true,
			errMsg:    "relative path reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PathSegment.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("non string value", func(t *testing.T) {
		err := PathSegment.Validate(42)
		assert.Error(t, err)
	})
}

func TestNoTraversal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "plain path",
			input:     "/alice/files/doc.txt",
			shouldErr: false,
		},
		{
			name:      "dots inside names",
			input:     "/alice/files/..hidden/doc..txt",
			shouldErr: false,
		},
		{
			name:      "parent reference",
			input:     "/alice/files/../../bob/files/doc.txt",
			shouldErr: true,
		},
		{
			name:      "windows parent reference",
			input:     "\\alice\\..\\bob",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NoTraversal.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoWhitespace(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "no whitespace",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "leading whitespace",
			input:     " validstring",
			shouldErr: true,
		},
		{
			name:      "trailing whitespace",
			input:     "validstring ",
			shouldErr: true,
		},
		{
			name:      "both leading and trailing",
			input:     " validstring ",
			shouldErr: true,
		},
		{
			name:      "internal spaces allowed",
			input:     "valid string",
			shouldErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NoWhitespace.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "valid string",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "only spaces",
			input:     "   ",
			shouldErr: true,
		},
		{
			name:      "only tabs",
			input:     "\t\t",
			shouldErr: true,
		},
		{
			name:      "only newlines",
			input:     "\n\n",
			shouldErr: true,
		},
		{
			name:      "mixed whitespace",
			input:     " \t\n ",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NotBlank.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error returns nil",
			err:      nil,
			expected: false,
		},
		{
			name:     "wraps validation error",
			err:      assert.AnError,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapValidationError(tt.err)
			if tt.expected {
				assert.Error(t, result)
				assert.Contains(t, result.Error(), "invalid input")
			} else {
				assert.NoError(t, result)
			}
		})
	}
}

func TestEncodedKey(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantErr bool
	}{
		{name: "empty is left to Required", value: ""},
		{name: "short key", value: "QUJDMTIz"},
		{name: "max size", value: base64.StdEncoding.EncodeToString(make([]byte, MaxKeySize))},
		{name: "too large", value: base64.StdEncoding.EncodeToString(make([]byte, MaxKeySize+1)), wantErr: true},
		{name: "padding only", value: "====", wantErr: true},
		{name: "not base64", value: "not base64!", wantErr: true},
		{name: "not a string", value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EncodedKey.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
