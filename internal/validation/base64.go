package validation

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"
)

// MaxKeySize bounds the decoded size of a key accepted from the command line.
const MaxKeySize = 64 * 1024

// EncodedKey accepts standard base64 text that decodes to a non-empty key of
// at most MaxKeySize bytes.
var EncodedKey = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_encoded_key_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxKeySize+2 {
		return validation.NewError("validation_encoded_key_size", "must not exceed the maximum key size")
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_encoded_key", "must be valid base64-encoded data")
	}
	switch {
	case len(decoded) == 0:
		return validation.NewError("validation_encoded_key_empty", "must decode to at least one byte")
	case len(decoded) > MaxKeySize:
		return validation.NewError("validation_encoded_key_size", "must not exceed the maximum key size")
	}
	return nil
})
