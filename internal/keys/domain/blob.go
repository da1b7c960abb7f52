package domain

// KeyBlob is the result of reading a key: either Present with the stored
// bytes or Absent. The zero value is Absent.
//
// Bytes returns an empty slice for an absent key, which keeps the legacy
// "empty content means no key" convention available to callers that need it.
type KeyBlob struct {
	data    []byte
	present bool
}

// Present returns a KeyBlob holding data.
func Present(data []byte) KeyBlob {
	if data == nil {
		data = []byte{}
	}
	return KeyBlob{data: data, present: true}
}

// Absent returns a KeyBlob for a key that does not exist.
func Absent() KeyBlob {
	return KeyBlob{}
}

// IsPresent reports whether the key exists.
func (b KeyBlob) IsPresent() bool {
	return b.present
}

// Bytes returns the key content, or an empty slice when absent.
func (b KeyBlob) Bytes() []byte {
	if !b.present {
		return []byte{}
	}
	return b.data
}

// String returns the key content as a string, empty when absent.
func (b KeyBlob) String() string {
	return string(b.Bytes())
}
