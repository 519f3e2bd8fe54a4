// Package codec turns upload payloads into their stored form.
//
// In ciphertext mode the payload is stored as standard base64 text. Despite
// the name, nothing is encrypted. The mode is not recorded next to the value,
// so whoever reads a value back must know which mode it was stored with and
// call Decode themselves.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode is the value of the "encryption" upload field.
type Mode uint8

const (
	// Plaintext stores the payload unchanged. It is the default.
	Plaintext Mode = iota

	// Ciphertext stores the base64 encoding of the payload.
	Ciphertext
)

// String implements fmt.Stringer, returning the form field value.
func (m Mode) String() string {
	switch m {
	case Plaintext:
		return "plaintext"
	case Ciphertext:
		return "ciphertext"
	default:
		return "unknown mode"
	}
}

// ParseMode maps a form field value to a Mode. Matching is exact; the empty
// string is Plaintext and any other value is an error.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "plaintext":
		return Plaintext, nil
	case "ciphertext":
		return Ciphertext, nil
	default:
		return Plaintext, fmt.Errorf("%q: unknown encryption mode", s)
	}
}

// Apply returns the stored form of payload for the given mode.
func (m Mode) Apply(payload []byte) []byte {
	if m == Ciphertext {
		return Encode(payload)
	}
	return payload
}

// Encode returns the standard, padded base64 encoding of b.
func Encode(b []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out
}

// Decode reverses Encode and returns the result as text. Invalid UTF-8
// sequences are replaced with U+FFFD, so only text payloads survive a round
// trip unchanged.
func Decode(text []byte) (string, error) {
	b, err := DecodeBytes(text)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
}

// DecodeBytes reverses Encode without any text conversion. Surrounding white
// space is ignored.
func DecodeBytes(text []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(text))
	out, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	return out, nil
}
