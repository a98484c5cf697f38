// Package vault seals assessment text with a per-run AES-128-GCM session key.
package vault

import (
	"crypto/rand"
	"io"

	"github.com/aristath/roadscan/internal/domain"
)

// KeySize is the session key length in bytes (AES-128).
const KeySize = 16

// SessionKey is the symmetric key for one run. It lives only in memory.
type SessionKey struct {
	b [KeySize]byte
}

// NewSessionKey reads KeySize bytes from r, or from crypto/rand when r is nil.
func NewSessionKey(r io.Reader) (SessionKey, error) {
	if r == nil {
		r = rand.Reader
	}
	var k SessionKey
	if _, err := io.ReadFull(r, k.b[:]); err != nil {
		return SessionKey{}, domain.Wrap(domain.KindCrypto, "generate session key", err)
	}
	return k, nil
}

// SessionKeyFromBytes builds a key from raw material.
func SessionKeyFromBytes(b []byte) (SessionKey, error) {
	var k SessionKey
	if len(b) != KeySize {
		return k, domain.Errorf(domain.KindCrypto, "session key", "need %d bytes, got %d", KeySize, len(b))
	}
	copy(k.b[:], b)
	return k, nil
}

// IsZero reports whether the key was never initialised.
func (k SessionKey) IsZero() bool {
	return k.b == [KeySize]byte{}
}

// String never prints key material.
func (k SessionKey) String() string {
	return "SessionKey(redacted)"
}

// GoString keeps %#v from leaking the key.
func (k SessionKey) GoString() string {
	return k.String()
}

// MarshalText keeps the key out of JSON and text encoders.
func (k SessionKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
