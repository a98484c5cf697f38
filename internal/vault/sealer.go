package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sync"

	"github.com/aristath/roadscan/internal/domain"
)

// NonceSize is the GCM nonce length in bytes.
const NonceSize = 12

// Sealer encrypts and decrypts with one SessionKey. Safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD

	mu     sync.Mutex
	nonces io.Reader
	issued map[[NonceSize]byte]struct{}
}

// Option configures a Sealer.
type Option func(*Sealer)

// WithNonceSource replaces crypto/rand as the nonce source.
func WithNonceSource(r io.Reader) Option {
	return func(s *Sealer) {
		if r != nil {
			s.nonces = r
		}
	}
}

// NewSealer builds an AES-GCM sealer for key.
func NewSealer(key SessionKey, opts ...Option) (*Sealer, error) {
	if key.IsZero() {
		return nil, domain.Errorf(domain.KindCrypto, "new sealer", "uninitialised session key")
	}
	block, err := aes.NewCipher(key.b[:])
	if err != nil {
		return nil, domain.Wrap(domain.KindCrypto, "new sealer", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, domain.Wrap(domain.KindCrypto, "new sealer", err)
	}

	s := &Sealer{
		aead:   aead,
		nonces: rand.Reader,
		issued: make(map[[NonceSize]byte]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// nextNonce draws a fresh nonce and refuses any value already issued.
func (s *Sealer) nextNonce() ([NonceSize]byte, error) {
	var n [NonceSize]byte

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.ReadFull(s.nonces, n[:]); err != nil {
		return n, domain.Wrap(domain.KindCrypto, "nonce", err)
	}
	if _, dup := s.issued[n]; dup {
		return n, domain.Errorf(domain.KindCrypto, "nonce", "nonce reused within session")
	}
	s.issued[n] = struct{}{}
	return n, nil
}

// Seal returns base64(nonce || ciphertext || tag).
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce, err := s.nextNonce()
	if err != nil {
		return "", err
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+s.aead.Overhead())
	copy(out, nonce[:])
	out = s.aead.Seal(out, nonce[:], []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Tampering, truncation or a different key all fail with KindCrypto.
func (s *Sealer) Open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.Wrap(domain.KindCrypto, "open", err)
	}
	if len(raw) < NonceSize+s.aead.Overhead() {
		return "", domain.Errorf(domain.KindCrypto, "open", "ciphertext too short (%d bytes)", len(raw))
	}

	plain, err := s.aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", domain.Wrap(domain.KindCrypto, "open", err)
	}
	return string(plain), nil
}

// Issued returns how many nonces this sealer has handed out.
func (s *Sealer) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}

// CounterNonces is a deterministic nonce source: a big-endian 96-bit counter
// starting at Start. Not for production keys.
type CounterNonces struct {
	mu    sync.Mutex
	Start uint64
	n     uint64
}

// Read fills p with successive counter values, NonceSize bytes at a time.
func (c *CounterNonces) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	written := 0
	for written < len(p) {
		var block [NonceSize]byte
		binary.BigEndian.PutUint64(block[NonceSize-8:], c.Start+c.n)
		c.n++
		written += copy(p[written:], block[:])
	}
	return written, nil
}
