// Package kdf derives AES1L keys from elliptic curve elements via
// HKDF-SHA-256, and profile-at-rest keys via PBKDF2-SHA-256.
package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/symmetric"
)

const (
	// DefaultIKMSize is the input keying material size for the one-element
	// derivation.
	DefaultIKMSize = 64

	// DefaultIKMEachSize is the per-element input keying material size for
	// the two-element derivation.
	DefaultIKMEachSize = 32
)

// DefaultSalt is the fixed HKDF salt shared by both derivations.
var DefaultSalt = []byte{4, 3, 5}

// ECHKDF1L derives AES1L keys from a single curve element.
type ECHKDF1L struct {
	IKMSize int
	Salt    []byte
}

// NewECHKDF1L returns a derivation with default parameters.
func NewECHKDF1L() ECHKDF1L {
	return ECHKDF1L{IKMSize: DefaultIKMSize, Salt: DefaultSalt}
}

// Derive derives an AES1L key from the x-coordinate of p, left-padded with
// zeros to the IKM size.
func (k ECHKDF1L) Derive(p ecc.Point) ([]byte, error) {
	ikm := make([]byte, k.IKMSize)
	if err := encodeX(ikm, p); err != nil {
		return nil, err
	}
	return expand(ikm, k.Salt)
}

// ECHKDF2L derives AES1L keys from a pair of curve elements.
type ECHKDF2L struct {
	IKMEachSize int
	Salt        []byte
}

// NewECHKDF2L returns a derivation with default parameters.
func NewECHKDF2L() ECHKDF2L {
	return ECHKDF2L{IKMEachSize: DefaultIKMEachSize, Salt: DefaultSalt}
}

// Derive derives an AES1L key from the x-coordinates of a and b, each
// left-padded with zeros to the per-element IKM size and concatenated.
func (k ECHKDF2L) Derive(a, b ecc.Point) ([]byte, error) {
	ikm := make([]byte, 2*k.IKMEachSize)
	if err := encodeX(ikm[:k.IKMEachSize], a); err != nil {
		return nil, err
	}
	if err := encodeX(ikm[k.IKMEachSize:], b); err != nil {
		return nil, err
	}
	return expand(ikm, k.Salt)
}

// encodeX writes the minimal big-endian x-coordinate of p into the tail of
// dst. The identity element encodes as all zeros.
func encodeX(dst []byte, p ecc.Point) error {
	x, _ := p.Point()
	if x == nil {
		return nil
	}
	b := x.Bytes()
	if len(b) > len(dst) {
		return fmt.Errorf("kdf: x-coordinate does not fit in %d-byte IKM", len(dst))
	}
	copy(dst[len(dst)-len(b):], b)
	return nil
}

func expand(ikm, salt []byte) ([]byte, error) {
	key := make([]byte, symmetric.KeySize)
	r := hkdf.New(sha256.New, ikm, salt, nil)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("kdf: %w", err)
	}
	return key, nil
}

// PBKDF2Key derives an AES1L key of the given length from a username and
// password, with the caller-supplied iteration count. It backs the client
// profile encryption at rest.
func PBKDF2Key(username, password string, iterations, keyLen int) []byte {
	return pbkdf2.Key([]byte(password), []byte(username), iterations, keyLen, sha256.New)
}
