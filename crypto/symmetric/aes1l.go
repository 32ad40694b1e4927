// Package symmetric implements the one-layer symmetric scheme (AES1L) used
// as the inner layer of the hybrid encryption and for the encrypted packet
// codec. Ciphertexts are a (prefix, body) pair: the prefix carries the
// nonce, the body the sealed payload.
package symmetric

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// KeySize is the AES key size in bytes.
const KeySize = 16

// ErrDecrypt is returned when a ciphertext fails to authenticate.
var ErrDecrypt = errors.New("symmetric: decryption failed")

// Ciphertext is an AES1L ciphertext: two independently transmitted halves.
type Ciphertext struct {
	Prefix []byte
	Body   []byte
}

// GenerateKey returns a fresh random AES1L key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cannot generate key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("symmetric: bad key: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts the plaintext under the key with a fresh nonce.
func Encrypt(plaintext, key []byte) (Ciphertext, error) {
	aead, err := newGCM(key)
	if err != nil {
		return Ciphertext{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Ciphertext{}, fmt.Errorf("cannot generate nonce: %w", err)
	}
	return Ciphertext{
		Prefix: nonce,
		Body:   aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt reverses Encrypt under the same key. Any tampering with either
// half yields ErrDecrypt.
func Decrypt(ct Ciphertext, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ct.Prefix) != aead.NonceSize() {
		return nil, ErrDecrypt
	}
	plaintext, err := aead.Open(nil, ct.Prefix, ct.Body, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	// Open yields nil for an empty plaintext; return an empty slice instead.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
