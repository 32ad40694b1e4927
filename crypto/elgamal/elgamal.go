// Package elgamal implements the two-layer hybrid ElGamal scheme: two
// independent ElGamal key pairs over the same curve, composed with AES1L
// under an HKDF-derived session key. Decrypting requires both private keys
// (or enough Shamir shards of each; see the sharing package).
package elgamal

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/kdf"
	"github.com/quorumseal/quorumseal/crypto/symmetric"
)

// ErrCurveMismatch is returned when the two public keys live on different
// curves.
var ErrCurveMismatch = errors.New("elgamal: public keys on different curves")

// Ciphertext is a two-layer hybrid ciphertext: C1 = r1*G, C2 = r2*G and
// C3 = AES1L(m) under ECHKDF2L(r1*pub1, r2*pub2).
type Ciphertext struct {
	C1, C2 ecc.Point
	C3     symmetric.Ciphertext
}

// GenerateKey generates a key pair on the curve of the given point:
// a uniform private scalar and the base point raised to it.
func GenerateKey(curve ecc.Point) (ecc.Point, *big.Int, error) {
	priv, err := ecc.RandomScalar(curve.Order())
	if err != nil {
		return nil, nil, fmt.Errorf("elgamal: keygen: %w", err)
	}
	pub := curve.New()
	pub.ScalarBaseMult(priv)
	return pub, priv, nil
}

// Encrypt encrypts msg to the two public keys with fresh per-encryption
// randomness.
func Encrypt(msg []byte, pub1, pub2 ecc.Point) (*Ciphertext, error) {
	if pub1.Type() != pub2.Type() {
		return nil, ErrCurveMismatch
	}
	order := pub1.Order()
	r1, err := ecc.RandomScalar(order)
	if err != nil {
		return nil, err
	}
	r2, err := ecc.RandomScalar(order)
	if err != nil {
		return nil, err
	}

	c1 := pub1.New()
	c1.ScalarBaseMult(r1)
	c2 := pub2.New()
	c2.ScalarBaseMult(r2)

	z1 := pub1.New()
	z1.ScalarMult(pub1, r1)
	z2 := pub2.New()
	z2.ScalarMult(pub2, r2)

	key, err := kdf.NewECHKDF2L().Derive(z1, z2)
	if err != nil {
		return nil, err
	}
	c3, err := symmetric.Encrypt(msg, key)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{C1: c1, C2: c2, C3: c3}, nil
}

// Decrypt reverses Encrypt with the two private keys. The shared secret of
// each layer is Ci^privi = pubi^ri.
func Decrypt(ct *Ciphertext, priv1, priv2 *big.Int) ([]byte, error) {
	z1 := ct.C1.New()
	z1.ScalarMult(ct.C1, priv1)
	z2 := ct.C2.New()
	z2.ScalarMult(ct.C2, priv2)
	return DecryptWithSecrets(ct, z1, z2)
}

// DecryptWithSecrets decrypts with the already-reconstructed shared secret
// points of the two layers, as produced by joining threshold decryption
// parts.
func DecryptWithSecrets(ct *Ciphertext, z1, z2 ecc.Point) ([]byte, error) {
	key, err := kdf.NewECHKDF2L().Derive(z1, z2)
	if err != nil {
		return nil, err
	}
	return symmetric.Decrypt(ct.C3, key)
}
