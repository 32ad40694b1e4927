package elgamal

import (
	"crypto/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := qt.New(t)

	for _, curveType := range curves.Curves() {
		c.Run(curveType, func(c *qt.C) {
			curve := curves.New(curveType)

			pub1, priv1, err := GenerateKey(curve)
			c.Assert(err, qt.IsNil)
			pub2, priv2, err := GenerateKey(curve)
			c.Assert(err, qt.IsNil)

			for _, size := range []int{0, 1, 11, 256, 1000} {
				msg := make([]byte, size)
				_, err := rand.Read(msg)
				c.Assert(err, qt.IsNil)

				ct, err := Encrypt(msg, pub1, pub2)
				c.Assert(err, qt.IsNil)
				back, err := Decrypt(ct, priv1, priv2)
				c.Assert(err, qt.IsNil)
				c.Assert(back, qt.DeepEquals, msg)
			}
		})
	}
}

func TestDecryptRequiresBothKeys(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)

	pub1, priv1, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	pub2, priv2, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)

	ct, err := Encrypt([]byte("Hello There"), pub1, pub2)
	c.Assert(err, qt.IsNil)

	// swapping the keys, or using only one correct key, must fail
	_, err = Decrypt(ct, priv2, priv1)
	c.Assert(err, qt.IsNotNil)
	_, otherPriv, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	_, err = Decrypt(ct, priv1, otherPriv)
	c.Assert(err, qt.IsNotNil)
	_, err = Decrypt(ct, otherPriv, priv2)
	c.Assert(err, qt.IsNotNil)
}

func TestDecryptWithSecrets(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)

	pub1, priv1, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	pub2, priv2, err := GenerateKey(curve)
	c.Assert(err, qt.IsNil)

	msg := []byte("the shared secret path must agree with plain decryption")
	ct, err := Encrypt(msg, pub1, pub2)
	c.Assert(err, qt.IsNil)

	z1 := ct.C1.New()
	z1.ScalarMult(ct.C1, priv1)
	z2 := ct.C2.New()
	z2.ScalarMult(ct.C2, priv2)

	back, err := DecryptWithSecrets(ct, z1, z2)
	c.Assert(err, qt.IsNil)
	c.Assert(back, qt.DeepEquals, msg)
}

func TestEncryptCurveMismatch(t *testing.T) {
	c := qt.New(t)

	pub1, _, err := GenerateKey(curves.New("p256"))
	c.Assert(err, qt.IsNil)
	pub2, _, err := GenerateKey(curves.New("secp256k1"))
	c.Assert(err, qt.IsNil)

	_, err = Encrypt([]byte("x"), pub1, pub2)
	c.Assert(err, qt.Equals, ErrCurveMismatch)
}
