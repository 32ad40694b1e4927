// Package ecc defines the elliptic curve group abstraction used by the
// encryption scheme. Implementations live in subpackages and are constructed
// through the curves registry.
package ecc

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Point represents an element of a prime-order elliptic curve group. The
// zero element (point at infinity) is the group identity. Implementations
// are mutable: operations store their result in the receiver.
type Point interface {
	// New returns a new identity point on the same curve.
	New() Point

	// Order returns the order of the group.
	Order() *big.Int

	// SetGenerator sets the receiver to the curve base point.
	SetGenerator()

	// SetZero sets the receiver to the identity element.
	SetZero()

	// Set copies a into the receiver.
	Set(a Point)

	// Add stores a+b in the receiver.
	Add(a, b Point)

	// Neg stores the group inverse of a in the receiver.
	Neg(a Point)

	// ScalarMult stores k*a in the receiver. k may be any integer; it is
	// reduced modulo the group order, so a negative k yields the inverse of
	// |k|*a and a multiple of the order yields the identity.
	ScalarMult(a Point, k *big.Int)

	// ScalarBaseMult stores k*G in the receiver.
	ScalarBaseMult(k *big.Int)

	// Equal reports whether the receiver and a are the same group element.
	Equal(a Point) bool

	// IsZero reports whether the receiver is the identity element.
	IsZero() bool

	// Point returns the affine coordinates of the receiver, or (nil, nil)
	// for the identity.
	Point() (x, y *big.Int)

	// SetPoint sets the receiver from affine coordinates, validating that
	// they lie on the curve. Passing (nil, nil) sets the identity.
	SetPoint(x, y *big.Int) error

	// Type returns the curve type identifier.
	Type() string

	String() string
}

// RandomScalar returns a uniformly random scalar in [0, order).
func RandomScalar(order *big.Int) (*big.Int, error) {
	k, err := rand.Int(rand.Reader, order)
	if err != nil {
		return nil, fmt.Errorf("cannot sample scalar: %w", err)
	}
	return k, nil
}

// RandomShardID returns a uniformly random scalar in [1, order). Shard ids
// must be non-zero: evaluating the sharing polynomial at zero would hand out
// the secret itself.
func RandomShardID(order *big.Int) (*big.Int, error) {
	bound := new(big.Int).Sub(order, big.NewInt(1))
	k, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return nil, fmt.Errorf("cannot sample shard id: %w", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}

// Sample returns a uniformly random group element k*G for fresh k, on the
// same curve as p.
func Sample(p Point) (Point, error) {
	k, err := RandomScalar(p.Order())
	if err != nil {
		return nil, err
	}
	r := p.New()
	r.ScalarBaseMult(k)
	return r, nil
}
