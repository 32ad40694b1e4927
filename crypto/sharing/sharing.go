// Package sharing implements Shamir secret sharing of ElGamal private
// scalars and the threshold decryption protocol on top of it: per-shard
// partial decryption parts and their Lagrange-weighted combination into the
// layer's shared secret point.
package sharing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/quorumseal/quorumseal/crypto/ecc"
)

var (
	// ErrZeroShardID is returned for a shard id of zero, which would
	// evaluate the polynomial at its secret constant term.
	ErrZeroShardID = errors.New("sharing: shard id is zero")

	// ErrDuplicateShardID is returned when a reconstruction set contains
	// the same shard id twice.
	ErrDuplicateShardID = errors.New("sharing: duplicate shard id")
)

// Shard is one member's evaluation of the sharing polynomial: the id is the
// evaluation point, the value is f(id).
type Shard struct {
	ID    *big.Int
	Value *big.Int
}

// NewShardIDs samples n distinct shard ids, uniform over [1, order).
func NewShardIDs(n int, order *big.Int) ([]*big.Int, error) {
	ids := make([]*big.Int, 0, n)
	seen := make(map[string]bool, n)
	for len(ids) < n {
		id, err := ecc.RandomShardID(order)
		if err != nil {
			return nil, err
		}
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Share splits secret at the given threshold among the given shard ids: it
// samples a random polynomial of degree threshold over Z_order with constant
// term secret, and evaluates it at each id. Any threshold+1 of the returned
// shards reconstruct the secret; the polynomial itself is discarded.
func Share(secret *big.Int, threshold int, ids []*big.Int, order *big.Int) ([]Shard, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}

	// coeffs[0] = secret, coeffs[1..threshold] random
	coeffs := make([]*big.Int, threshold+1)
	coeffs[0] = new(big.Int).Mod(secret, order)
	for i := 1; i <= threshold; i++ {
		c, err := ecc.RandomScalar(order)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}

	shards := make([]Shard, len(ids))
	for i, id := range ids {
		shards[i] = Shard{
			ID:    new(big.Int).Set(id),
			Value: evalPoly(coeffs, id, order),
		}
	}
	return shards, nil
}

// evalPoly evaluates the polynomial at x over Z_order by Horner's rule.
func evalPoly(coeffs []*big.Int, x, order *big.Int) *big.Int {
	res := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		res.Mul(res, x)
		res.Add(res, coeffs[i])
		res.Mod(res, order)
	}
	return res
}

// LagrangeCoefficient computes the Lagrange basis coefficient at x=0 for the
// shard id within the reconstruction set ids:
//
//	λ_id = Π_{j ≠ id} (-id_j) / (id - id_j)  (mod order)
func LagrangeCoefficient(id *big.Int, ids []*big.Int, order *big.Int) (*big.Int, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	num := big.NewInt(1)
	den := big.NewInt(1)
	for _, j := range ids {
		if j.Cmp(id) == 0 {
			continue
		}
		t := new(big.Int).Neg(j)
		t.Mod(t, order)
		num.Mul(num, t)
		num.Mod(num, order)

		t = new(big.Int).Sub(id, j)
		t.Mod(t, order)
		den.Mul(den, t)
		den.Mod(den, order)
	}
	denInv := new(big.Int).ModInverse(den, order)
	if denInv == nil {
		return nil, fmt.Errorf("sharing: no inverse for lagrange denominator %s mod %s", den, order)
	}
	num.Mul(num, denInv)
	return num.Mod(num, order), nil
}

// ComputePart computes the partial decryption the holder of the shard
// contributes for one ciphertext layer point, given the full reconstruction
// set of that layer: cl^(value · λ_id). The shard's own id must be a member
// of ids.
func ComputePart(cl ecc.Point, shard Shard, ids []*big.Int) (ecc.Point, error) {
	found := false
	for _, id := range ids {
		if id.Cmp(shard.ID) == 0 {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("sharing: shard id %s not in reconstruction set", shard.ID)
	}
	lambda, err := LagrangeCoefficient(shard.ID, ids, cl.Order())
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).Mul(shard.Value, lambda)
	exp.Mod(exp, cl.Order())
	part := cl.New()
	part.ScalarMult(cl, exp)
	return part, nil
}

// JoinParts multiplies the per-shard parts of one layer into the layer's
// shared secret point cl^secret.
func JoinParts(parts []ecc.Point) (ecc.Point, error) {
	if len(parts) == 0 {
		return nil, errors.New("sharing: no parts to join")
	}
	res := parts[0].New()
	for _, p := range parts {
		res.Add(res, p)
	}
	return res, nil
}

// Recover reconstructs the shared secret scalar from the given shards by
// Lagrange interpolation at x=0. The decryption protocol never does this
// (parts are combined in the exponent); it exists for key escrow and tests.
func Recover(shards []Shard, order *big.Int) (*big.Int, error) {
	ids := make([]*big.Int, len(shards))
	for i, s := range shards {
		ids[i] = s.ID
	}
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	res := new(big.Int)
	for _, s := range shards {
		lambda, err := LagrangeCoefficient(s.ID, ids, order)
		if err != nil {
			return nil, err
		}
		t := new(big.Int).Mul(s.Value, lambda)
		res.Add(res, t)
		res.Mod(res, order)
	}
	return res, nil
}

func checkIDs(ids []*big.Int) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id.Sign() == 0 {
			return ErrZeroShardID
		}
		if seen[id.String()] {
			return ErrDuplicateShardID
		}
		seen[id.String()] = true
	}
	return nil
}
