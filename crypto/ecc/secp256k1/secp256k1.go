// Package secp256k1 implements the ecc.Point interface over the secp256k1
// curve, wrapping the dcrec implementation.
package secp256k1

import (
	"fmt"
	"math/big"

	dcrec "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/quorumseal/quorumseal/crypto/ecc"
)

// CurveType is the identifier for the secp256k1 curve implementation.
const CurveType = "secp256k1"

var curve = dcrec.S256()

// Secp256k1 is an affine secp256k1 point. A nil X marks the identity.
type Secp256k1 struct {
	x, y *big.Int
}

var _ ecc.Point = (*Secp256k1)(nil)

// New creates a new identity point.
func (p *Secp256k1) New() ecc.Point {
	return &Secp256k1{}
}

// Order returns the order of the secp256k1 group.
func (p *Secp256k1) Order() *big.Int {
	return new(big.Int).Set(curve.Params().N)
}

func (p *Secp256k1) SetGenerator() {
	p.x = new(big.Int).Set(curve.Params().Gx)
	p.y = new(big.Int).Set(curve.Params().Gy)
}

func (p *Secp256k1) SetZero() {
	p.x, p.y = nil, nil
}

func (p *Secp256k1) Set(a ecc.Point) {
	ax, ay := a.Point()
	if ax == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(ax)
	p.y = new(big.Int).Set(ay)
}

func (p *Secp256k1) Add(a, b ecc.Point) {
	ax, ay := a.Point()
	bx, by := b.Point()
	switch {
	case ax == nil:
		p.setCoords(bx, by)
	case bx == nil:
		p.setCoords(ax, ay)
	case ax.Cmp(bx) == 0 && ay.Cmp(by) != 0:
		// a == -b
		p.SetZero()
	case ax.Cmp(bx) == 0:
		p.x, p.y = curve.Double(ax, ay)
	default:
		p.x, p.y = curve.Add(ax, ay, bx, by)
	}
}

func (p *Secp256k1) Neg(a ecc.Point) {
	ax, ay := a.Point()
	if ax == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(ax)
	p.y = new(big.Int).Sub(curve.Params().P, ay)
	p.y.Mod(p.y, curve.Params().P)
}

func (p *Secp256k1) ScalarMult(a ecc.Point, k *big.Int) {
	ax, ay := a.Point()
	red := new(big.Int).Mod(k, curve.Params().N)
	if ax == nil || red.Sign() == 0 {
		p.SetZero()
		return
	}
	p.x, p.y = curve.ScalarMult(ax, ay, red.Bytes())
}

func (p *Secp256k1) ScalarBaseMult(k *big.Int) {
	red := new(big.Int).Mod(k, curve.Params().N)
	if red.Sign() == 0 {
		p.SetZero()
		return
	}
	p.x, p.y = curve.ScalarBaseMult(red.Bytes())
}

func (p *Secp256k1) Equal(a ecc.Point) bool {
	ax, ay := a.Point()
	if p.x == nil || ax == nil {
		return p.x == nil && ax == nil
	}
	return p.x.Cmp(ax) == 0 && p.y.Cmp(ay) == 0
}

func (p *Secp256k1) IsZero() bool {
	return p.x == nil
}

func (p *Secp256k1) Point() (x, y *big.Int) {
	if p.x == nil {
		return nil, nil
	}
	return new(big.Int).Set(p.x), new(big.Int).Set(p.y)
}

func (p *Secp256k1) SetPoint(x, y *big.Int) error {
	if x == nil && y == nil {
		p.SetZero()
		return nil
	}
	if x == nil || y == nil {
		return fmt.Errorf("secp256k1: half-set coordinates")
	}
	if !curve.IsOnCurve(x, y) {
		return fmt.Errorf("secp256k1: point (%s, %s) is not on the curve", x, y)
	}
	p.x = new(big.Int).Set(x)
	p.y = new(big.Int).Set(y)
	return nil
}

func (p *Secp256k1) Type() string {
	return CurveType
}

func (p *Secp256k1) String() string {
	if p.IsZero() {
		return "secp256k1(identity)"
	}
	return fmt.Sprintf("secp256k1(%s, %s)", p.x, p.y)
}

func (p *Secp256k1) setCoords(x, y *big.Int) {
	if x == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(x)
	p.y = new(big.Int).Set(y)
}
