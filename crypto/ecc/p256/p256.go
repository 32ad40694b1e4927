// Package p256 implements the ecc.Point interface over the NIST P-256
// (secp256r1) curve using the standard library curve parameters. This is the
// default curve of the scheme.
package p256

import (
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/quorumseal/quorumseal/crypto/ecc"
)

// CurveType is the identifier for the P-256 curve implementation.
const CurveType = "p256"

var params = elliptic.P256().Params()

// P256 is an affine P-256 point. A nil X marks the identity element.
type P256 struct {
	x, y *big.Int
}

var _ ecc.Point = (*P256)(nil)

// New creates a new identity point.
func (p *P256) New() ecc.Point {
	return &P256{}
}

// Order returns the order of the P-256 group.
func (p *P256) Order() *big.Int {
	return new(big.Int).Set(params.N)
}

func (p *P256) SetGenerator() {
	p.x = new(big.Int).Set(params.Gx)
	p.y = new(big.Int).Set(params.Gy)
}

func (p *P256) SetZero() {
	p.x, p.y = nil, nil
}

func (p *P256) Set(a ecc.Point) {
	ax, ay := a.Point()
	if ax == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(ax)
	p.y = new(big.Int).Set(ay)
}

func (p *P256) Add(a, b ecc.Point) {
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
		p.x, p.y = params.Double(ax, ay)
	default:
		p.x, p.y = params.Add(ax, ay, bx, by)
	}
}

func (p *P256) Neg(a ecc.Point) {
	ax, ay := a.Point()
	if ax == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(ax)
	p.y = new(big.Int).Sub(params.P, ay)
	p.y.Mod(p.y, params.P)
}

func (p *P256) ScalarMult(a ecc.Point, k *big.Int) {
	ax, ay := a.Point()
	red := new(big.Int).Mod(k, params.N)
	if ax == nil || red.Sign() == 0 {
		p.SetZero()
		return
	}
	p.x, p.y = params.ScalarMult(ax, ay, red.Bytes())
}

func (p *P256) ScalarBaseMult(k *big.Int) {
	red := new(big.Int).Mod(k, params.N)
	if red.Sign() == 0 {
		p.SetZero()
		return
	}
	p.x, p.y = params.ScalarBaseMult(red.Bytes())
}

func (p *P256) Equal(a ecc.Point) bool {
	ax, ay := a.Point()
	if p.x == nil || ax == nil {
		return p.x == nil && ax == nil
	}
	return p.x.Cmp(ax) == 0 && p.y.Cmp(ay) == 0
}

func (p *P256) IsZero() bool {
	return p.x == nil
}

func (p *P256) Point() (x, y *big.Int) {
	if p.x == nil {
		return nil, nil
	}
	return new(big.Int).Set(p.x), new(big.Int).Set(p.y)
}

func (p *P256) SetPoint(x, y *big.Int) error {
	if x == nil && y == nil {
		p.SetZero()
		return nil
	}
	if x == nil || y == nil {
		return fmt.Errorf("p256: half-set coordinates")
	}
	if !params.IsOnCurve(x, y) {
		return fmt.Errorf("p256: point (%s, %s) is not on the curve", x, y)
	}
	p.x = new(big.Int).Set(x)
	p.y = new(big.Int).Set(y)
	return nil
}

func (p *P256) Type() string {
	return CurveType
}

func (p *P256) String() string {
	if p.IsZero() {
		return "p256(identity)"
	}
	return fmt.Sprintf("p256(%s, %s)", p.x, p.y)
}

func (p *P256) setCoords(x, y *big.Int) {
	if x == nil {
		p.SetZero()
		return
	}
	p.x = new(big.Int).Set(x)
	p.y = new(big.Int).Set(y)
}
