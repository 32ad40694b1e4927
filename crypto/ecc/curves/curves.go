// Package curves is the registry of supported curve implementations.
package curves

import (
	"slices"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/ecc/p256"
	"github.com/quorumseal/quorumseal/crypto/ecc/secp256k1"
)

// DefaultCurveType is the curve used when none is configured.
const DefaultCurveType = p256.CurveType

// New creates a new identity point of the given curve type. It panics on an
// unsupported type; use IsValid to check beforehand.
func New(curveType string) ecc.Point {
	switch curveType {
	case p256.CurveType:
		return &p256.P256{}
	case secp256k1.CurveType:
		return &secp256k1.Secp256k1{}
	default:
		panic("unsupported curve type: " + curveType)
	}
}

// Curves returns the list of supported curve types.
func Curves() []string {
	return []string{p256.CurveType, secp256k1.CurveType}
}

// IsValid reports whether the given curve type is supported.
func IsValid(curveType string) bool {
	return slices.Contains(Curves(), curveType)
}
