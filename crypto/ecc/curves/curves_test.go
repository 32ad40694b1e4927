package curves

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumseal/quorumseal/crypto/ecc"
)

func TestRegistry(t *testing.T) {
	for _, typ := range Curves() {
		require.True(t, IsValid(typ))
		p := New(typ)
		require.Equal(t, typ, p.Type())
		require.True(t, p.IsZero())
	}
	require.False(t, IsValid("ed25519"))
	require.Panics(t, func() { New("ed25519") })
}

func TestGroupLaws(t *testing.T) {
	for _, typ := range Curves() {
		t.Run(typ, func(t *testing.T) {
			curve := New(typ)

			g := curve.New()
			g.SetGenerator()
			identity := curve.New()

			// identity * P = P
			sum := curve.New()
			sum.Add(identity, g)
			require.True(t, sum.Equal(g))
			sum.Add(g, identity)
			require.True(t, sum.Equal(g))

			// P * P^-1 = identity
			inv := curve.New()
			inv.Neg(g)
			sum.Add(g, inv)
			require.True(t, sum.IsZero())

			// identity^-1 = identity
			inv.Neg(identity)
			require.True(t, inv.IsZero())

			// doubling matches scalar multiplication by 2
			double := curve.New()
			double.Add(g, g)
			byTwo := curve.New()
			byTwo.ScalarMult(g, big.NewInt(2))
			require.True(t, double.Equal(byTwo))

			// exponent zero and exponent order yield the identity
			zero := curve.New()
			zero.ScalarMult(g, big.NewInt(0))
			require.True(t, zero.IsZero())
			zero.ScalarMult(g, curve.Order())
			require.True(t, zero.IsZero())

			// negative exponent is the inverse of the positive one
			k := big.NewInt(12345)
			pos := curve.New()
			pos.ScalarMult(g, k)
			neg := curve.New()
			neg.ScalarMult(g, new(big.Int).Neg(k))
			posInv := curve.New()
			posInv.Neg(pos)
			require.True(t, neg.Equal(posInv))

			// exponent laws: g^a * g^b = g^(a+b)
			a, err := ecc.RandomScalar(curve.Order())
			require.NoError(t, err)
			b, err := ecc.RandomScalar(curve.Order())
			require.NoError(t, err)
			ga := curve.New()
			ga.ScalarBaseMult(a)
			gb := curve.New()
			gb.ScalarBaseMult(b)
			gab := curve.New()
			gab.Add(ga, gb)
			expected := curve.New()
			expected.ScalarBaseMult(new(big.Int).Add(a, b))
			require.True(t, gab.Equal(expected))

			// ScalarBaseMult agrees with ScalarMult on the generator
			viaG := curve.New()
			viaG.ScalarMult(g, a)
			require.True(t, viaG.Equal(ga))
		})
	}
}

func TestCoordinatesRoundTrip(t *testing.T) {
	for _, typ := range Curves() {
		t.Run(typ, func(t *testing.T) {
			curve := New(typ)

			// identity round-trips through (nil, nil)
			x, y := curve.New().Point()
			require.Nil(t, x)
			require.Nil(t, y)
			back := curve.New()
			require.NoError(t, back.SetPoint(nil, nil))
			require.True(t, back.IsZero())

			for i := 0; i < 100; i++ {
				p, err := ecc.Sample(curve)
				require.NoError(t, err)
				x, y := p.Point()
				q := curve.New()
				require.NoError(t, q.SetPoint(x, y))
				require.True(t, q.Equal(p))
			}
		})
	}
}

func TestSetPointRejectsOffCurve(t *testing.T) {
	for _, typ := range Curves() {
		curve := New(typ)
		p := curve.New()
		require.Error(t, p.SetPoint(big.NewInt(1), big.NewInt(1)))
		require.Error(t, p.SetPoint(big.NewInt(7), nil))
	}
}

func TestRandomShardID(t *testing.T) {
	curve := New(DefaultCurveType)
	for i := 0; i < 100; i++ {
		id, err := ecc.RandomShardID(curve.Order())
		require.NoError(t, err)
		require.True(t, id.Sign() > 0)
		require.True(t, id.Cmp(curve.Order()) < 0)
	}
}
