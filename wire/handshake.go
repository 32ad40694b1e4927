package wire

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/kdf"
)

// ErrBadProtocolVersion is returned when the peers disagree on the protocol
// version; both sides close the connection.
var ErrBadProtocolVersion = errors.New("wire: bad protocol version")

// Mode selects the codec flavor negotiated after the version exchange. Both
// peers must be configured with the same mode.
type Mode string

const (
	ModeInline    Mode = "inline"
	ModeEncrypted Mode = "encrypted"
)

// IsValidMode reports whether m names a known handshake mode.
func IsValidMode(m Mode) bool {
	return m == ModeInline || m == ModeEncrypted
}

// ServerHandshake runs the server side of the connection handshake: receive
// the client's version byte and acknowledge it, then, in encrypted mode, an
// ephemeral Diffie-Hellman over the curve to derive the session key.
func ServerHandshake(rw io.ReadWriter, curve ecc.Point, mode Mode) (Codec, error) {
	version, err := readU8(rw)
	if err != nil {
		return nil, fmt.Errorf("wire: reading protocol version: %w", err)
	}
	if version != ProtocolVersion {
		_ = writeU8(rw, 0)
		return nil, ErrBadProtocolVersion
	}
	if err := writeU8(rw, 1); err != nil {
		return nil, err
	}

	if mode == ModeInline {
		return NewInlineCodec(rw, curve), nil
	}

	gx, err := readPoint(rw, curve)
	if err != nil {
		return nil, fmt.Errorf("wire: key exchange: %w", err)
	}
	y, err := ecc.RandomScalar(curve.Order())
	if err != nil {
		return nil, err
	}
	gy := curve.New()
	gy.ScalarBaseMult(y)
	if err := writePoint(rw, gy); err != nil {
		return nil, fmt.Errorf("wire: key exchange: %w", err)
	}
	key, err := sessionKey(gx, y)
	if err != nil {
		return nil, err
	}
	return NewEncryptedCodec(rw, curve, key), nil
}

// ClientHandshake runs the client side of the connection handshake.
func ClientHandshake(rw io.ReadWriter, curve ecc.Point, mode Mode) (Codec, error) {
	if err := writeU8(rw, ProtocolVersion); err != nil {
		return nil, err
	}
	ok, err := readU8(rw)
	if err != nil {
		return nil, fmt.Errorf("wire: reading version ack: %w", err)
	}
	if ok == 0 {
		return nil, ErrBadProtocolVersion
	}

	if mode == ModeInline {
		return NewInlineCodec(rw, curve), nil
	}

	x, err := ecc.RandomScalar(curve.Order())
	if err != nil {
		return nil, err
	}
	gx := curve.New()
	gx.ScalarBaseMult(x)
	if err := writePoint(rw, gx); err != nil {
		return nil, fmt.Errorf("wire: key exchange: %w", err)
	}
	gy, err := readPoint(rw, curve)
	if err != nil {
		return nil, fmt.Errorf("wire: key exchange: %w", err)
	}
	key, err := sessionKey(gy, x)
	if err != nil {
		return nil, err
	}
	return NewEncryptedCodec(rw, curve, key), nil
}

// sessionKey derives the AES session key from the shared DH secret: the
// peer's public point raised to the local exponent.
func sessionKey(peer ecc.Point, exp *big.Int) ([]byte, error) {
	shared := peer.New()
	shared.ScalarMult(peer, exp)
	return kdf.NewECHKDF1L().Derive(shared)
}
