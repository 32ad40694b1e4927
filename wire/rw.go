package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/crypto/sharing"
	"github.com/quorumseal/quorumseal/crypto/symmetric"
)

// Hard caps encoded in prefix widths (and sanity limits for the unbounded
// fields).
const (
	MaxMembers  = 255 // members in a userset
	MaxUserSets = 255 // usersets per user
	MaxLookups  = 255 // pending lookups per user
	MaxPending  = 255 // pending to-decrypt per user
	MaxResults  = 255 // finished operations per user between drains

	maxStringLen = 1 << 16 // sanity cap on null-terminated strings
	maxBufferLen = 1 << 24 // sanity cap on u64-prefixed buffers
)

// ErrFrameTooLarge is returned when a length prefix exceeds the sanity cap.
var ErrFrameTooLarge = errors.New("wire: frame too large")

func writeU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// writeString writes UTF-8 bytes followed by a single zero byte.
func writeString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return writeU8(w, 0)
}

// readString reads bytes up to (and consuming) the zero terminator.
func readString(r io.Reader) (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := readU8(r)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		if len(buf) >= maxStringLen {
			return "", ErrFrameTooLarge
		}
		buf = append(buf, b)
	}
}

func writeUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

func readUUID(r io.Reader) (uuid.UUID, error) {
	var id uuid.UUID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return uuid.UUID{}, err
	}
	return id, nil
}

// writeBigInt writes a u16 length followed by the minimal big-endian bytes.
// A nil value encodes as length zero (None).
func writeBigInt(w io.Writer, v *big.Int) error {
	if v == nil {
		return writeU16(w, 0)
	}
	b := v.Bytes()
	if len(b) == 0 {
		// zero still occupies one byte so it is distinguishable from None
		b = []byte{0}
	}
	if err := writeU16(w, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readBigInt reads a u16-length-prefixed big-endian integer. Length zero
// yields nil (None).
func readBigInt(r io.Reader) (*big.Int, error) {
	n, err := readU16(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}

// writePoint writes the x coordinate as a BigInt (None for the identity,
// in which case no y follows), then the y coordinate.
func writePoint(w io.Writer, p ecc.Point) error {
	x, y := p.Point()
	if x == nil {
		return writeU16(w, 0)
	}
	if err := writeBigInt(w, x); err != nil {
		return err
	}
	return writeBigInt(w, y)
}

// readPoint reads a point on the curve of the prototype. The decoded
// coordinates are validated against the curve.
func readPoint(r io.Reader, curve ecc.Point) (ecc.Point, error) {
	p := curve.New()
	x, err := readBigInt(r)
	if err != nil {
		return nil, err
	}
	if x == nil {
		p.SetZero()
		return p, nil
	}
	y, err := readBigInt(r)
	if err != nil {
		return nil, err
	}
	if y == nil {
		return nil, fmt.Errorf("wire: point with x but no y")
	}
	if err := p.SetPoint(x, y); err != nil {
		return nil, err
	}
	return p, nil
}

func writeShard(w io.Writer, s sharing.Shard) error {
	if err := writeBigInt(w, s.ID); err != nil {
		return err
	}
	return writeBigInt(w, s.Value)
}

func readShard(r io.Reader) (sharing.Shard, error) {
	id, err := readBigInt(r)
	if err != nil {
		return sharing.Shard{}, err
	}
	value, err := readBigInt(r)
	if err != nil {
		return sharing.Shard{}, err
	}
	if id == nil || value == nil {
		return sharing.Shard{}, fmt.Errorf("wire: shard with missing id or value")
	}
	return sharing.Shard{ID: id, Value: value}, nil
}

// writeAESCiphertext writes both u64 half lengths, then the halves.
func writeAESCiphertext(w io.Writer, ct symmetric.Ciphertext) error {
	if err := writeU64(w, uint64(len(ct.Prefix))); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(ct.Body))); err != nil {
		return err
	}
	if _, err := w.Write(ct.Prefix); err != nil {
		return err
	}
	_, err := w.Write(ct.Body)
	return err
}

func readAESCiphertext(r io.Reader) (symmetric.Ciphertext, error) {
	prefixLen, err := readU64(r)
	if err != nil {
		return symmetric.Ciphertext{}, err
	}
	bodyLen, err := readU64(r)
	if err != nil {
		return symmetric.Ciphertext{}, err
	}
	if prefixLen > maxBufferLen || bodyLen > maxBufferLen {
		return symmetric.Ciphertext{}, ErrFrameTooLarge
	}
	ct := symmetric.Ciphertext{
		Prefix: make([]byte, prefixLen),
		Body:   make([]byte, bodyLen),
	}
	if _, err := io.ReadFull(r, ct.Prefix); err != nil {
		return symmetric.Ciphertext{}, err
	}
	if _, err := io.ReadFull(r, ct.Body); err != nil {
		return symmetric.Ciphertext{}, err
	}
	return ct, nil
}

func writeCiphertext(w io.Writer, ct *elgamal.Ciphertext) error {
	if err := writePoint(w, ct.C1); err != nil {
		return err
	}
	if err := writePoint(w, ct.C2); err != nil {
		return err
	}
	return writeAESCiphertext(w, ct.C3)
}

func readCiphertext(r io.Reader, curve ecc.Point) (*elgamal.Ciphertext, error) {
	c1, err := readPoint(r, curve)
	if err != nil {
		return nil, err
	}
	c2, err := readPoint(r, curve)
	if err != nil {
		return nil, err
	}
	c3, err := readAESCiphertext(r)
	if err != nil {
		return nil, err
	}
	return &elgamal.Ciphertext{C1: c1, C2: c2, C3: c3}, nil
}

// writeCount writes a u8 element count, rejecting vectors over the cap.
func writeCount(w io.Writer, n, max int, what string) error {
	if n > max {
		return fmt.Errorf("wire: too many %s: %d > %d", what, n, max)
	}
	return writeU8(w, uint8(n))
}

// The following helpers are exported for collaborators that persist domain
// types outside the packet stream (the client profile store).

// WritePoint writes a point in the canonical wire encoding.
func WritePoint(w io.Writer, p ecc.Point) error { return writePoint(w, p) }

// ReadPoint reads a point in the canonical wire encoding.
func ReadPoint(r io.Reader, curve ecc.Point) (ecc.Point, error) { return readPoint(r, curve) }

// WriteShard writes a shard in the canonical wire encoding.
func WriteShard(w io.Writer, s sharing.Shard) error { return writeShard(w, s) }

// ReadShard reads a shard in the canonical wire encoding.
func ReadShard(r io.Reader) (sharing.Shard, error) { return readShard(r) }

// WriteUUID writes a UUID as its 16 raw bytes.
func WriteUUID(w io.Writer, id uuid.UUID) error { return writeUUID(w, id) }

// ReadUUID reads a 16-byte UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) { return readUUID(r) }
