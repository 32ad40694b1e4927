package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/kdf"
	"github.com/quorumseal/quorumseal/crypto/sharing"
	"github.com/quorumseal/quorumseal/crypto/symmetric"
	"github.com/quorumseal/quorumseal/wire"
)

// PBKDF2Iterations is the work factor of the profile key derivation.
const PBKDF2Iterations = 600_000

// ErrBadPassphrase is returned when a profile record fails to decrypt.
var ErrBadPassphrase = errors.New("client: cannot decrypt profile, wrong username or password")

// ProfileRecord is a user's locally stored view of one userset: its id, the
// two public keys, and the user's shards. Non-owners hold only a reg-layer
// shard.
type ProfileRecord struct {
	UserSetID uuid.UUID
	PubReg    ecc.Point
	PubOwn    ecc.Point
	RegShard  sharing.Shard
	OwnShard  *sharing.Shard // nil for non-owners
}

// IsOwner reports whether the record is an owner record.
func (r *ProfileRecord) IsOwner() bool {
	return r.OwnShard != nil
}

const flagOwner uint8 = 1

// encode serializes the record plaintext: flags, userset id, the two public
// keys, the reg shard and (for owners) the owner shard. Shard widths come
// from the canonical big-int encoding, so they follow the curve order.
func (r *ProfileRecord) encode() ([]byte, error) {
	var buf bytes.Buffer
	var flags uint8
	if r.IsOwner() {
		flags |= flagOwner
	}
	buf.WriteByte(flags)
	if err := wire.WriteUUID(&buf, r.UserSetID); err != nil {
		return nil, err
	}
	if err := wire.WritePoint(&buf, r.PubReg); err != nil {
		return nil, err
	}
	if err := wire.WritePoint(&buf, r.PubOwn); err != nil {
		return nil, err
	}
	if err := wire.WriteShard(&buf, r.RegShard); err != nil {
		return nil, err
	}
	if r.IsOwner() {
		if err := wire.WriteShard(&buf, *r.OwnShard); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeProfileRecord(data []byte, curve ecc.Point) (*ProfileRecord, error) {
	r := bytes.NewReader(data)
	flags, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	rec := &ProfileRecord{}
	if rec.UserSetID, err = wire.ReadUUID(r); err != nil {
		return nil, err
	}
	if rec.PubReg, err = wire.ReadPoint(r, curve); err != nil {
		return nil, err
	}
	if rec.PubOwn, err = wire.ReadPoint(r, curve); err != nil {
		return nil, err
	}
	if rec.RegShard, err = wire.ReadShard(r); err != nil {
		return nil, err
	}
	if flags&flagOwner != 0 {
		shard, err := wire.ReadShard(r)
		if err != nil {
			return nil, err
		}
		rec.OwnShard = &shard
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("client: %d trailing bytes in profile record", r.Len())
	}
	return rec, nil
}

// ProfileStore reads and writes a user's profile file: a flat sequence of
// AES1L-encrypted records under a PBKDF2 key derived from the username and
// password.
type ProfileStore struct {
	Path  string
	Curve ecc.Point

	key []byte
}

// OpenProfileStore prepares a store for the given credentials. The file
// itself is only touched by Load and Save.
func OpenProfileStore(path string, curve ecc.Point, username, password string) *ProfileStore {
	return &ProfileStore{
		Path:  path,
		Curve: curve,
		key:   kdf.PBKDF2Key(username, password, PBKDF2Iterations, 16),
	}
}

// Load reads and decrypts every record of the profile file. A missing file
// is an empty profile.
func (s *ProfileStore) Load() ([]*ProfileRecord, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*ProfileRecord
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		ct, err := readProfileCiphertext(r)
		if err != nil {
			return nil, fmt.Errorf("client: corrupt profile file: %w", err)
		}
		plain, err := decryptProfile(ct, s.key)
		if err != nil {
			return nil, ErrBadPassphrase
		}
		rec, err := decodeProfileRecord(plain, s.Curve)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save encrypts and writes all records, replacing the file contents.
func (s *ProfileStore) Save(records []*ProfileRecord) error {
	var buf bytes.Buffer
	for _, rec := range records {
		plain, err := rec.encode()
		if err != nil {
			return err
		}
		ct, err := encryptProfile(plain, s.key)
		if err != nil {
			return err
		}
		if err := writeProfileCiphertext(&buf, ct); err != nil {
			return err
		}
	}
	return os.WriteFile(s.Path, buf.Bytes(), 0o600)
}

// Append loads the profile, adds the record and saves it back.
func (s *ProfileStore) Append(rec *ProfileRecord) error {
	records, err := s.Load()
	if err != nil {
		return err
	}
	return s.Save(append(records, rec))
}

// Profile records travel as the two AES1L ciphertext halves, each with a
// u16 size prefix: a record holding two public keys and up to two shards
// outgrows a single-byte size on a 256-bit curve.
func writeProfileCiphertext(w io.Writer, ct symmetric.Ciphertext) error {
	var sizes [4]byte
	binary.LittleEndian.PutUint16(sizes[0:2], uint16(len(ct.Prefix)))
	binary.LittleEndian.PutUint16(sizes[2:4], uint16(len(ct.Body)))
	if _, err := w.Write(sizes[:]); err != nil {
		return err
	}
	if _, err := w.Write(ct.Prefix); err != nil {
		return err
	}
	_, err := w.Write(ct.Body)
	return err
}

func readProfileCiphertext(r io.Reader) (symmetric.Ciphertext, error) {
	var sizes [4]byte
	if _, err := io.ReadFull(r, sizes[:]); err != nil {
		return symmetric.Ciphertext{}, err
	}
	ct := symmetric.Ciphertext{
		Prefix: make([]byte, binary.LittleEndian.Uint16(sizes[0:2])),
		Body:   make([]byte, binary.LittleEndian.Uint16(sizes[2:4])),
	}
	if _, err := io.ReadFull(r, ct.Prefix); err != nil {
		return symmetric.Ciphertext{}, err
	}
	if _, err := io.ReadFull(r, ct.Body); err != nil {
		return symmetric.Ciphertext{}, err
	}
	return ct, nil
}

func encryptProfile(plain, key []byte) (symmetric.Ciphertext, error) {
	return symmetric.Encrypt(plain, key)
}

func decryptProfile(ct symmetric.Ciphertext, key []byte) ([]byte, error) {
	return symmetric.Decrypt(ct, key)
}
