package server

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/db"
)

// Layer identifies one of the two encryption layers of a userset.
type Layer uint8

const (
	// RegLayer is the member layer: every member of the userset holds a
	// shard of its private key.
	RegLayer Layer = 1
	// OwnerLayer is the owner layer: only owners hold shards.
	OwnerLayer Layer = 2
)

var (
	// ErrUserExists is returned when signing up an already-taken username.
	ErrUserExists = errors.New("server: user already exists")
	// ErrUserNotFound is returned for operations on unknown users.
	ErrUserNotFound = errors.New("server: user not found")
	// ErrUserSetNotFound is returned for operations on unknown usersets.
	ErrUserSetNotFound = errors.New("server: userset not found")
	// ErrNoShard is returned when a user holds no shard on the given layer.
	ErrNoShard = errors.New("server: no shard for user and layer")
)

// UserSet is a stored userset: its membership, thresholds, public keys, and
// the shard id assigned to each member on each layer it participates in.
// Usersets are immutable once created.
type UserSet struct {
	ID                  uuid.UUID
	Owners              []string
	RegMembers          []string
	OwnersThreshold     uint8
	RegMembersThreshold uint8
	PubReg              ecc.Point
	PubOwn              ecc.Point

	// shard ids per username; RegShardIDs covers owners and members,
	// OwnShardIDs covers owners only
	RegShardIDs map[string]*big.Int
	OwnShardIDs map[string]*big.Int
}

// Members returns all usernames of the userset: owners then non-owners.
func (s *UserSet) Members() []string {
	members := make([]string, 0, len(s.Owners)+len(s.RegMembers))
	members = append(members, s.Owners...)
	members = append(members, s.RegMembers...)
	return members
}

// IsOwner reports whether the username is an owner of the userset.
func (s *UserSet) IsOwner(username string) bool {
	for _, owner := range s.Owners {
		if owner == username {
			return true
		}
	}
	return false
}

// ShardID returns the user's shard id on the given layer.
func (s *UserSet) ShardID(username string, layer Layer) (*big.Int, error) {
	var ids map[string]*big.Int
	switch layer {
	case RegLayer:
		ids = s.RegShardIDs
	case OwnerLayer:
		ids = s.OwnShardIDs
	default:
		return nil, fmt.Errorf("server: unknown layer %d", layer)
	}
	id, ok := ids[username]
	if !ok {
		return nil, fmt.Errorf("%w: %q layer %d", ErrNoShard, username, layer)
	}
	return id, nil
}

// Storage is the server's registry of users and usersets. Implementations
// must be safe for concurrent use.
type Storage interface {
	// NewUser registers a username. Returns ErrUserExists if taken.
	NewUser(username string) error

	// UserExists reports whether the username is registered.
	UserExists(username string) (bool, error)

	// NewUserSet persists a userset and indexes it under its owners.
	NewUserSet(set *UserSet) error

	// UserSets returns the ids of the usersets the user owns.
	UserSets(owner string) ([]uuid.UUID, error)

	// UserSet returns a stored userset by id, or ErrUserSetNotFound.
	UserSet(id uuid.UUID) (*UserSet, error)

	// Close releases storage resources.
	Close() error
}

// key prefixes
var (
	userPrefix    = []byte("u/")
	userSetPrefix = []byte("us/")
)

// userRecord is the stored form of a user: the ids of the usersets it owns.
type userRecord struct {
	Owned [][]byte `cbor:"1,keyasint"`
}

// pointRecord is the stored form of a curve point; nil coordinates encode
// the identity.
type pointRecord struct {
	X []byte `cbor:"1,keyasint,omitempty"`
	Y []byte `cbor:"2,keyasint,omitempty"`
}

func newPointRecord(p ecc.Point) pointRecord {
	x, y := p.Point()
	if x == nil {
		return pointRecord{}
	}
	return pointRecord{X: x.Bytes(), Y: y.Bytes()}
}

func (rec pointRecord) point(curve ecc.Point) (ecc.Point, error) {
	p := curve.New()
	if rec.X == nil {
		return p, nil
	}
	if err := p.SetPoint(new(big.Int).SetBytes(rec.X), new(big.Int).SetBytes(rec.Y)); err != nil {
		return nil, err
	}
	return p, nil
}

// userSetRecord is the stored form of a userset.
type userSetRecord struct {
	Owners              []string          `cbor:"1,keyasint"`
	RegMembers          []string          `cbor:"2,keyasint"`
	OwnersThreshold     uint8             `cbor:"3,keyasint"`
	RegMembersThreshold uint8             `cbor:"4,keyasint"`
	PubReg              pointRecord       `cbor:"5,keyasint"`
	PubOwn              pointRecord       `cbor:"6,keyasint"`
	RegShardIDs         map[string][]byte `cbor:"7,keyasint"`
	OwnShardIDs         map[string][]byte `cbor:"8,keyasint"`
}

// DBStorage implements Storage over a db.Database. With a pebble backend
// the registry (including the per-user, per-layer shard id assignment)
// survives restarts; the memory backend keeps everything for the lifetime
// of the process only.
type DBStorage struct {
	mu    sync.Mutex
	db    db.Database
	curve ecc.Point
}

var _ Storage = (*DBStorage)(nil)

// NewDBStorage wraps a database in a Storage decoding points on the given
// curve.
func NewDBStorage(database db.Database, curve ecc.Point) *DBStorage {
	return &DBStorage{db: database, curve: curve}
}

func userKey(username string) []byte {
	return append(append([]byte{}, userPrefix...), username...)
}

func userSetKey(id uuid.UUID) []byte {
	return append(append([]byte{}, userSetPrefix...), id[:]...)
}

func (s *DBStorage) NewUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey(username)
	if _, err := s.db.Get(key); err == nil {
		return fmt.Errorf("%w: %q", ErrUserExists, username)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	return s.putCBOR(key, &userRecord{})
}

func (s *DBStorage) UserExists(username string) (bool, error) {
	_, err := s.db.Get(userKey(username))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DBStorage) NewUserSet(set *UserSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := userSetRecord{
		Owners:              set.Owners,
		RegMembers:          set.RegMembers,
		OwnersThreshold:     set.OwnersThreshold,
		RegMembersThreshold: set.RegMembersThreshold,
		PubReg:              newPointRecord(set.PubReg),
		PubOwn:              newPointRecord(set.PubOwn),
		RegShardIDs:         encodeShardIDs(set.RegShardIDs),
		OwnShardIDs:         encodeShardIDs(set.OwnShardIDs),
	}
	data, err := cbor.Marshal(&rec)
	if err != nil {
		return err
	}

	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := tx.Set(userSetKey(set.ID), data); err != nil {
		return err
	}
	// index the userset under each owner
	for _, owner := range set.Owners {
		var urec userRecord
		if err := getCBOR(tx, userKey(owner), &urec); err != nil {
			return fmt.Errorf("%w: %q", ErrUserNotFound, owner)
		}
		urec.Owned = append(urec.Owned, set.ID[:])
		data, err := cbor.Marshal(&urec)
		if err != nil {
			return err
		}
		if err := tx.Set(userKey(owner), data); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *DBStorage) UserSets(owner string) ([]uuid.UUID, error) {
	var rec userRecord
	if err := getCBOR(s.db, userKey(owner), &rec); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUserNotFound, owner)
		}
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rec.Owned))
	for _, raw := range rec.Owned {
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *DBStorage) UserSet(id uuid.UUID) (*UserSet, error) {
	var rec userSetRecord
	if err := getCBOR(s.db, userSetKey(id), &rec); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserSetNotFound, id)
		}
		return nil, err
	}
	pubReg, err := rec.PubReg.point(s.curve)
	if err != nil {
		return nil, err
	}
	pubOwn, err := rec.PubOwn.point(s.curve)
	if err != nil {
		return nil, err
	}
	return &UserSet{
		ID:                  id,
		Owners:              rec.Owners,
		RegMembers:          rec.RegMembers,
		OwnersThreshold:     rec.OwnersThreshold,
		RegMembersThreshold: rec.RegMembersThreshold,
		PubReg:              pubReg,
		PubOwn:              pubOwn,
		RegShardIDs:         decodeShardIDs(rec.RegShardIDs),
		OwnShardIDs:         decodeShardIDs(rec.OwnShardIDs),
	}, nil
}

func (s *DBStorage) Close() error {
	return s.db.Close()
}

func (s *DBStorage) putCBOR(key []byte, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := tx.Set(key, data); err != nil {
		return err
	}
	return tx.Commit()
}

func getCBOR(r db.Reader, key []byte, out any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(data, out)
}

func encodeShardIDs(ids map[string]*big.Int) map[string][]byte {
	out := make(map[string][]byte, len(ids))
	for user, id := range ids {
		out[user] = id.Bytes()
	}
	return out
}

func decodeShardIDs(ids map[string][]byte) map[string]*big.Int {
	out := make(map[string]*big.Int, len(ids))
	for user, raw := range ids {
		out[user] = new(big.Int).SetBytes(raw)
	}
	return out
}
