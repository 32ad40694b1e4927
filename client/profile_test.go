package client

import (
	"math/big"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/crypto/sharing"
)

func sampleProfileRecord(c *qt.C, curve ecc.Point, owner bool) *ProfileRecord {
	pubReg, err := ecc.Sample(curve)
	c.Assert(err, qt.IsNil)
	pubOwn, err := ecc.Sample(curve)
	c.Assert(err, qt.IsNil)
	rec := &ProfileRecord{
		UserSetID: uuid.New(),
		PubReg:    pubReg,
		PubOwn:    pubOwn,
		RegShard:  sharing.Shard{ID: big.NewInt(11), Value: big.NewInt(22)},
	}
	if owner {
		rec.OwnShard = &sharing.Shard{ID: big.NewInt(33), Value: big.NewInt(44)}
	}
	return rec
}

func TestProfileStoreRoundTrip(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	path := filepath.Join(t.TempDir(), "alice.profile")

	store := OpenProfileStore(path, curve, "alice", "hunter2")

	// missing file is an empty profile
	records, err := store.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.HasLen, 0)

	ownerRec := sampleProfileRecord(c, curve, true)
	memberRec := sampleProfileRecord(c, curve, false)
	c.Assert(store.Save([]*ProfileRecord{ownerRec, memberRec}), qt.IsNil)

	loaded, err := store.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.HasLen, 2)

	c.Assert(loaded[0].UserSetID, qt.Equals, ownerRec.UserSetID)
	c.Assert(loaded[0].IsOwner(), qt.IsTrue)
	c.Assert(loaded[0].PubReg.Equal(ownerRec.PubReg), qt.IsTrue)
	c.Assert(loaded[0].PubOwn.Equal(ownerRec.PubOwn), qt.IsTrue)
	c.Assert(loaded[0].RegShard.ID.Cmp(ownerRec.RegShard.ID), qt.Equals, 0)
	c.Assert(loaded[0].OwnShard.Value.Cmp(ownerRec.OwnShard.Value), qt.Equals, 0)

	c.Assert(loaded[1].UserSetID, qt.Equals, memberRec.UserSetID)
	c.Assert(loaded[1].IsOwner(), qt.IsFalse)
	c.Assert(loaded[1].OwnShard, qt.IsNil)
}

func TestProfileStoreAppend(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	path := filepath.Join(t.TempDir(), "bob.profile")

	store := OpenProfileStore(path, curve, "bob", "pw")
	c.Assert(store.Append(sampleProfileRecord(c, curve, false)), qt.IsNil)
	c.Assert(store.Append(sampleProfileRecord(c, curve, true)), qt.IsNil)

	records, err := store.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.HasLen, 2)
	c.Assert(records[0].IsOwner(), qt.IsFalse)
	c.Assert(records[1].IsOwner(), qt.IsTrue)
}

func TestProfileStoreWrongCredentials(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	path := filepath.Join(t.TempDir(), "carol.profile")

	store := OpenProfileStore(path, curve, "carol", "correct horse")
	c.Assert(store.Save([]*ProfileRecord{sampleProfileRecord(c, curve, true)}), qt.IsNil)

	_, err := OpenProfileStore(path, curve, "carol", "battery staple").Load()
	c.Assert(err, qt.ErrorIs, ErrBadPassphrase)

	_, err = OpenProfileStore(path, curve, "caroll", "correct horse").Load()
	c.Assert(err, qt.ErrorIs, ErrBadPassphrase)
}
