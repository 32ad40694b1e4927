package server

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/wire"
)

func testPrepareRecord(c *qt.C, requiredOwners, requiredReg uint8) *PrepareRecord {
	curve := curves.New(curves.DefaultCurveType)
	pub1, _, err := elgamal.GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	pub2, _, err := elgamal.GenerateKey(curve)
	c.Assert(err, qt.IsNil)
	ct, err := elgamal.Encrypt([]byte("test"), pub1, pub2)
	c.Assert(err, qt.IsNil)
	return &PrepareRecord{
		UserSetID:           uuid.New(),
		Initiator:           "init",
		Ciphertext:          ct,
		RequiredOwners:      requiredOwners,
		RequiredRegMembers:  requiredReg,
		InitiatorRegShardID: big.NewInt(100),
		InitiatorOwnShardID: big.NewInt(200),
	}
}

func testPart(c *qt.C) ecc.Point {
	p, err := ecc.Sample(curves.New(curves.DefaultCurveType))
	c.Assert(err, qt.IsNil)
	return p
}

func TestZeroThresholdsFinishImmediately(t *testing.T) {
	c := qt.New(t)
	m := NewDecryptionsManager()

	opid := uuid.New()
	finished := m.RegisterOperation(opid, testPrepareRecord(c, 0, 0))
	c.Assert(finished, qt.IsNotNil)
	c.Assert(finished.Initiator, qt.Equals, "init")
	c.Assert(finished.Record.RegParts, qt.HasLen, 0)
	c.Assert(finished.Record.OwnParts, qt.HasLen, 0)
	c.Assert(finished.Record.RegShardIDs, qt.HasLen, 1)
	c.Assert(finished.Record.OwnShardIDs, qt.HasLen, 1)

	// the operation is not retained
	_, _, ok := m.Operation(opid)
	c.Assert(ok, qt.IsFalse)
}

func TestParticipateSelection(t *testing.T) {
	c := qt.New(t)
	m := NewDecryptionsManager()
	opid := uuid.New()

	c.Assert(m.RegisterOperation(opid, testPrepareRecord(c, 1, 1)), qt.IsNil)

	// an owner is preferred for the owner layer
	status, sel := m.Participate(opid, "o2", true, big.NewInt(1), big.NewInt(2))
	c.Assert(status, qt.Equals, wire.SendOwnerLayerPart)
	c.Assert(sel, qt.IsNotNil)
	c.Assert(sel.Layer, qt.Equals, OwnerLayer)
	c.Assert(sel.Participants, qt.DeepEquals, []string{"o2"})
	// full reconstruction set: initiator's shard id first
	c.Assert(sel.ShardIDs, qt.HasLen, 2)
	c.Assert(sel.ShardIDs[0].Int64(), qt.Equals, int64(200))
	c.Assert(sel.ShardIDs[1].Int64(), qt.Equals, int64(2))

	// owner layer full: the next owner falls to the reg layer
	status, sel = m.Participate(opid, "o3", true, big.NewInt(3), big.NewInt(4))
	c.Assert(status, qt.Equals, wire.SendRegLayerPart)
	c.Assert(sel, qt.IsNotNil)
	c.Assert(sel.Layer, qt.Equals, RegLayer)
	c.Assert(sel.ShardIDs[0].Int64(), qt.Equals, int64(100))

	// both layers full
	status, sel = m.Participate(opid, "m1", false, big.NewInt(5), nil)
	c.Assert(status, qt.Equals, wire.NotRequired)
	c.Assert(sel, qt.IsNil)

	// repeat participation is NotRequired
	status, _ = m.Participate(opid, "o2", true, big.NewInt(1), big.NewInt(2))
	c.Assert(status, qt.Equals, wire.NotRequired)

	// unknown operation is NotRequired
	status, _ = m.Participate(uuid.New(), "o2", true, big.NewInt(1), big.NewInt(2))
	c.Assert(status, qt.Equals, wire.NotRequired)
}

func TestRegisterPartLifecycle(t *testing.T) {
	c := qt.New(t)
	m := NewDecryptionsManager()
	opid := uuid.New()

	c.Assert(m.RegisterOperation(opid, testPrepareRecord(c, 1, 1)), qt.IsNil)

	m.Participate(opid, "owner2", true, big.NewInt(1), big.NewInt(2))
	m.Participate(opid, "member", false, big.NewInt(3), nil)

	// part from a user that was never selected is dropped
	c.Assert(m.RegisterPart(opid, "stranger", testPart(c)), qt.IsNil)

	// part for an unknown operation is dropped
	c.Assert(m.RegisterPart(uuid.New(), "owner2", testPart(c)), qt.IsNil)

	ownerPart := testPart(c)
	c.Assert(m.RegisterPart(opid, "owner2", ownerPart), qt.IsNil)

	// a duplicate part from the same user is dropped
	c.Assert(m.RegisterPart(opid, "owner2", testPart(c)), qt.IsNil)

	memberPart := testPart(c)
	finished := m.RegisterPart(opid, "member", memberPart)
	c.Assert(finished, qt.IsNotNil)
	c.Assert(finished.Initiator, qt.Equals, "init")

	rec := finished.Record
	c.Assert(rec.OwnParts, qt.HasLen, 1)
	c.Assert(rec.OwnParts[0].Equal(ownerPart), qt.IsTrue)
	c.Assert(rec.RegParts, qt.HasLen, 1)
	c.Assert(rec.RegParts[0].Equal(memberPart), qt.IsTrue)
	// shard id vectors satisfy |ids| == |parts|+1
	c.Assert(rec.RegShardIDs, qt.HasLen, len(rec.RegParts)+1)
	c.Assert(rec.OwnShardIDs, qt.HasLen, len(rec.OwnParts)+1)

	// the operation never returns to an earlier state: it is gone
	c.Assert(m.RegisterPart(opid, "member", testPart(c)), qt.IsNil)
	_, _, ok := m.Operation(opid)
	c.Assert(ok, qt.IsFalse)
}
