package server

import (
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/wire"
)

// DecryptionsManager tracks in-flight decryption operations through their
// lookup and collection phases. An operation moves strictly forward:
// registered, participants selected, parts collected, finished (removed).
//
// Lock order: collected before prep, never the other way around.
type DecryptionsManager struct {
	muPrep sync.Mutex
	prep   map[uuid.UUID]*PrepareRecord

	muCollected sync.Mutex
	collected   map[uuid.UUID]*collectedRecord
}

// PrepareRecord is the lookup-phase state of an operation.
type PrepareRecord struct {
	UserSetID           uuid.UUID
	Initiator           string
	Ciphertext          *elgamal.Ciphertext
	RequiredOwners      uint8
	RequiredRegMembers  uint8
	InitiatorRegShardID *big.Int
	InitiatorOwnShardID *big.Int

	// participants accepted so far, in commit order
	ownersFound []participant
	regFound    []participant
}

type participant struct {
	username string
	shardID  *big.Int
}

// collectedRecord accumulates the parts of an operation per layer.
type collectedRecord struct {
	regParts    []ecc.Point
	regShardIDs []*big.Int
	ownParts    []ecc.Point
	ownShardIDs []*big.Int
	submitted   map[string]bool
}

// LayerSelection reports that a layer's participant set just became
// complete. ShardIDs is the full reconstruction set for that layer: the
// initiator's shard id first, then the accepted participants in commit
// order.
type LayerSelection struct {
	Layer        Layer
	Participants []string
	ShardIDs     []*big.Int
}

// FinishedOperation is the terminal result of an operation, addressed to
// its initiator.
type FinishedOperation struct {
	Initiator string
	Record    wire.FinishedDecryptionRecord
}

// NewDecryptionsManager returns an empty manager.
func NewDecryptionsManager() *DecryptionsManager {
	return &DecryptionsManager{
		prep:      make(map[uuid.UUID]*PrepareRecord),
		collected: make(map[uuid.UUID]*collectedRecord),
	}
}

// RegisterOperation records a fresh operation in its lookup phase. If both
// thresholds are zero the operation needs no other participant: it finishes
// on the spot and the finished result is returned.
func (m *DecryptionsManager) RegisterOperation(opid uuid.UUID, rec *PrepareRecord) *FinishedOperation {
	m.muPrep.Lock()
	defer m.muPrep.Unlock()
	if rec.RequiredOwners == 0 && rec.RequiredRegMembers == 0 {
		return &FinishedOperation{
			Initiator: rec.Initiator,
			Record:    finishedRecord(opid, rec, &collectedRecord{}),
		}
	}
	m.prep[opid] = rec
	return nil
}

// Participate offers a user as a participant for an operation. Owners are
// preferred for the owner layer while it still needs parts, then fall back
// to the reg layer; non-owners only ever serve the reg layer. A user is
// accepted at most once per operation. When an acceptance completes a
// layer's participant set, the complete selection is returned so the caller
// can inform every selected participant.
func (m *DecryptionsManager) Participate(opid uuid.UUID, username string, isOwner bool,
	regShardID, ownShardID *big.Int,
) (wire.ParticipateStatus, *LayerSelection) {
	m.muPrep.Lock()
	defer m.muPrep.Unlock()

	rec, ok := m.prep[opid]
	if !ok {
		return wire.NotRequired, nil
	}
	for _, p := range rec.ownersFound {
		if p.username == username {
			return wire.NotRequired, nil
		}
	}
	for _, p := range rec.regFound {
		if p.username == username {
			return wire.NotRequired, nil
		}
	}

	if isOwner && len(rec.ownersFound) < int(rec.RequiredOwners) {
		rec.ownersFound = append(rec.ownersFound, participant{username, ownShardID})
		var sel *LayerSelection
		if len(rec.ownersFound) == int(rec.RequiredOwners) {
			sel = selection(OwnerLayer, rec.InitiatorOwnShardID, rec.ownersFound)
		}
		return wire.SendOwnerLayerPart, sel
	}
	if len(rec.regFound) < int(rec.RequiredRegMembers) {
		rec.regFound = append(rec.regFound, participant{username, regShardID})
		var sel *LayerSelection
		if len(rec.regFound) == int(rec.RequiredRegMembers) {
			sel = selection(RegLayer, rec.InitiatorRegShardID, rec.regFound)
		}
		return wire.SendRegLayerPart, sel
	}
	return wire.NotRequired, nil
}

// Operation returns the userset id and ciphertext of an operation still in
// flight.
func (m *DecryptionsManager) Operation(opid uuid.UUID) (uuid.UUID, *elgamal.Ciphertext, bool) {
	m.muPrep.Lock()
	defer m.muPrep.Unlock()
	rec, ok := m.prep[opid]
	if !ok {
		return uuid.UUID{}, nil, false
	}
	return rec.UserSetID, rec.Ciphertext, true
}

// RegisterPart records a part sent by a user for an operation. Parts for
// unknown or already-finished operations, from users that were never
// selected, or duplicated by the same user, are dropped without error. When
// both layers reach their required part counts the operation is removed and
// the finished result returned.
func (m *DecryptionsManager) RegisterPart(opid uuid.UUID, username string, part ecc.Point) *FinishedOperation {
	m.muCollected.Lock()
	defer m.muCollected.Unlock()
	m.muPrep.Lock()
	defer m.muPrep.Unlock()

	rec, ok := m.prep[opid]
	if !ok {
		return nil
	}

	var layer Layer
	var shardID *big.Int
	for _, p := range rec.ownersFound {
		if p.username == username {
			layer, shardID = OwnerLayer, p.shardID
		}
	}
	if shardID == nil {
		for _, p := range rec.regFound {
			if p.username == username {
				layer, shardID = RegLayer, p.shardID
			}
		}
	}
	if shardID == nil {
		return nil // never selected for this operation
	}

	coll, ok := m.collected[opid]
	if !ok {
		coll = &collectedRecord{submitted: make(map[string]bool)}
		m.collected[opid] = coll
	}
	if coll.submitted[username] {
		return nil
	}
	coll.submitted[username] = true

	if layer == OwnerLayer {
		coll.ownParts = append(coll.ownParts, part)
		coll.ownShardIDs = append(coll.ownShardIDs, shardID)
	} else {
		coll.regParts = append(coll.regParts, part)
		coll.regShardIDs = append(coll.regShardIDs, shardID)
	}

	if len(coll.regParts) >= int(rec.RequiredRegMembers) &&
		len(coll.ownParts) >= int(rec.RequiredOwners) {
		delete(m.prep, opid)
		delete(m.collected, opid)
		return &FinishedOperation{
			Initiator: rec.Initiator,
			Record:    finishedRecord(opid, rec, coll),
		}
	}
	return nil
}

func selection(layer Layer, initiatorShardID *big.Int, found []participant) *LayerSelection {
	sel := &LayerSelection{
		Layer:    layer,
		ShardIDs: []*big.Int{initiatorShardID},
	}
	for _, p := range found {
		sel.Participants = append(sel.Participants, p.username)
		sel.ShardIDs = append(sel.ShardIDs, p.shardID)
	}
	return sel
}

// finishedRecord assembles the record delivered to the initiator. The shard
// id vectors lead with the initiator's own shard id, keeping
// len(ids) == len(parts)+1 on each layer.
func finishedRecord(opid uuid.UUID, rec *PrepareRecord, coll *collectedRecord) wire.FinishedDecryptionRecord {
	return wire.FinishedDecryptionRecord{
		OperationID: opid,
		UserSetID:   rec.UserSetID,
		RegParts:    coll.regParts,
		OwnParts:    coll.ownParts,
		RegShardIDs: append([]*big.Int{rec.InitiatorRegShardID}, coll.regShardIDs...),
		OwnShardIDs: append([]*big.Int{rec.InitiatorOwnShardID}, coll.ownShardIDs...),
	}
}
