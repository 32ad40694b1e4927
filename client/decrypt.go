package client

import (
	"fmt"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/crypto/sharing"
	"github.com/quorumseal/quorumseal/wire"
)

// ComputeRegPart computes a participant's reg-layer part for a to-decrypt
// record, using its reg-layer shard. The record's shard id set is the full
// reconstruction set of the layer.
func ComputeRegPart(rec *wire.ToDecryptRecord, shard sharing.Shard) (ecc.Point, error) {
	return sharing.ComputePart(rec.Ciphertext.C1, shard, rec.ShardIDs)
}

// ComputeOwnerPart computes a participant's owner-layer part for a
// to-decrypt record, using its owner-layer shard.
func ComputeOwnerPart(rec *wire.ToDecryptRecord, shard sharing.Shard) (ecc.Point, error) {
	return sharing.ComputePart(rec.Ciphertext.C2, shard, rec.ShardIDs)
}

// Combine recovers the plaintext of a finished operation. It computes the
// initiator's own part on each layer from the shard id sets delivered with
// the record, joins them with the collected parts into the two layers'
// shared secret points, and decrypts the symmetric layer.
//
// ct must be the ciphertext the initiator asked to decrypt; regShard and
// ownShard are the initiator's shards in the operation's userset.
func Combine(rec *wire.FinishedDecryptionRecord, ct *elgamal.Ciphertext,
	regShard, ownShard sharing.Shard,
) ([]byte, error) {
	if len(rec.RegShardIDs) != len(rec.RegParts)+1 {
		return nil, fmt.Errorf("client: reg layer has %d shard ids for %d parts",
			len(rec.RegShardIDs), len(rec.RegParts))
	}
	if len(rec.OwnShardIDs) != len(rec.OwnParts)+1 {
		return nil, fmt.Errorf("client: owner layer has %d shard ids for %d parts",
			len(rec.OwnShardIDs), len(rec.OwnParts))
	}

	myRegPart, err := sharing.ComputePart(ct.C1, regShard, rec.RegShardIDs)
	if err != nil {
		return nil, err
	}
	myOwnPart, err := sharing.ComputePart(ct.C2, ownShard, rec.OwnShardIDs)
	if err != nil {
		return nil, err
	}

	z1, err := sharing.JoinParts(append([]ecc.Point{myRegPart}, rec.RegParts...))
	if err != nil {
		return nil, err
	}
	z2, err := sharing.JoinParts(append([]ecc.Point{myOwnPart}, rec.OwnParts...))
	if err != nil {
		return nil, err
	}
	return elgamal.DecryptWithSecrets(ct, z1, z2)
}
