package server

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/crypto/sharing"
	"github.com/quorumseal/quorumseal/crypto/symmetric"
	"github.com/quorumseal/quorumseal/log"
	"github.com/quorumseal/quorumseal/wire"
)

// errValidation wraps request-level failures that cross the wire as an
// ErrorResponse while the connection stays up.
type errValidation struct {
	err error
}

func (e errValidation) Error() string { return e.err.Error() }
func (e errValidation) Unwrap() error { return e.err }

func validationErrorf(format string, args ...any) error {
	return errValidation{fmt.Errorf(format, args...)}
}

// clientHandler serves one authenticated connection.
type clientHandler struct {
	codec       wire.Codec
	curve       ecc.Point
	storage     Storage
	updates     *UpdateManager
	decryptions *DecryptionsManager
	username    string
}

// connect runs the unauthenticated stage: only signup, login and logout are
// served. It returns the username on success, or false if the client left.
func (h *clientHandler) connect() (string, bool, error) {
	for {
		pkt, err := h.codec.ReadPacket()
		if errors.Is(err, symmetric.ErrDecrypt) {
			// a corrupted body is a request-level failure, not a broken stream
			if err := h.codec.WritePacket(&wire.ErrorResponse{Msg: "cannot decrypt request"}); err != nil {
				return "", false, err
			}
			continue
		}
		if err != nil {
			return "", false, err
		}
		switch req := pkt.(type) {
		case *wire.SignupRequest:
			err := h.storage.NewUser(req.Username)
			switch {
			case errors.Is(err, ErrUserExists):
				if err := h.codec.WritePacket(&wire.SignupResponse{Status: wire.SignupUsernameTaken}); err != nil {
					return "", false, err
				}
			case err != nil:
				return "", false, err
			default:
				if err := h.codec.WritePacket(&wire.SignupResponse{Status: wire.SignupSuccess}); err != nil {
					return "", false, err
				}
				return req.Username, true, nil
			}
		case *wire.LoginRequest:
			exists, err := h.storage.UserExists(req.Username)
			if err != nil {
				return "", false, err
			}
			status := wire.LoginSuccess
			if !exists {
				status = wire.LoginBadUsername
			}
			if err := h.codec.WritePacket(&wire.LoginResponse{Status: status}); err != nil {
				return "", false, err
			}
			if exists {
				return req.Username, true, nil
			}
		case *wire.LogoutRequest:
			_ = h.codec.WritePacket(&wire.LogoutResponse{})
			return "", false, nil
		default:
			if err := h.codec.WritePacket(&wire.ErrorResponse{Msg: "login or signup first"}); err != nil {
				return "", false, err
			}
		}
	}
}

// serve runs the authenticated request loop until logout or stream error.
func (h *clientHandler) serve() error {
	for {
		pkt, err := h.codec.ReadPacket()
		if errors.Is(err, symmetric.ErrDecrypt) {
			if err := h.codec.WritePacket(&wire.ErrorResponse{Msg: "cannot decrypt request"}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		var resp wire.Packet
		switch req := pkt.(type) {
		case *wire.LogoutRequest:
			_ = h.codec.WritePacket(&wire.LogoutResponse{})
			return nil
		case *wire.MakeUserSetRequest:
			resp, err = h.makeUserSet(req)
		case *wire.GetUserSetsRequest:
			resp, err = h.getUserSets()
		case *wire.GetMembersRequest:
			resp, err = h.getMembers(req)
		case *wire.DecryptRequest:
			resp, err = h.decrypt(req)
		case *wire.UpdateRequest:
			resp = h.updates.Retrieve(h.username)
		case *wire.DecryptParticipateRequest:
			resp = h.participate(req)
		case *wire.SendDecryptionPartRequest:
			resp = h.sendPart(req)
		default:
			err = validationErrorf("unexpected request %s", pkt.Code())
		}

		var vErr errValidation
		switch {
		case errors.As(err, &vErr):
			log.Debugw("request rejected", "user", h.username, "request", pkt.Code(), "reason", err)
			resp = &wire.ErrorResponse{Msg: err.Error()}
		case err != nil:
			return err
		}
		if err := h.codec.WritePacket(resp); err != nil {
			return err
		}
	}
}

func (h *clientHandler) makeUserSet(req *wire.MakeUserSetRequest) (wire.Packet, error) {
	owners := req.Owners
	creatorListed := false
	for _, o := range owners {
		if o == h.username {
			creatorListed = true
			break
		}
	}
	if !creatorListed {
		// the creator becomes an owner by construction
		owners = append([]string{h.username}, owners...)
	}

	total := len(owners) + len(req.RegMembers)
	if total > wire.MaxMembers {
		return nil, validationErrorf("userset too large: %d members (max %d)", total, wire.MaxMembers)
	}
	seen := make(map[string]bool, total)
	for _, name := range append(append([]string{}, owners...), req.RegMembers...) {
		if seen[name] {
			return nil, validationErrorf("user %q listed twice", name)
		}
		seen[name] = true
		exists, err := h.storage.UserExists(name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, validationErrorf("unknown user %q", name)
		}
	}
	if int(req.OwnersThreshold) > len(owners) {
		return nil, validationErrorf("owners threshold %d exceeds %d owners",
			req.OwnersThreshold, len(owners))
	}
	if int(req.RegMembersThreshold) > total {
		return nil, validationErrorf("members threshold %d exceeds %d members",
			req.RegMembersThreshold, total)
	}

	pubReg, privReg, err := elgamal.GenerateKey(h.curve)
	if err != nil {
		return nil, err
	}
	pubOwn, privOwn, err := elgamal.GenerateKey(h.curve)
	if err != nil {
		return nil, err
	}
	order := h.curve.Order()

	// every member participates on the reg layer, owners only on the owner
	// layer
	regParticipants := append(append([]string{}, owners...), req.RegMembers...)
	regIDs, err := sharing.NewShardIDs(len(regParticipants), order)
	if err != nil {
		return nil, err
	}
	regShards, err := sharing.Share(privReg, int(req.RegMembersThreshold), regIDs, order)
	if err != nil {
		return nil, err
	}
	ownIDs, err := sharing.NewShardIDs(len(owners), order)
	if err != nil {
		return nil, err
	}
	ownShards, err := sharing.Share(privOwn, int(req.OwnersThreshold), ownIDs, order)
	if err != nil {
		return nil, err
	}

	set := &UserSet{
		ID:                  uuid.New(),
		Owners:              owners,
		RegMembers:          req.RegMembers,
		OwnersThreshold:     req.OwnersThreshold,
		RegMembersThreshold: req.RegMembersThreshold,
		PubReg:              pubReg,
		PubOwn:              pubOwn,
		RegShardIDs:         make(map[string]*big.Int, len(regParticipants)),
		OwnShardIDs:         make(map[string]*big.Int, len(owners)),
	}
	regShardByUser := make(map[string]sharing.Shard, len(regParticipants))
	for i, name := range regParticipants {
		set.RegShardIDs[name] = regShards[i].ID
		regShardByUser[name] = regShards[i]
	}
	ownShardByUser := make(map[string]sharing.Shard, len(owners))
	for i, name := range owners {
		set.OwnShardIDs[name] = ownShards[i].ID
		ownShardByUser[name] = ownShards[i]
	}

	if err := h.storage.NewUserSet(set); err != nil {
		return nil, err
	}

	for _, name := range owners {
		if name == h.username {
			continue
		}
		h.updates.RegisterOwner(name, wire.AddedAsOwnerRecord{
			AddedAsMemberRecord: wire.AddedAsMemberRecord{
				UserSetID: set.ID,
				PubReg:    pubReg,
				PubOwn:    pubOwn,
				RegShard:  regShardByUser[name],
			},
			OwnShard: ownShardByUser[name],
		})
	}
	for _, name := range req.RegMembers {
		h.updates.RegisterRegMember(name, wire.AddedAsMemberRecord{
			UserSetID: set.ID,
			PubReg:    pubReg,
			PubOwn:    pubOwn,
			RegShard:  regShardByUser[name],
		})
	}

	log.Infow("userset created", "userset", set.ID, "creator", h.username,
		"owners", len(owners), "members", len(req.RegMembers))

	return &wire.MakeUserSetResponse{
		UserSetID: set.ID,
		PubReg:    pubReg,
		PubOwn:    pubOwn,
		RegShard:  regShardByUser[h.username],
		OwnShard:  ownShardByUser[h.username],
	}, nil
}

func (h *clientHandler) getUserSets() (wire.Packet, error) {
	ids, err := h.storage.UserSets(h.username)
	if err != nil {
		return nil, err
	}
	return &wire.GetUserSetsResponse{UserSetIDs: ids}, nil
}

func (h *clientHandler) getMembers(req *wire.GetMembersRequest) (wire.Packet, error) {
	set, err := h.storage.UserSet(req.UserSetID)
	if errors.Is(err, ErrUserSetNotFound) {
		return nil, validationErrorf("unknown userset %s", req.UserSetID)
	}
	if err != nil {
		return nil, err
	}
	return &wire.GetMembersResponse{Owners: set.Owners, RegMembers: set.RegMembers}, nil
}

func (h *clientHandler) decrypt(req *wire.DecryptRequest) (wire.Packet, error) {
	set, err := h.storage.UserSet(req.UserSetID)
	if errors.Is(err, ErrUserSetNotFound) {
		return nil, validationErrorf("unknown userset %s", req.UserSetID)
	}
	if err != nil {
		return nil, err
	}
	if !set.IsOwner(h.username) {
		return nil, validationErrorf("user %q does not own userset %s", h.username, set.ID)
	}
	regShardID, err := set.ShardID(h.username, RegLayer)
	if err != nil {
		return nil, err
	}
	ownShardID, err := set.ShardID(h.username, OwnerLayer)
	if err != nil {
		return nil, err
	}

	opid := uuid.New()
	finished := h.decryptions.RegisterOperation(opid, &PrepareRecord{
		UserSetID:           set.ID,
		Initiator:           h.username,
		Ciphertext:          req.Ciphertext,
		RequiredOwners:      set.OwnersThreshold,
		RequiredRegMembers:  set.RegMembersThreshold,
		InitiatorRegShardID: regShardID,
		InitiatorOwnShardID: ownShardID,
	})
	if finished != nil {
		// both thresholds zero: the initiator's own shards suffice
		h.updates.RegisterFinished(finished.Initiator, finished.Record)
	} else {
		for _, member := range set.Members() {
			if member != h.username {
				h.updates.RegisterLookup(member, opid)
			}
		}
	}

	log.Infow("decryption initiated", "opid", opid, "userset", set.ID, "initiator", h.username)
	return &wire.DecryptResponse{OperationID: opid}, nil
}

func (h *clientHandler) participate(req *wire.DecryptParticipateRequest) wire.Packet {
	notRequired := &wire.DecryptParticipateResponse{Status: wire.NotRequired}

	setID, ciphertext, ok := h.decryptions.Operation(req.OperationID)
	if !ok {
		return notRequired
	}
	set, err := h.storage.UserSet(setID)
	if err != nil {
		log.Errorw(err, "cannot load userset of pending operation")
		return notRequired
	}
	regShardID, err := set.ShardID(h.username, RegLayer)
	if err != nil {
		return notRequired // not a member of this userset
	}
	var ownShardID *big.Int
	isOwner := set.IsOwner(h.username)
	if isOwner {
		if ownShardID, err = set.ShardID(h.username, OwnerLayer); err != nil {
			return notRequired
		}
	}

	status, sel := h.decryptions.Participate(req.OperationID, h.username, isOwner, regShardID, ownShardID)
	if sel != nil {
		// the layer's participant set is complete: hand every selected
		// participant the ciphertext and the full reconstruction set
		for _, name := range sel.Participants {
			h.updates.RegisterToDecrypt(name, wire.ToDecryptRecord{
				OperationID: req.OperationID,
				Ciphertext:  ciphertext,
				ShardIDs:    sel.ShardIDs,
			})
		}
	}
	return &wire.DecryptParticipateResponse{Status: status}
}

func (h *clientHandler) sendPart(req *wire.SendDecryptionPartRequest) wire.Packet {
	finished := h.decryptions.RegisterPart(req.OperationID, h.username, req.Part)
	if finished != nil {
		h.updates.RegisterFinished(finished.Initiator, finished.Record)
		log.Infow("decryption finished", "opid", req.OperationID, "initiator", finished.Initiator)
	}
	return &wire.SendDecryptionPartResponse{}
}
