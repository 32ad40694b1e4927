package wire

import (
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/crypto/sharing"
)

// Packet is one request or response, discriminated by its code byte.
type Packet interface {
	Code() Code

	encode(w io.Writer) error
	decode(r io.Reader, curve ecc.Point) error
}

// newPacket constructs the empty packet struct for a code.
func newPacket(code Code) (Packet, error) {
	switch code {
	case CodeErrorResponse:
		return &ErrorResponse{}, nil
	case CodeSignupRequest:
		return &SignupRequest{}, nil
	case CodeSignupResponse:
		return &SignupResponse{}, nil
	case CodeLoginRequest:
		return &LoginRequest{}, nil
	case CodeLoginResponse:
		return &LoginResponse{}, nil
	case CodeLogoutRequest:
		return &LogoutRequest{}, nil
	case CodeLogoutResponse:
		return &LogoutResponse{}, nil
	case CodeMakeUserSetRequest:
		return &MakeUserSetRequest{}, nil
	case CodeMakeUserSetResponse:
		return &MakeUserSetResponse{}, nil
	case CodeGetUserSetsRequest:
		return &GetUserSetsRequest{}, nil
	case CodeGetUserSetsResponse:
		return &GetUserSetsResponse{}, nil
	case CodeGetMembersRequest:
		return &GetMembersRequest{}, nil
	case CodeGetMembersResponse:
		return &GetMembersResponse{}, nil
	case CodeDecryptRequest:
		return &DecryptRequest{}, nil
	case CodeDecryptResponse:
		return &DecryptResponse{}, nil
	case CodeUpdateRequest:
		return &UpdateRequest{}, nil
	case CodeUpdateResponse:
		return &UpdateResponse{}, nil
	case CodeDecryptParticipateRequest:
		return &DecryptParticipateRequest{}, nil
	case CodeDecryptParticipateResponse:
		return &DecryptParticipateResponse{}, nil
	case CodeSendDecryptionPartRequest:
		return &SendDecryptionPartRequest{}, nil
	case CodeSendDecryptionPartResponse:
		return &SendDecryptionPartResponse{}, nil
	default:
		return nil, fmt.Errorf("wire: unknown packet code %d", code)
	}
}

// ErrorResponse reports a request-level failure. The message is free-form,
// for operator diagnosis.
type ErrorResponse struct {
	Msg string
}

func (*ErrorResponse) Code() Code { return CodeErrorResponse }

func (p *ErrorResponse) encode(w io.Writer) error {
	return writeString(w, p.Msg)
}

func (p *ErrorResponse) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.Msg, err = readString(r)
	return err
}

// SignupRequest asks to register a new username.
type SignupRequest struct {
	Username string
}

func (*SignupRequest) Code() Code { return CodeSignupRequest }

func (p *SignupRequest) encode(w io.Writer) error {
	return writeString(w, p.Username)
}

func (p *SignupRequest) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.Username, err = readString(r)
	return err
}

// SignupStatus is the outcome of a signup attempt.
type SignupStatus uint8

const (
	SignupSuccess SignupStatus = iota
	SignupUsernameTaken
)

type SignupResponse struct {
	Status SignupStatus
}

func (*SignupResponse) Code() Code { return CodeSignupResponse }

func (p *SignupResponse) encode(w io.Writer) error {
	return writeU8(w, uint8(p.Status))
}

func (p *SignupResponse) decode(r io.Reader, _ ecc.Point) error {
	v, err := readU8(r)
	p.Status = SignupStatus(v)
	return err
}

// LoginRequest asks to authenticate as an existing username.
type LoginRequest struct {
	Username string
}

func (*LoginRequest) Code() Code { return CodeLoginRequest }

func (p *LoginRequest) encode(w io.Writer) error {
	return writeString(w, p.Username)
}

func (p *LoginRequest) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.Username, err = readString(r)
	return err
}

// LoginStatus is the outcome of a login attempt.
type LoginStatus uint8

const (
	LoginSuccess LoginStatus = iota
	LoginBadUsername
)

type LoginResponse struct {
	Status LoginStatus
}

func (*LoginResponse) Code() Code { return CodeLoginResponse }

func (p *LoginResponse) encode(w io.Writer) error {
	return writeU8(w, uint8(p.Status))
}

func (p *LoginResponse) decode(r io.Reader, _ ecc.Point) error {
	v, err := readU8(r)
	p.Status = LoginStatus(v)
	return err
}

// LogoutRequest ends the session; both sides close afterwards.
type LogoutRequest struct{}

func (*LogoutRequest) Code() Code { return CodeLogoutRequest }

func (*LogoutRequest) encode(io.Writer) error { return nil }

func (*LogoutRequest) decode(io.Reader, ecc.Point) error { return nil }

type LogoutResponse struct{}

func (*LogoutResponse) Code() Code { return CodeLogoutResponse }

func (*LogoutResponse) encode(io.Writer) error { return nil }

func (*LogoutResponse) decode(io.Reader, ecc.Point) error { return nil }

// MakeUserSetRequest asks to create a userset. The requester becomes an
// owner whether or not it is listed.
type MakeUserSetRequest struct {
	Owners              []string
	RegMembers          []string
	OwnersThreshold     uint8
	RegMembersThreshold uint8
}

func (*MakeUserSetRequest) Code() Code { return CodeMakeUserSetRequest }

func (p *MakeUserSetRequest) encode(w io.Writer) error {
	if err := writeU8(w, p.OwnersThreshold); err != nil {
		return err
	}
	if err := writeU8(w, p.RegMembersThreshold); err != nil {
		return err
	}
	if err := writeCount(w, len(p.Owners), MaxMembers, "owners"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.RegMembers), MaxMembers, "members"); err != nil {
		return err
	}
	for _, owner := range p.Owners {
		if err := writeString(w, owner); err != nil {
			return err
		}
	}
	for _, member := range p.RegMembers {
		if err := writeString(w, member); err != nil {
			return err
		}
	}
	return nil
}

func (p *MakeUserSetRequest) decode(r io.Reader, _ ecc.Point) error {
	var err error
	if p.OwnersThreshold, err = readU8(r); err != nil {
		return err
	}
	if p.RegMembersThreshold, err = readU8(r); err != nil {
		return err
	}
	ownersCount, err := readU8(r)
	if err != nil {
		return err
	}
	membersCount, err := readU8(r)
	if err != nil {
		return err
	}
	p.Owners = make([]string, ownersCount)
	for i := range p.Owners {
		if p.Owners[i], err = readString(r); err != nil {
			return err
		}
	}
	p.RegMembers = make([]string, membersCount)
	for i := range p.RegMembers {
		if p.RegMembers[i], err = readString(r); err != nil {
			return err
		}
	}
	return nil
}

// MakeUserSetResponse returns the created userset's id, its two public keys
// and the creator's shard on each layer.
type MakeUserSetResponse struct {
	UserSetID uuid.UUID
	PubReg    ecc.Point
	PubOwn    ecc.Point
	RegShard  sharing.Shard
	OwnShard  sharing.Shard
}

func (*MakeUserSetResponse) Code() Code { return CodeMakeUserSetResponse }

func (p *MakeUserSetResponse) encode(w io.Writer) error {
	if err := writeUUID(w, p.UserSetID); err != nil {
		return err
	}
	if err := writePoint(w, p.PubReg); err != nil {
		return err
	}
	if err := writePoint(w, p.PubOwn); err != nil {
		return err
	}
	if err := writeShard(w, p.RegShard); err != nil {
		return err
	}
	return writeShard(w, p.OwnShard)
}

func (p *MakeUserSetResponse) decode(r io.Reader, curve ecc.Point) error {
	var err error
	if p.UserSetID, err = readUUID(r); err != nil {
		return err
	}
	if p.PubReg, err = readPoint(r, curve); err != nil {
		return err
	}
	if p.PubOwn, err = readPoint(r, curve); err != nil {
		return err
	}
	if p.RegShard, err = readShard(r); err != nil {
		return err
	}
	p.OwnShard, err = readShard(r)
	return err
}

// GetUserSetsRequest asks for the ids of the usersets the requester owns.
type GetUserSetsRequest struct{}

func (*GetUserSetsRequest) Code() Code { return CodeGetUserSetsRequest }

func (*GetUserSetsRequest) encode(io.Writer) error { return nil }

func (*GetUserSetsRequest) decode(io.Reader, ecc.Point) error { return nil }

type GetUserSetsResponse struct {
	UserSetIDs []uuid.UUID
}

func (*GetUserSetsResponse) Code() Code { return CodeGetUserSetsResponse }

func (p *GetUserSetsResponse) encode(w io.Writer) error {
	if err := writeCount(w, len(p.UserSetIDs), MaxUserSets, "usersets"); err != nil {
		return err
	}
	for _, id := range p.UserSetIDs {
		if err := writeUUID(w, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *GetUserSetsResponse) decode(r io.Reader, _ ecc.Point) error {
	count, err := readU8(r)
	if err != nil {
		return err
	}
	p.UserSetIDs = make([]uuid.UUID, count)
	for i := range p.UserSetIDs {
		if p.UserSetIDs[i], err = readUUID(r); err != nil {
			return err
		}
	}
	return nil
}

// GetMembersRequest asks for the member lists of a userset.
type GetMembersRequest struct {
	UserSetID uuid.UUID
}

func (*GetMembersRequest) Code() Code { return CodeGetMembersRequest }

func (p *GetMembersRequest) encode(w io.Writer) error {
	return writeUUID(w, p.UserSetID)
}

func (p *GetMembersRequest) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.UserSetID, err = readUUID(r)
	return err
}

type GetMembersResponse struct {
	Owners     []string
	RegMembers []string
}

func (*GetMembersResponse) Code() Code { return CodeGetMembersResponse }

func (p *GetMembersResponse) encode(w io.Writer) error {
	if err := writeCount(w, len(p.Owners), MaxMembers, "owners"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.RegMembers), MaxMembers, "members"); err != nil {
		return err
	}
	for _, owner := range p.Owners {
		if err := writeString(w, owner); err != nil {
			return err
		}
	}
	for _, member := range p.RegMembers {
		if err := writeString(w, member); err != nil {
			return err
		}
	}
	return nil
}

func (p *GetMembersResponse) decode(r io.Reader, _ ecc.Point) error {
	ownersCount, err := readU8(r)
	if err != nil {
		return err
	}
	membersCount, err := readU8(r)
	if err != nil {
		return err
	}
	p.Owners = make([]string, ownersCount)
	for i := range p.Owners {
		if p.Owners[i], err = readString(r); err != nil {
			return err
		}
	}
	p.RegMembers = make([]string, membersCount)
	for i := range p.RegMembers {
		if p.RegMembers[i], err = readString(r); err != nil {
			return err
		}
	}
	return nil
}

// DecryptRequest initiates a decryption operation under a userset.
type DecryptRequest struct {
	UserSetID  uuid.UUID
	Ciphertext *elgamal.Ciphertext
}

func (*DecryptRequest) Code() Code { return CodeDecryptRequest }

func (p *DecryptRequest) encode(w io.Writer) error {
	if err := writeUUID(w, p.UserSetID); err != nil {
		return err
	}
	return writeCiphertext(w, p.Ciphertext)
}

func (p *DecryptRequest) decode(r io.Reader, curve ecc.Point) error {
	var err error
	if p.UserSetID, err = readUUID(r); err != nil {
		return err
	}
	p.Ciphertext, err = readCiphertext(r, curve)
	return err
}

// DecryptResponse acknowledges an initiated operation.
type DecryptResponse struct {
	OperationID uuid.UUID
}

func (*DecryptResponse) Code() Code { return CodeDecryptResponse }

func (p *DecryptResponse) encode(w io.Writer) error {
	return writeUUID(w, p.OperationID)
}

func (p *DecryptResponse) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.OperationID, err = readUUID(r)
	return err
}

// UpdateRequest drains the requester's pending update records.
type UpdateRequest struct{}

func (*UpdateRequest) Code() Code { return CodeUpdateRequest }

func (*UpdateRequest) encode(io.Writer) error { return nil }

func (*UpdateRequest) decode(io.Reader, ecc.Point) error { return nil }

// AddedAsMemberRecord informs a user it was added to a userset as a
// non-owner member.
type AddedAsMemberRecord struct {
	UserSetID uuid.UUID
	PubReg    ecc.Point
	PubOwn    ecc.Point
	RegShard  sharing.Shard
}

func (rec *AddedAsMemberRecord) encode(w io.Writer) error {
	if err := writeUUID(w, rec.UserSetID); err != nil {
		return err
	}
	if err := writePoint(w, rec.PubReg); err != nil {
		return err
	}
	if err := writePoint(w, rec.PubOwn); err != nil {
		return err
	}
	return writeShard(w, rec.RegShard)
}

func (rec *AddedAsMemberRecord) decode(r io.Reader, curve ecc.Point) error {
	var err error
	if rec.UserSetID, err = readUUID(r); err != nil {
		return err
	}
	if rec.PubReg, err = readPoint(r, curve); err != nil {
		return err
	}
	if rec.PubOwn, err = readPoint(r, curve); err != nil {
		return err
	}
	rec.RegShard, err = readShard(r)
	return err
}

// AddedAsOwnerRecord informs a user it was added to a userset as an owner;
// it carries the owner-layer shard on top of the member record.
type AddedAsOwnerRecord struct {
	AddedAsMemberRecord
	OwnShard sharing.Shard
}

func (rec *AddedAsOwnerRecord) encode(w io.Writer) error {
	if err := rec.AddedAsMemberRecord.encode(w); err != nil {
		return err
	}
	return writeShard(w, rec.OwnShard)
}

func (rec *AddedAsOwnerRecord) decode(r io.Reader, curve ecc.Point) error {
	if err := rec.AddedAsMemberRecord.decode(r, curve); err != nil {
		return err
	}
	var err error
	rec.OwnShard, err = readShard(r)
	return err
}

// ToDecryptRecord asks a user to compute and send its part for an operation.
// ShardIDs is the full reconstruction set of the user's layer.
type ToDecryptRecord struct {
	OperationID uuid.UUID
	Ciphertext  *elgamal.Ciphertext
	ShardIDs    []*big.Int
}

func (rec *ToDecryptRecord) encode(w io.Writer) error {
	if err := writeUUID(w, rec.OperationID); err != nil {
		return err
	}
	if err := writeCiphertext(w, rec.Ciphertext); err != nil {
		return err
	}
	if err := writeCount(w, len(rec.ShardIDs), MaxMembers, "shard ids"); err != nil {
		return err
	}
	for _, id := range rec.ShardIDs {
		if err := writeBigInt(w, id); err != nil {
			return err
		}
	}
	return nil
}

func (rec *ToDecryptRecord) decode(r io.Reader, curve ecc.Point) error {
	var err error
	if rec.OperationID, err = readUUID(r); err != nil {
		return err
	}
	if rec.Ciphertext, err = readCiphertext(r, curve); err != nil {
		return err
	}
	count, err := readU8(r)
	if err != nil {
		return err
	}
	rec.ShardIDs = make([]*big.Int, count)
	for i := range rec.ShardIDs {
		if rec.ShardIDs[i], err = readBigInt(r); err != nil {
			return err
		}
	}
	return nil
}

// FinishedDecryptionRecord delivers the collected parts of a finished
// operation to its initiator. Each layer's shard id vector is the full
// reconstruction set: the initiator's shard id first, then the contributors
// in commit order, so len(ShardIDs) == len(Parts)+1.
type FinishedDecryptionRecord struct {
	OperationID uuid.UUID
	UserSetID   uuid.UUID
	RegParts    []ecc.Point
	OwnParts    []ecc.Point
	RegShardIDs []*big.Int
	OwnShardIDs []*big.Int
}

func (rec *FinishedDecryptionRecord) encode(w io.Writer) error {
	if err := writeCount(w, len(rec.RegParts), MaxMembers, "reg parts"); err != nil {
		return err
	}
	if err := writeCount(w, len(rec.OwnParts), MaxMembers, "owner parts"); err != nil {
		return err
	}
	if err := writeUUID(w, rec.OperationID); err != nil {
		return err
	}
	if err := writeUUID(w, rec.UserSetID); err != nil {
		return err
	}
	for _, part := range rec.RegParts {
		if err := writePoint(w, part); err != nil {
			return err
		}
	}
	for _, part := range rec.OwnParts {
		if err := writePoint(w, part); err != nil {
			return err
		}
	}
	if err := writeCount(w, len(rec.RegShardIDs), MaxMembers, "reg shard ids"); err != nil {
		return err
	}
	for _, id := range rec.RegShardIDs {
		if err := writeBigInt(w, id); err != nil {
			return err
		}
	}
	if err := writeCount(w, len(rec.OwnShardIDs), MaxMembers, "owner shard ids"); err != nil {
		return err
	}
	for _, id := range rec.OwnShardIDs {
		if err := writeBigInt(w, id); err != nil {
			return err
		}
	}
	return nil
}

func (rec *FinishedDecryptionRecord) decode(r io.Reader, curve ecc.Point) error {
	regCount, err := readU8(r)
	if err != nil {
		return err
	}
	ownCount, err := readU8(r)
	if err != nil {
		return err
	}
	if rec.OperationID, err = readUUID(r); err != nil {
		return err
	}
	if rec.UserSetID, err = readUUID(r); err != nil {
		return err
	}
	rec.RegParts = make([]ecc.Point, regCount)
	for i := range rec.RegParts {
		if rec.RegParts[i], err = readPoint(r, curve); err != nil {
			return err
		}
	}
	rec.OwnParts = make([]ecc.Point, ownCount)
	for i := range rec.OwnParts {
		if rec.OwnParts[i], err = readPoint(r, curve); err != nil {
			return err
		}
	}
	regIDCount, err := readU8(r)
	if err != nil {
		return err
	}
	rec.RegShardIDs = make([]*big.Int, regIDCount)
	for i := range rec.RegShardIDs {
		if rec.RegShardIDs[i], err = readBigInt(r); err != nil {
			return err
		}
	}
	ownIDCount, err := readU8(r)
	if err != nil {
		return err
	}
	rec.OwnShardIDs = make([]*big.Int, ownIDCount)
	for i := range rec.OwnShardIDs {
		if rec.OwnShardIDs[i], err = readBigInt(r); err != nil {
			return err
		}
	}
	return nil
}

// UpdateResponse is the drained accumulator of a user's pending records.
type UpdateResponse struct {
	AddedAsOwner        []AddedAsOwnerRecord
	AddedAsRegMember    []AddedAsMemberRecord
	OnLookup            []uuid.UUID
	ToDecrypt           []ToDecryptRecord
	FinishedDecryptions []FinishedDecryptionRecord
}

func (*UpdateResponse) Code() Code { return CodeUpdateResponse }

// Empty reports whether the response carries no records.
func (p *UpdateResponse) Empty() bool {
	return len(p.AddedAsOwner) == 0 && len(p.AddedAsRegMember) == 0 &&
		len(p.OnLookup) == 0 && len(p.ToDecrypt) == 0 &&
		len(p.FinishedDecryptions) == 0
}

func (p *UpdateResponse) encode(w io.Writer) error {
	if err := writeCount(w, len(p.AddedAsOwner), MaxUserSets, "owner records"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.AddedAsRegMember), MaxUserSets, "member records"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.OnLookup), MaxLookups, "lookups"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.ToDecrypt), MaxPending, "to-decrypt records"); err != nil {
		return err
	}
	if err := writeCount(w, len(p.FinishedDecryptions), MaxResults, "finished records"); err != nil {
		return err
	}
	for i := range p.AddedAsOwner {
		if err := p.AddedAsOwner[i].encode(w); err != nil {
			return err
		}
	}
	for i := range p.AddedAsRegMember {
		if err := p.AddedAsRegMember[i].encode(w); err != nil {
			return err
		}
	}
	for _, opid := range p.OnLookup {
		if err := writeUUID(w, opid); err != nil {
			return err
		}
	}
	for i := range p.ToDecrypt {
		if err := p.ToDecrypt[i].encode(w); err != nil {
			return err
		}
	}
	for i := range p.FinishedDecryptions {
		if err := p.FinishedDecryptions[i].encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (p *UpdateResponse) decode(r io.Reader, curve ecc.Point) error {
	ownerCount, err := readU8(r)
	if err != nil {
		return err
	}
	memberCount, err := readU8(r)
	if err != nil {
		return err
	}
	lookupCount, err := readU8(r)
	if err != nil {
		return err
	}
	toDecryptCount, err := readU8(r)
	if err != nil {
		return err
	}
	finishedCount, err := readU8(r)
	if err != nil {
		return err
	}
	p.AddedAsOwner = make([]AddedAsOwnerRecord, ownerCount)
	for i := range p.AddedAsOwner {
		if err := p.AddedAsOwner[i].decode(r, curve); err != nil {
			return err
		}
	}
	p.AddedAsRegMember = make([]AddedAsMemberRecord, memberCount)
	for i := range p.AddedAsRegMember {
		if err := p.AddedAsRegMember[i].decode(r, curve); err != nil {
			return err
		}
	}
	p.OnLookup = make([]uuid.UUID, lookupCount)
	for i := range p.OnLookup {
		if p.OnLookup[i], err = readUUID(r); err != nil {
			return err
		}
	}
	p.ToDecrypt = make([]ToDecryptRecord, toDecryptCount)
	for i := range p.ToDecrypt {
		if err := p.ToDecrypt[i].decode(r, curve); err != nil {
			return err
		}
	}
	p.FinishedDecryptions = make([]FinishedDecryptionRecord, finishedCount)
	for i := range p.FinishedDecryptions {
		if err := p.FinishedDecryptions[i].decode(r, curve); err != nil {
			return err
		}
	}
	return nil
}

// DecryptParticipateRequest volunteers the requester for an operation it saw
// in an on-lookup update.
type DecryptParticipateRequest struct {
	OperationID uuid.UUID
}

func (*DecryptParticipateRequest) Code() Code { return CodeDecryptParticipateRequest }

func (p *DecryptParticipateRequest) encode(w io.Writer) error {
	return writeUUID(w, p.OperationID)
}

func (p *DecryptParticipateRequest) decode(r io.Reader, _ ecc.Point) error {
	var err error
	p.OperationID, err = readUUID(r)
	return err
}

// ParticipateStatus tells a volunteer what the server expects of it.
type ParticipateStatus uint8

const (
	// SendRegLayerPart: the volunteer will be asked for a reg-layer part.
	SendRegLayerPart ParticipateStatus = iota
	// SendOwnerLayerPart: the volunteer will be asked for an owner-layer part.
	SendOwnerLayerPart
	// NotRequired: the operation no longer needs this volunteer.
	NotRequired
)

type DecryptParticipateResponse struct {
	Status ParticipateStatus
}

func (*DecryptParticipateResponse) Code() Code { return CodeDecryptParticipateResponse }

func (p *DecryptParticipateResponse) encode(w io.Writer) error {
	return writeU8(w, uint8(p.Status))
}

func (p *DecryptParticipateResponse) decode(r io.Reader, _ ecc.Point) error {
	v, err := readU8(r)
	p.Status = ParticipateStatus(v)
	return err
}

// SendDecryptionPartRequest delivers a computed part for an operation.
type SendDecryptionPartRequest struct {
	OperationID uuid.UUID
	Part        ecc.Point
}

func (*SendDecryptionPartRequest) Code() Code { return CodeSendDecryptionPartRequest }

func (p *SendDecryptionPartRequest) encode(w io.Writer) error {
	if err := writeUUID(w, p.OperationID); err != nil {
		return err
	}
	return writePoint(w, p.Part)
}

func (p *SendDecryptionPartRequest) decode(r io.Reader, curve ecc.Point) error {
	var err error
	if p.OperationID, err = readUUID(r); err != nil {
		return err
	}
	p.Part, err = readPoint(r, curve)
	return err
}

type SendDecryptionPartResponse struct{}

func (*SendDecryptionPartResponse) Code() Code { return CodeSendDecryptionPartResponse }

func (*SendDecryptionPartResponse) encode(io.Writer) error { return nil }

func (*SendDecryptionPartResponse) decode(io.Reader, ecc.Point) error { return nil }
