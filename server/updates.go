package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/log"
	"github.com/quorumseal/quorumseal/wire"
)

// UpdateManager accumulates per-user update records until the user drains
// them with an Update request. Records of each kind are kept in the order
// they were committed.
type UpdateManager struct {
	mu      sync.Mutex
	updates map[string]*wire.UpdateResponse
}

// NewUpdateManager returns an empty update manager.
func NewUpdateManager() *UpdateManager {
	return &UpdateManager{updates: make(map[string]*wire.UpdateResponse)}
}

// Retrieve atomically moves the user's accumulated updates out of the
// manager. A user with nothing pending gets an empty response.
func (m *UpdateManager) Retrieve(username string) *wire.UpdateResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.updates[username]
	if !ok {
		return &wire.UpdateResponse{}
	}
	delete(m.updates, username)
	return resp
}

// RegisterOwner records that the user was added to a userset as an owner,
// carrying its shards on both layers.
func (m *UpdateManager) RegisterOwner(username string, rec wire.AddedAsOwnerRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.pending(username)
	if len(u.AddedAsOwner) >= wire.MaxUserSets {
		log.Warnw("dropping added-as-owner record, user queue full", "user", username)
		return
	}
	u.AddedAsOwner = append(u.AddedAsOwner, rec)
}

// RegisterRegMember records that the user was added to a userset as a
// non-owner member.
func (m *UpdateManager) RegisterRegMember(username string, rec wire.AddedAsMemberRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.pending(username)
	if len(u.AddedAsRegMember) >= wire.MaxUserSets {
		log.Warnw("dropping added-as-member record, user queue full", "user", username)
		return
	}
	u.AddedAsRegMember = append(u.AddedAsRegMember, rec)
}

// RegisterLookup records an operation the user may volunteer for.
func (m *UpdateManager) RegisterLookup(username string, opid uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.pending(username)
	if len(u.OnLookup) >= wire.MaxLookups {
		log.Warnw("dropping lookup record, user queue full", "user", username, "opid", opid)
		return
	}
	u.OnLookup = append(u.OnLookup, opid)
}

// RegisterToDecrypt records that the user's part is awaited for an
// operation.
func (m *UpdateManager) RegisterToDecrypt(username string, rec wire.ToDecryptRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.pending(username)
	if len(u.ToDecrypt) >= wire.MaxPending {
		log.Warnw("dropping to-decrypt record, user queue full", "user", username, "opid", rec.OperationID)
		return
	}
	u.ToDecrypt = append(u.ToDecrypt, rec)
}

// RegisterFinished records a finished operation for its initiator.
func (m *UpdateManager) RegisterFinished(username string, rec wire.FinishedDecryptionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.pending(username)
	if len(u.FinishedDecryptions) >= wire.MaxResults {
		log.Warnw("dropping finished record, user queue full", "user", username, "opid", rec.OperationID)
		return
	}
	u.FinishedDecryptions = append(u.FinishedDecryptions, rec)
}

func (m *UpdateManager) pending(username string) *wire.UpdateResponse {
	u, ok := m.updates[username]
	if !ok {
		u = &wire.UpdateResponse{}
		m.updates[username] = u
	}
	return u
}
