package server_test

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"net"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/client"
	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/crypto/sharing"
	"github.com/quorumseal/quorumseal/db"
	"github.com/quorumseal/quorumseal/db/memorydb"
	"github.com/quorumseal/quorumseal/server"
	"github.com/quorumseal/quorumseal/wire"
)

func startServer(t *testing.T, mode wire.Mode) (*server.Server, string, ecc.Point) {
	t.Helper()
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	database, err := memorydb.New(db.Options{})
	c.Assert(err, qt.IsNil)

	srv := server.New(server.Config{
		Addr:    "127.0.0.1:0",
		Curve:   curve,
		Mode:    mode,
		Storage: server.NewDBStorage(database, curve),
	})
	c.Assert(srv.Start(), qt.IsNil)
	t.Cleanup(func() {
		// tests that stop the server themselves make this a no-op error
		_ = srv.Stop()
	})
	return srv, srv.Addr().String(), curve
}

// testUser is a connected client plus its locally accumulated shards.
type testUser struct {
	c    *qt.C
	cli  *client.Client
	name string

	pubReg    map[uuid.UUID]ecc.Point
	pubOwn    map[uuid.UUID]ecc.Point
	regShards map[uuid.UUID]sharing.Shard
	ownShards map[uuid.UUID]sharing.Shard
}

func connectUser(c *qt.C, addr string, curve ecc.Point, mode wire.Mode, name string) *testUser {
	cli, err := client.Dial(addr, curve, mode)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = cli.Close() })

	status, err := cli.Signup(name)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SignupSuccess)

	return &testUser{
		c:         c,
		cli:       cli,
		name:      name,
		pubReg:    make(map[uuid.UUID]ecc.Point),
		pubOwn:    make(map[uuid.UUID]ecc.Point),
		regShards: make(map[uuid.UUID]sharing.Shard),
		ownShards: make(map[uuid.UUID]sharing.Shard),
	}
}

// makeUserSet creates a userset and records the creator's shards.
func (u *testUser) makeUserSet(owners, members []string, tOwn, tReg uint8) uuid.UUID {
	resp, err := u.cli.MakeUserSet(owners, members, tOwn, tReg)
	u.c.Assert(err, qt.IsNil)
	u.pubReg[resp.UserSetID] = resp.PubReg
	u.pubOwn[resp.UserSetID] = resp.PubOwn
	u.regShards[resp.UserSetID] = resp.RegShard
	u.ownShards[resp.UserSetID] = resp.OwnShard
	return resp.UserSetID
}

// update drains the user's updates and absorbs membership records.
func (u *testUser) update() *wire.UpdateResponse {
	resp, err := u.cli.Update()
	u.c.Assert(err, qt.IsNil)
	for i := range resp.AddedAsOwner {
		rec := &resp.AddedAsOwner[i]
		u.pubReg[rec.UserSetID] = rec.PubReg
		u.pubOwn[rec.UserSetID] = rec.PubOwn
		u.regShards[rec.UserSetID] = rec.RegShard
		u.ownShards[rec.UserSetID] = rec.OwnShard
	}
	for i := range resp.AddedAsRegMember {
		rec := &resp.AddedAsRegMember[i]
		u.pubReg[rec.UserSetID] = rec.PubReg
		u.pubOwn[rec.UserSetID] = rec.PubOwn
		u.regShards[rec.UserSetID] = rec.RegShard
	}
	return resp
}

// sendPartFromUpdate drains updates, finds the to-decrypt record for the
// operation and sends the part the status calls for.
func (u *testUser) sendPartFromUpdate(setID, opid uuid.UUID, status wire.ParticipateStatus) {
	resp := u.update()
	for i := range resp.ToDecrypt {
		rec := &resp.ToDecrypt[i]
		if rec.OperationID != opid {
			continue
		}
		var part ecc.Point
		var err error
		switch status {
		case wire.SendRegLayerPart:
			part, err = client.ComputeRegPart(rec, u.regShards[setID])
		case wire.SendOwnerLayerPart:
			part, err = client.ComputeOwnerPart(rec, u.ownShards[setID])
		default:
			u.c.Fatalf("user %s has no layer to send for %s", u.name, opid)
		}
		u.c.Assert(err, qt.IsNil)
		u.c.Assert(u.cli.SendPart(opid, part), qt.IsNil)
		return
	}
	u.c.Fatalf("user %s found no to-decrypt record for %s", u.name, opid)
}

// finishAndCombine drains the initiator's updates, checks the finished
// record invariants and recovers the plaintext.
func (u *testUser) finishAndCombine(setID, opid uuid.UUID, ct *elgamal.Ciphertext) []byte {
	resp := u.update()
	u.c.Assert(resp.FinishedDecryptions, qt.HasLen, 1)
	rec := &resp.FinishedDecryptions[0]
	u.c.Assert(rec.OperationID, qt.Equals, opid)
	u.c.Assert(rec.UserSetID, qt.Equals, setID)
	u.c.Assert(rec.RegShardIDs, qt.HasLen, len(rec.RegParts)+1)
	u.c.Assert(rec.OwnShardIDs, qt.HasLen, len(rec.OwnParts)+1)

	plaintext, err := client.Combine(rec, ct, u.regShards[setID], u.ownShards[setID])
	u.c.Assert(err, qt.IsNil)
	return plaintext
}

func (u *testUser) encrypt(setID uuid.UUID, msg []byte) *elgamal.Ciphertext {
	ct, err := elgamal.Encrypt(msg, u.pubReg[setID], u.pubOwn[setID])
	u.c.Assert(err, qt.IsNil)
	return ct
}

// hasLookup reports whether the update response lists the operation.
func hasLookup(resp *wire.UpdateResponse, opid uuid.UUID) bool {
	for _, id := range resp.OnLookup {
		if id == opid {
			return true
		}
	}
	return false
}

func TestTwoPartyMinimal(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "owner")
	member := connectUser(c, addr, curve, wire.ModeEncrypted, "member")

	setID := owner.makeUserSet(nil, []string{"member"}, 0, 1)

	msg := []byte("Hello There")
	ct := owner.encrypt(setID, msg)
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	resp := member.update()
	c.Assert(hasLookup(resp, opid), qt.IsTrue)
	status, err := member.cli.Participate(opid)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SendRegLayerPart)
	member.sendPartFromUpdate(setID, opid, status)

	c.Assert(owner.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestTwoMembersBothRequired(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "owner")
	m1 := connectUser(c, addr, curve, wire.ModeEncrypted, "m1")
	m2 := connectUser(c, addr, curve, wire.ModeEncrypted, "m2")

	setID := owner.makeUserSet(nil, []string{"m1", "m2"}, 0, 2)

	msg := []byte("two of two")
	ct := owner.encrypt(setID, msg)
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	for _, m := range []*testUser{m1, m2} {
		m.update()
		status, err := m.cli.Participate(opid)
		c.Assert(err, qt.IsNil)
		c.Assert(status, qt.Equals, wire.SendRegLayerPart)
	}
	// selection completed with m2: now both get their to-decrypt records
	m1.sendPartFromUpdate(setID, opid, wire.SendRegLayerPart)
	m2.sendPartFromUpdate(setID, opid, wire.SendRegLayerPart)

	c.Assert(owner.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestExtraMemberNotRequired(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "owner")
	members := []*testUser{
		connectUser(c, addr, curve, wire.ModeEncrypted, "m1"),
		connectUser(c, addr, curve, wire.ModeEncrypted, "m2"),
		connectUser(c, addr, curve, wire.ModeEncrypted, "m3"),
	}

	setID := owner.makeUserSet(nil, []string{"m1", "m2", "m3"}, 0, 1)

	msg := []byte("one is enough")
	ct := owner.encrypt(setID, msg)
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	for _, m := range members {
		m.update()
	}
	status, err := members[0].cli.Participate(opid)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SendRegLayerPart)
	for _, m := range members[1:] {
		status, err := m.cli.Participate(opid)
		c.Assert(err, qt.IsNil)
		c.Assert(status, qt.Equals, wire.NotRequired)
	}
	members[0].sendPartFromUpdate(setID, opid, wire.SendRegLayerPart)

	c.Assert(owner.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestTwoLayersActive(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "owner")
	owner2 := connectUser(c, addr, curve, wire.ModeEncrypted, "owner2")
	member := connectUser(c, addr, curve, wire.ModeEncrypted, "member")

	setID := owner.makeUserSet([]string{"owner2"}, []string{"member"}, 1, 1)

	msg := []byte("both layers")
	ct := owner.encrypt(setID, msg)
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	owner2.update()
	status, err := owner2.cli.Participate(opid)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SendOwnerLayerPart)
	owner2.sendPartFromUpdate(setID, opid, status)

	member.update()
	status, err = member.cli.Participate(opid)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SendRegLayerPart)
	member.sendPartFromUpdate(setID, opid, status)

	c.Assert(owner.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestOwnersOnlyUserSet(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	o1 := connectUser(c, addr, curve, wire.ModeEncrypted, "o1")
	o2 := connectUser(c, addr, curve, wire.ModeEncrypted, "o2")
	o3 := connectUser(c, addr, curve, wire.ModeEncrypted, "o3")

	setID := o1.makeUserSet([]string{"o2", "o3"}, nil, 2, 0)

	msg := []byte("owners only")
	ct := o1.encrypt(setID, msg)
	opid, err := o1.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	for _, o := range []*testUser{o2, o3} {
		o.update()
		status, err := o.cli.Participate(opid)
		c.Assert(err, qt.IsNil)
		c.Assert(status, qt.Equals, wire.SendOwnerLayerPart)
	}
	o2.sendPartFromUpdate(setID, opid, wire.SendOwnerLayerPart)
	o3.sendPartFromUpdate(setID, opid, wire.SendOwnerLayerPart)

	c.Assert(o1.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestSingleOwnerSelfDecryption(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "loner")
	setID := owner.makeUserSet(nil, nil, 0, 0)

	msg := []byte("just me")
	ct := owner.encrypt(setID, msg)
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	// both thresholds zero: finished without any other participant
	c.Assert(owner.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)
}

func TestMultiRoundStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test")
	}
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	const (
		numOwners  = 8
		numMembers = 15
		tOwn       = 5
		tReg       = 10
		rounds     = 5
	)

	users := make(map[string]*testUser)
	var ownerNames, memberNames []string
	for i := 0; i < numOwners; i++ {
		name := fmt.Sprintf("o%d", i)
		users[name] = connectUser(c, addr, curve, wire.ModeEncrypted, name)
		ownerNames = append(ownerNames, name)
	}
	for i := 0; i < numMembers; i++ {
		name := fmt.Sprintf("m%d", i)
		users[name] = connectUser(c, addr, curve, wire.ModeEncrypted, name)
		memberNames = append(memberNames, name)
	}

	creator := users[ownerNames[0]]
	setID := creator.makeUserSet(ownerNames[1:], memberNames, tOwn, tReg)
	for name, u := range users {
		if name != creator.name {
			u.update()
		}
	}

	rng := mrand.New(mrand.NewSource(1))
	for round := 0; round < rounds; round++ {
		initiator := users[ownerNames[rng.Intn(numOwners)]]

		msg := make([]byte, 256)
		_, err := rand.Read(msg)
		c.Assert(err, qt.IsNil)
		ct := initiator.encrypt(setID, msg)
		opid, err := initiator.cli.Decrypt(setID, ct)
		c.Assert(err, qt.IsNil)

		// everyone else volunteers in random order
		var names []string
		for name := range users {
			if name != initiator.name {
				names = append(names, name)
			}
		}
		rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

		accepted := make(map[string]wire.ParticipateStatus)
		for _, name := range names {
			status, err := users[name].cli.Participate(opid)
			c.Assert(err, qt.IsNil)
			if status != wire.NotRequired {
				accepted[name] = status
			}
		}
		c.Assert(accepted, qt.HasLen, tOwn+tReg)

		for name, status := range accepted {
			users[name].sendPartFromUpdate(setID, opid, status)
		}

		c.Assert(initiator.finishAndCombine(setID, opid, ct), qt.DeepEquals, msg)

		// drain leftover lookups so they do not accumulate across rounds
		for _, name := range names {
			users[name].update()
		}
	}
}

func TestValidationErrors(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	owner := connectUser(c, addr, curve, wire.ModeEncrypted, "owner")
	member := connectUser(c, addr, curve, wire.ModeEncrypted, "member")

	// unknown user in the member list
	_, err := owner.cli.MakeUserSet(nil, []string{"ghost"}, 0, 0)
	c.Assert(err, qt.ErrorAs, new(*client.ServerError))

	// threshold out of range
	_, err = owner.cli.MakeUserSet(nil, []string{"member"}, 2, 0)
	c.Assert(err, qt.ErrorAs, new(*client.ServerError))

	setID := owner.makeUserSet(nil, []string{"member"}, 0, 1)
	ct := owner.encrypt(setID, []byte("x"))

	// non-owner cannot initiate a decryption
	member.update()
	_, err = member.cli.Decrypt(setID, ct)
	c.Assert(err, qt.ErrorAs, new(*client.ServerError))

	// unknown userset
	_, err = owner.cli.Decrypt(uuid.New(), ct)
	c.Assert(err, qt.ErrorAs, new(*client.ServerError))

	// the connection survives validation errors
	_, err = owner.cli.UserSets()
	c.Assert(err, qt.IsNil)
}

func TestRequestBeforeLogin(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	cli, err := client.Dial(addr, curve, wire.ModeEncrypted)
	c.Assert(err, qt.IsNil)
	defer cli.Close()

	_, err = cli.UserSets()
	c.Assert(err, qt.ErrorAs, new(*client.ServerError))

	// signup still works afterwards
	status, err := cli.Signup("late")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SignupSuccess)
}

func TestLoginFlow(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	first, err := client.Dial(addr, curve, wire.ModeEncrypted)
	c.Assert(err, qt.IsNil)
	status, err := first.Signup("alice")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, wire.SignupSuccess)
	c.Assert(first.Logout(), qt.IsNil)

	second, err := client.Dial(addr, curve, wire.ModeEncrypted)
	c.Assert(err, qt.IsNil)
	defer second.Close()
	loginStatus, err := second.Login("bob")
	c.Assert(err, qt.IsNil)
	c.Assert(loginStatus, qt.Equals, wire.LoginBadUsername)
	loginStatus, err = second.Login("alice")
	c.Assert(err, qt.IsNil)
	c.Assert(loginStatus, qt.Equals, wire.LoginSuccess)
}

func TestConcurrentSignupSameUsername(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeInline)

	const attempts = 8
	statuses := make(chan wire.SignupStatus, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cli, err := client.Dial(addr, curve, wire.ModeInline)
			if err != nil {
				return
			}
			defer cli.Close()
			status, err := cli.Signup("highlander")
			if err == nil {
				statuses <- status
			}
		}()
	}
	wg.Wait()
	close(statuses)

	succeeded, taken := 0, 0
	for status := range statuses {
		switch status {
		case wire.SignupSuccess:
			succeeded++
		case wire.SignupUsernameTaken:
			taken++
		}
	}
	c.Assert(succeeded, qt.Equals, 1)
	c.Assert(taken, qt.Equals, attempts-1)
}

func TestConcurrentParticipation(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeInline)

	owner := connectUser(c, addr, curve, wire.ModeInline, "owner")
	const numMembers = 6
	const required = 2
	members := make([]*testUser, numMembers)
	names := make([]string, numMembers)
	for i := range members {
		names[i] = fmt.Sprintf("m%d", i)
		members[i] = connectUser(c, addr, curve, wire.ModeInline, names[i])
	}

	setID := owner.makeUserSet(nil, names, 0, required)
	ct := owner.encrypt(setID, []byte("race"))
	opid, err := owner.cli.Decrypt(setID, ct)
	c.Assert(err, qt.IsNil)

	statuses := make(chan wire.ParticipateStatus, numMembers)
	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(m *testUser) {
			defer wg.Done()
			status, err := m.cli.Participate(opid)
			if err == nil {
				statuses <- status
			}
		}(m)
	}
	wg.Wait()
	close(statuses)

	sendPart, notRequired := 0, 0
	for status := range statuses {
		switch status {
		case wire.SendRegLayerPart:
			sendPart++
		case wire.NotRequired:
			notRequired++
		}
	}
	c.Assert(sendPart, qt.Equals, required)
	c.Assert(notRequired, qt.Equals, numMembers-required)
}

func TestStopWithInFlightConnections(t *testing.T) {
	c := qt.New(t)
	srv, addr, curve := startServer(t, wire.ModeInline)

	// a few clients hammering updates while the server stops
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cli, err := client.Dial(addr, curve, wire.ModeInline)
			if err != nil {
				return
			}
			defer cli.Close()
			if _, err := cli.Signup(fmt.Sprintf("busy%d", i)); err != nil {
				return
			}
			for {
				if _, err := cli.Update(); err != nil {
					return // server went away
				}
			}
		}(i)
	}

	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Check(srv.Stop(), qt.IsNil)
		srv.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		c.Fatal("server did not stop within bounded time")
	}
	wg.Wait()
}

func TestTamperedRequestGetsErrorResponse(t *testing.T) {
	c := qt.New(t)
	_, addr, curve := startServer(t, wire.ModeEncrypted)

	conn, err := net.Dial("tcp", addr)
	c.Assert(err, qt.IsNil)
	defer conn.Close()
	codec, err := wire.ClientHandshake(conn, curve, wire.ModeEncrypted)
	c.Assert(err, qt.IsNil)

	// hand-craft a frame whose AES body cannot authenticate: a signup code
	// byte followed by a garbage ciphertext in the two-halves framing
	frame := []byte{byte(wire.CodeSignupRequest)}
	var lens [16]byte
	binary.LittleEndian.PutUint64(lens[0:8], 12)
	binary.LittleEndian.PutUint64(lens[8:16], 24)
	frame = append(frame, lens[:]...)
	frame = append(frame, make([]byte, 36)...)
	_, err = conn.Write(frame)
	c.Assert(err, qt.IsNil)

	resp, err := codec.ReadPacket()
	c.Assert(err, qt.IsNil)
	_, ok := resp.(*wire.ErrorResponse)
	c.Assert(ok, qt.IsTrue)

	// the connection stays usable
	c.Assert(codec.WritePacket(&wire.SignupRequest{Username: "intact"}), qt.IsNil)
	pkt, err := codec.ReadPacket()
	c.Assert(err, qt.IsNil)
	sr, ok := pkt.(*wire.SignupResponse)
	c.Assert(ok, qt.IsTrue)
	c.Assert(sr.Status, qt.Equals, wire.SignupSuccess)
}
