// quorumseal-client is a menu-driven terminal client for the threshold
// decryption service. Usage: quorumseal-client [ip [port]].
package main

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/quorumseal/quorumseal/client"
	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/server"
	"github.com/quorumseal/quorumseal/wire"
)

type session struct {
	cli      *client.Client
	username string
	profile  *client.ProfileStore
	records  map[uuid.UUID]*client.ProfileRecord

	// operations this user initiated, by opid
	initiated map[uuid.UUID]*elgamal.Ciphertext
	// last locally encrypted message, for a subsequent decrypt request
	lastCiphertext *elgamal.Ciphertext
	// layer this user was accepted for, by opid
	accepted map[uuid.UUID]wire.ParticipateStatus
}

var stdin = bufio.NewReader(os.Stdin)

func input(msg string) string {
	fmt.Print(msg)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func inputUUID(msg string) uuid.UUID {
	for {
		id, err := uuid.Parse(input(msg))
		if err == nil {
			return id
		}
		fmt.Println("Bad input, try again.")
	}
}

func inputNum(msg string) uint8 {
	for {
		n, err := strconv.ParseUint(input(msg), 10, 8)
		if err == nil {
			return uint8(n)
		}
		fmt.Println("Bad input (should be a number in 0..255), try again.")
	}
}

func inputList(msg string) []string {
	fmt.Println(msg)
	var res []string
	for {
		line := input("")
		if line == "" {
			return res
		}
		res = append(res, line)
	}
}

func main() {
	curveType := flag.String("curve", curves.DefaultCurveType, "curve type")
	mode := flag.String("handshake", string(wire.ModeEncrypted), "packet handshake mode")
	profilePath := flag.String("profile", "", "profile file path (default <username>.profile)")
	flag.Parse()

	host := "127.0.0.1"
	port := server.DefaultPort
	args := flag.Args()
	if len(args) > 2 {
		fmt.Printf("Usage: %s [ip [port]]\n", os.Args[0])
		os.Exit(1)
	}
	if len(args) >= 1 {
		host = args[0]
	}
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 1 || p > 65535 {
			fmt.Printf("Bad port: %s\n", args[1])
			os.Exit(1)
		}
		port = p
	}

	curve := curves.New(*curveType)
	cli, err := client.Dial(fmt.Sprintf("%s:%d", host, port), curve, wire.Mode(*mode))
	if err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		os.Exit(1)
	}

	s := &session{
		cli:       cli,
		records:   make(map[uuid.UUID]*client.ProfileRecord),
		initiated: make(map[uuid.UUID]*elgamal.Ciphertext),
		accepted:  make(map[uuid.UUID]wire.ParticipateStatus),
	}
	if !s.loginMenu() {
		return
	}

	if *profilePath == "" {
		*profilePath = s.username + ".profile"
	}
	password := input("Enter profile password: ")
	s.profile = client.OpenProfileStore(*profilePath, curve, s.username, password)
	if records, err := s.profile.Load(); err != nil {
		fmt.Printf("Warning: cannot load profile: %v\n", err)
	} else {
		for _, rec := range records {
			s.records[rec.UserSetID] = rec
		}
	}

	s.mainMenu()
}

func (s *session) loginMenu() bool {
	for {
		fmt.Println("\nLogin Menu")
		fmt.Println("==========")
		fmt.Println("1.\tSignup")
		fmt.Println("2.\tLogin")
		fmt.Println("3.\tExit")

		username := ""
		switch input("Enter your choice: ") {
		case "1":
			username = input("Enter username: ")
			status, err := s.cli.Signup(username)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if status != wire.SignupSuccess {
				fmt.Println("Signup failed: username already taken.")
				continue
			}
		case "2":
			username = input("Enter username: ")
			status, err := s.cli.Login(username)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if status != wire.LoginSuccess {
				fmt.Println("Login failed: bad username.")
				continue
			}
		case "3":
			_ = s.cli.Logout()
			return false
		default:
			fmt.Println("Bad choice, try again.")
			continue
		}
		s.username = username
		fmt.Printf("Connected as %q.\n", username)
		return true
	}
}

func (s *session) mainMenu() {
	actions := []struct {
		desc string
		fn   func() error
	}{
		{"Create a new userset", s.makeUserSet},
		{"Show my usersets", s.showUserSets},
		{"Show userset's members", s.showMembers},
		{"Encrypt a message", s.encrypt},
		{"Decrypt a message", s.decrypt},
		{"Run an update cycle", s.update},
		{"Participate in decryption", s.participate},
	}
	for {
		fmt.Println("\nMain Menu")
		fmt.Println("=========")
		for i, a := range actions {
			fmt.Printf("%d.\t%s\n", i+1, a.desc)
		}
		fmt.Printf("%d.\tExit\n", len(actions)+1)

		choice, err := strconv.Atoi(input("Enter your choice: "))
		if err != nil || choice < 1 || choice > len(actions)+1 {
			fmt.Println("Bad choice, try again.")
			continue
		}
		if choice == len(actions)+1 {
			_ = s.cli.Logout()
			fmt.Println("Goodbye!")
			return
		}
		if err := actions[choice-1].fn(); err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func (s *session) saveRecord(rec *client.ProfileRecord) {
	s.records[rec.UserSetID] = rec
	if err := s.profile.Append(rec); err != nil {
		fmt.Printf("Warning: cannot save profile: %v\n", err)
	}
}

func (s *session) makeUserSet() error {
	owners := inputList("Enter owners (usernames, one per line, end with an empty line):")
	regMembers := inputList("Enter non-owner members (usernames, one per line, end with an empty line):")
	ownersThreshold := inputNum("Enter owners threshold for decryption: ")
	regThreshold := inputNum("Enter non-owner members threshold for decryption: ")

	resp, err := s.cli.MakeUserSet(owners, regMembers, ownersThreshold, regThreshold)
	if err != nil {
		return err
	}
	ownShard := resp.OwnShard
	s.saveRecord(&client.ProfileRecord{
		UserSetID: resp.UserSetID,
		PubReg:    resp.PubReg,
		PubOwn:    resp.PubOwn,
		RegShard:  resp.RegShard,
		OwnShard:  &ownShard,
	})

	fmt.Println("Userset created successfully:")
	fmt.Println("\tID:", resp.UserSetID)
	return nil
}

func (s *session) showUserSets() error {
	ids, err := s.cli.UserSets()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("You do not own any usersets.")
		return nil
	}
	fmt.Println("IDs of owned usersets:")
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func (s *session) showMembers() error {
	resp, err := s.cli.Members(inputUUID("Enter userset ID: "))
	if err != nil {
		return err
	}
	fmt.Println("Owners:")
	for _, owner := range resp.Owners {
		fmt.Println(owner)
	}
	fmt.Println("Non-owners:")
	for _, member := range resp.RegMembers {
		fmt.Println(member)
	}
	return nil
}

func (s *session) encrypt() error {
	id := inputUUID("Enter userset ID to encrypt under: ")
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("no local record of userset %s", id)
	}
	msg := input("Enter message to encrypt: ")
	ct, err := elgamal.Encrypt([]byte(msg), rec.PubReg, rec.PubOwn)
	if err != nil {
		return err
	}
	s.lastCiphertext = ct
	fmt.Println("Encrypted message:")
	fmt.Println("c3a:", base64.StdEncoding.EncodeToString(ct.C3.Prefix))
	fmt.Println("c3b:", base64.StdEncoding.EncodeToString(ct.C3.Body))
	return nil
}

func (s *session) decrypt() error {
	id := inputUUID("Enter userset ID to decrypt under: ")
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("no local record of userset %s", id)
	}
	if s.lastCiphertext == nil {
		return fmt.Errorf("encrypt a message first")
	}
	ct := s.lastCiphertext
	opid, err := s.cli.Decrypt(id, ct)
	if err != nil {
		return err
	}
	s.initiated[opid] = ct
	fmt.Println("Decryption request submitted. Operation ID:", opid)
	return nil
}

func (s *session) update() error {
	resp, err := s.cli.Update()
	if err != nil {
		return err
	}
	if resp.Empty() {
		fmt.Println("Nothing new.")
		return nil
	}
	for i := range resp.AddedAsOwner {
		rec := &resp.AddedAsOwner[i]
		ownShard := rec.OwnShard
		s.saveRecord(&client.ProfileRecord{
			UserSetID: rec.UserSetID,
			PubReg:    rec.PubReg,
			PubOwn:    rec.PubOwn,
			RegShard:  rec.RegShard,
			OwnShard:  &ownShard,
		})
		fmt.Println("Added as owner to userset", rec.UserSetID)
	}
	for i := range resp.AddedAsRegMember {
		rec := &resp.AddedAsRegMember[i]
		s.saveRecord(&client.ProfileRecord{
			UserSetID: rec.UserSetID,
			PubReg:    rec.PubReg,
			PubOwn:    rec.PubOwn,
			RegShard:  rec.RegShard,
		})
		fmt.Println("Added as member to userset", rec.UserSetID)
	}
	for _, opid := range resp.OnLookup {
		fmt.Println("Pending decryption operation:", opid)
	}
	for i := range resp.ToDecrypt {
		if err := s.handleToDecrypt(&resp.ToDecrypt[i]); err != nil {
			fmt.Println("Error computing part:", err)
		}
	}
	for i := range resp.FinishedDecryptions {
		if err := s.handleFinished(&resp.FinishedDecryptions[i]); err != nil {
			fmt.Println("Error combining decryption:", err)
		}
	}
	return nil
}

func (s *session) handleToDecrypt(rec *wire.ToDecryptRecord) error {
	status, ok := s.accepted[rec.OperationID]
	if !ok {
		return fmt.Errorf("no participation recorded for operation %s", rec.OperationID)
	}
	// find our shards: the record does not name the userset, so scan for the
	// one whose shard id is in the reconstruction set
	for _, prof := range s.records {
		shard := prof.RegShard
		if status == wire.SendOwnerLayerPart {
			if prof.OwnShard == nil {
				continue
			}
			shard = *prof.OwnShard
		}
		inSet := false
		for _, id := range rec.ShardIDs {
			if id.Cmp(shard.ID) == 0 {
				inSet = true
				break
			}
		}
		if !inSet {
			continue
		}
		var part ecc.Point
		var err error
		if status == wire.SendOwnerLayerPart {
			part, err = client.ComputeOwnerPart(rec, shard)
		} else {
			part, err = client.ComputeRegPart(rec, shard)
		}
		if err != nil {
			return err
		}
		if err := s.cli.SendPart(rec.OperationID, part); err != nil {
			return err
		}
		fmt.Println("Sent decryption part for operation", rec.OperationID)
		return nil
	}
	return fmt.Errorf("no shard matches operation %s", rec.OperationID)
}

func (s *session) handleFinished(rec *wire.FinishedDecryptionRecord) error {
	ct, ok := s.initiated[rec.OperationID]
	if !ok {
		return fmt.Errorf("unknown operation %s", rec.OperationID)
	}
	prof, ok := s.records[rec.UserSetID]
	if !ok || prof.OwnShard == nil {
		return fmt.Errorf("no owner record of userset %s", rec.UserSetID)
	}
	plaintext, err := client.Combine(rec, ct, prof.RegShard, *prof.OwnShard)
	if err != nil {
		return err
	}
	delete(s.initiated, rec.OperationID)
	fmt.Printf("Decryption %s finished: %q\n", rec.OperationID, plaintext)
	return nil
}

func (s *session) participate() error {
	opid := inputUUID("Enter operation ID: ")
	status, err := s.cli.Participate(opid)
	if err != nil {
		return err
	}
	if status == wire.NotRequired {
		fmt.Println("Your participation is not needed for this operation.")
		return nil
	}
	s.accepted[opid] = status
	fmt.Println("Participation registered, the part will be sent on a future update.")
	return nil
}
