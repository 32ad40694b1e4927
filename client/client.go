// Package client implements the client side of the threshold decryption
// service: the connection and its typed request cycle, the local
// cryptographic work (part computation, finished-operation combination) and
// the encrypted profile store.
package client

import (
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/crypto/elgamal"
	"github.com/quorumseal/quorumseal/wire"
)

// ServerError is a request-level failure reported by the server through an
// ErrorResponse; the connection remains usable.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string {
	return "server: " + e.Msg
}

// Client is a connection to the coordination server. It is single-threaded:
// one request/response cycle at a time.
type Client struct {
	conn  net.Conn
	codec wire.Codec
	curve ecc.Point
}

// Dial connects to the server and runs the client handshake.
func Dial(addr string, curve ecc.Point, mode wire.Mode) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: cannot connect to %q: %w", addr, err)
	}
	codec, err := wire.ClientHandshake(conn, curve, mode)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{conn: conn, codec: codec, curve: curve}, nil
}

// Close closes the connection without a logout cycle.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends a request and returns the response, converting a server
// ErrorResponse into a ServerError.
func (c *Client) roundTrip(req wire.Packet) (wire.Packet, error) {
	if err := c.codec.WritePacket(req); err != nil {
		return nil, err
	}
	resp, err := c.codec.ReadPacket()
	if err != nil {
		return nil, err
	}
	if errResp, ok := resp.(*wire.ErrorResponse); ok {
		return nil, &ServerError{Msg: errResp.Msg}
	}
	return resp, nil
}

func unexpected(resp wire.Packet) error {
	return fmt.Errorf("client: unexpected response %s", resp.Code())
}

// Signup registers a new username on this connection.
func (c *Client) Signup(username string) (wire.SignupStatus, error) {
	resp, err := c.roundTrip(&wire.SignupRequest{Username: username})
	if err != nil {
		return 0, err
	}
	r, ok := resp.(*wire.SignupResponse)
	if !ok {
		return 0, unexpected(resp)
	}
	return r.Status, nil
}

// Login authenticates this connection as an existing user.
func (c *Client) Login(username string) (wire.LoginStatus, error) {
	resp, err := c.roundTrip(&wire.LoginRequest{Username: username})
	if err != nil {
		return 0, err
	}
	r, ok := resp.(*wire.LoginResponse)
	if !ok {
		return 0, unexpected(resp)
	}
	return r.Status, nil
}

// Logout runs the logout cycle and closes the connection.
func (c *Client) Logout() error {
	defer c.conn.Close()
	resp, err := c.roundTrip(&wire.LogoutRequest{})
	if err != nil {
		return err
	}
	if _, ok := resp.(*wire.LogoutResponse); !ok {
		return unexpected(resp)
	}
	return nil
}

// MakeUserSet creates a userset. The requester becomes an owner whether or
// not it lists itself.
func (c *Client) MakeUserSet(owners, regMembers []string, ownersThreshold, regMembersThreshold uint8) (*wire.MakeUserSetResponse, error) {
	resp, err := c.roundTrip(&wire.MakeUserSetRequest{
		Owners:              owners,
		RegMembers:          regMembers,
		OwnersThreshold:     ownersThreshold,
		RegMembersThreshold: regMembersThreshold,
	})
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*wire.MakeUserSetResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return r, nil
}

// UserSets returns the ids of the usersets the logged-in user owns.
func (c *Client) UserSets() ([]uuid.UUID, error) {
	resp, err := c.roundTrip(&wire.GetUserSetsRequest{})
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*wire.GetUserSetsResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return r.UserSetIDs, nil
}

// Members returns the owner and non-owner member lists of a userset.
func (c *Client) Members(userSetID uuid.UUID) (*wire.GetMembersResponse, error) {
	resp, err := c.roundTrip(&wire.GetMembersRequest{UserSetID: userSetID})
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*wire.GetMembersResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return r, nil
}

// Decrypt initiates a decryption operation for the ciphertext under the
// userset and returns its operation id.
func (c *Client) Decrypt(userSetID uuid.UUID, ct *elgamal.Ciphertext) (uuid.UUID, error) {
	resp, err := c.roundTrip(&wire.DecryptRequest{UserSetID: userSetID, Ciphertext: ct})
	if err != nil {
		return uuid.UUID{}, err
	}
	r, ok := resp.(*wire.DecryptResponse)
	if !ok {
		return uuid.UUID{}, unexpected(resp)
	}
	return r.OperationID, nil
}

// Update drains the pending update records of the logged-in user.
func (c *Client) Update() (*wire.UpdateResponse, error) {
	resp, err := c.roundTrip(&wire.UpdateRequest{})
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*wire.UpdateResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return r, nil
}

// Participate volunteers for an operation seen in an on-lookup update. The
// returned status says which layer's part the server expects, if any.
func (c *Client) Participate(opid uuid.UUID) (wire.ParticipateStatus, error) {
	resp, err := c.roundTrip(&wire.DecryptParticipateRequest{OperationID: opid})
	if err != nil {
		return 0, err
	}
	r, ok := resp.(*wire.DecryptParticipateResponse)
	if !ok {
		return 0, unexpected(resp)
	}
	return r.Status, nil
}

// SendPart delivers a computed decryption part for an operation.
func (c *Client) SendPart(opid uuid.UUID, part ecc.Point) error {
	resp, err := c.roundTrip(&wire.SendDecryptionPartRequest{OperationID: opid, Part: part})
	if err != nil {
		return err
	}
	if _, ok := resp.(*wire.SendDecryptionPartResponse); !ok {
		return unexpected(resp)
	}
	return nil
}
