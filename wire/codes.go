package wire

// ProtocolVersion is the one-byte version exchanged at the start of every
// connection.
const ProtocolVersion uint8 = 1

// Code identifies a packet kind on the wire. The numeric order is part of
// the wire contract.
type Code uint8

const (
	CodeErrorResponse Code = iota
	CodeSignupRequest
	CodeSignupResponse
	CodeLoginRequest
	CodeLoginResponse
	CodeLogoutRequest
	CodeLogoutResponse
	CodeMakeUserSetRequest
	CodeMakeUserSetResponse
	CodeGetUserSetsRequest
	CodeGetUserSetsResponse
	CodeGetMembersRequest
	CodeGetMembersResponse
	CodeDecryptRequest
	CodeDecryptResponse
	CodeUpdateRequest
	CodeUpdateResponse
	CodeDecryptParticipateRequest
	CodeDecryptParticipateResponse
	CodeSendDecryptionPartRequest
	CodeSendDecryptionPartResponse
)

func (c Code) String() string {
	switch c {
	case CodeErrorResponse:
		return "ErrorResponse"
	case CodeSignupRequest:
		return "SignupRequest"
	case CodeSignupResponse:
		return "SignupResponse"
	case CodeLoginRequest:
		return "LoginRequest"
	case CodeLoginResponse:
		return "LoginResponse"
	case CodeLogoutRequest:
		return "LogoutRequest"
	case CodeLogoutResponse:
		return "LogoutResponse"
	case CodeMakeUserSetRequest:
		return "MakeUserSetRequest"
	case CodeMakeUserSetResponse:
		return "MakeUserSetResponse"
	case CodeGetUserSetsRequest:
		return "GetUserSetsRequest"
	case CodeGetUserSetsResponse:
		return "GetUserSetsResponse"
	case CodeGetMembersRequest:
		return "GetMembersRequest"
	case CodeGetMembersResponse:
		return "GetMembersResponse"
	case CodeDecryptRequest:
		return "DecryptRequest"
	case CodeDecryptResponse:
		return "DecryptResponse"
	case CodeUpdateRequest:
		return "UpdateRequest"
	case CodeUpdateResponse:
		return "UpdateResponse"
	case CodeDecryptParticipateRequest:
		return "DecryptParticipateRequest"
	case CodeDecryptParticipateResponse:
		return "DecryptParticipateResponse"
	case CodeSendDecryptionPartRequest:
		return "SendDecryptionPartRequest"
	case CodeSendDecryptionPartResponse:
		return "SendDecryptionPartResponse"
	default:
		return "Unknown"
	}
}
