package protocol

import "encoding/json"

// Same-connection acknowledgements, sent as plain text.
const (
	AckJoined = "joined room"
	AckLeft   = "room left"
	AckSent   = "message sent"
)

// Error frame texts.
const (
	ErrTextNotMember  = "user not found | room not found"
	ErrTextChatFailed = "failed to send chat"
)

// ErrorFrame is a structured same-connection error.
type ErrorFrame struct {
	Error string `json:"error"`
}

// ChatFrame is broadcast to the other members of a room. It carries no
// sender id.
type ChatFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	RoomID  int64  `json:"roomId"`
}

// Ack encodes a plain acknowledgement frame.
func Ack(text string) []byte { return []byte(text) }

// EncodeError encodes an error frame.
func EncodeError(text string) []byte {
	return mustMarshal(ErrorFrame{Error: text})
}

// EncodeChat encodes a broadcast chat frame.
func EncodeChat(roomID int64, message string) []byte {
	return mustMarshal(ChatFrame{Type: TypeChat, Message: message, RoomID: roomID})
}

// mustMarshal is only used with the flat frame structs above, which cannot
// fail to encode.
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
