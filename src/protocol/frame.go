// Package protocol parses inbound relay frames and encodes outbound ones.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Inbound frame types.
const (
	TypeJoinRoom  = "join_room"
	TypeLeaveRoom = "leave_room"
	TypeChat      = "chat"
)

// ErrInvalidFrame is matched by every ValidationError.
var ErrInvalidFrame = errors.New("invalid frame")

// ValidationError describes why an inbound frame was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid frame: " + e.Reason }

// Is reports whether target is ErrInvalidFrame.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidFrame }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ClientMessage is one of JoinRoom, LeaveRoom or Chat.
type ClientMessage interface {
	clientMessage()
}

// JoinRoom asks to add a room to the connection's membership.
type JoinRoom struct {
	RoomID int64
}

// LeaveRoom asks to drop a room from the connection's membership.
type LeaveRoom struct {
	RoomID int64
}

// Chat sends Message to every other member of RoomID.
type Chat struct {
	RoomID  int64
	Message string
}

func (JoinRoom) clientMessage()  {}
func (LeaveRoom) clientMessage() {}
func (Chat) clientMessage()      {}

type rawFrame struct {
	Type    string          `json:"type"`
	RoomID  json.RawMessage `json:"roomId"`
	Message *string         `json:"message"`
}

// Parse decodes a text frame. All failures are *ValidationError.
func Parse(data []byte) (ClientMessage, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalid("malformed json: %v", err)
	}

	switch raw.Type {
	case TypeJoinRoom, TypeLeaveRoom, TypeChat:
	case "":
		return nil, invalid("type is required")
	default:
		return nil, invalid("unknown type %q", raw.Type)
	}

	roomID, err := parseRoomID(raw.RoomID)
	if err != nil {
		return nil, err
	}

	switch raw.Type {
	case TypeJoinRoom:
		return JoinRoom{RoomID: roomID}, nil
	case TypeLeaveRoom:
		return LeaveRoom{RoomID: roomID}, nil
	default:
		if raw.Message == nil {
			return nil, invalid("message is required")
		}
		return Chat{RoomID: roomID, Message: *raw.Message}, nil
	}
}

// parseRoomID accepts a JSON integer or a string holding one; web clients
// take the id from the URL and send it as a string.
func parseRoomID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, invalid("roomId is required")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, invalid("roomId: %v", err)
		}
		text = strings.TrimSpace(text)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, invalid("roomId %s is not an integer", raw)
	}
	return id, nil
}
