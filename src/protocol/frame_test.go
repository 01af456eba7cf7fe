package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ClientMessage
	}{
		{"join", `{"type":"join_room","roomId":42}`, JoinRoom{RoomID: 42}},
		{"leave", `{"type":"leave_room","roomId":42}`, LeaveRoom{RoomID: 42}},
		{"chat", `{"type":"chat","roomId":42,"message":"hi"}`, Chat{RoomID: 42, Message: "hi"}},
		{"string room id", `{"type":"join_room","roomId":"7"}`, JoinRoom{RoomID: 7}},
		{"empty chat body", `{"type":"chat","roomId":1,"message":""}`, Chat{RoomID: 1}},
		{"extra fields ignored", `{"type":"leave_room","roomId":3,"message":"x"}`, LeaveRoom{RoomID: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `hello`},
		{"missing type", `{"roomId":1}`},
		{"unknown type", `{"type":"dance","roomId":1}`},
		{"join without room", `{"type":"join_room"}`},
		{"leave with null room", `{"type":"leave_room","roomId":null}`},
		{"chat without message", `{"type":"chat","roomId":1}`},
		{"fractional room", `{"type":"join_room","roomId":1.5}`},
		{"non numeric room", `{"type":"join_room","roomId":"abc"}`},
		{"message not string", `{"type":"chat","roomId":1,"message":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.in))
			assert.Nil(t, msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFrame)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestOutboundFrames(t *testing.T) {
	assert.Equal(t, "joined room", string(Ack(AckJoined)))
	assert.JSONEq(t, `{"error":"user not found | room not found"}`, string(EncodeError(ErrTextNotMember)))
	assert.JSONEq(t, `{"type":"chat","message":"hi","roomId":42}`, string(EncodeChat(42, "hi")))
}
