// Package service implements room membership and chat routing on top of the hub.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/protocol"
	"github.com/orchestra-mcp/relay/src/store"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/rs/zerolog"
)

var (
	// ErrNotMember is returned when a client chats to a room it has not joined.
	ErrNotMember = errors.New("not a member of room")
	// ErrPersist is returned when the message store rejects a chat.
	ErrPersist = errors.New("persist chat")
)

// Service provides join, leave and chat for registered clients.
type Service struct {
	hub            *hub.Hub
	store          store.MessageStore
	logger         zerolog.Logger
	now            func() time.Time
	persistTimeout time.Duration
}

// New creates a service backed by the given hub and message store.
func New(h *hub.Hub, st store.MessageStore, logger zerolog.Logger) *Service {
	return &Service{
		hub:    h,
		store:  st,
		logger: logger.With().Str("component", "service").Logger(),
		now:    time.Now,
	}
}

// SetPersistTimeout bounds each store call. Zero means no bound.
func (s *Service) SetPersistTimeout(d time.Duration) {
	s.persistTimeout = d
}

// Dispatch parses one inbound frame and routes it. Invalid frames are
// dropped without a reply.
func (s *Service) Dispatch(ctx context.Context, c *hub.Client, data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		s.logger.Debug().Err(err).Str("client_id", c.ID).Msg("dropping frame")
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRoom:
		err = s.Join(c, m.RoomID)
	case protocol.LeaveRoom:
		err = s.Leave(c, m.RoomID)
	case protocol.Chat:
		err = s.Chat(ctx, c, m.RoomID, m.Message)
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("client_id", c.ID).Msg("request failed")
	}
}

// Join adds roomID to the client's rooms and acknowledges, even when the
// client was already a member.
func (s *Service) Join(c *hub.Client, roomID int64) error {
	changed, err := s.hub.Join(c.ID, roomID)
	if err != nil {
		return err
	}
	s.hub.Send(c.ID, protocol.Ack(protocol.AckJoined))
	s.logger.Debug().
		Str("client_id", c.ID).
		Int64("room_id", roomID).
		Bool("changed", changed).
		Msg("joined")
	return nil
}

// Leave removes roomID from the client's rooms and acknowledges, even when
// the client was not a member.
func (s *Service) Leave(c *hub.Client, roomID int64) error {
	changed, err := s.hub.Leave(c.ID, roomID)
	if err != nil {
		return err
	}
	s.hub.Send(c.ID, protocol.Ack(protocol.AckLeft))
	s.logger.Debug().
		Str("client_id", c.ID).
		Int64("room_id", roomID).
		Bool("changed", changed).
		Msg("left")
	return nil
}

// Chat records message and then broadcasts it to the other members of
// roomID. Nothing is broadcast unless the store call succeeds.
func (s *Service) Chat(ctx context.Context, c *hub.Client, roomID int64, message string) error {
	if !s.hub.IsMember(c.ID, roomID) {
		s.hub.Send(c.ID, protocol.EncodeError(protocol.ErrTextNotMember))
		return fmt.Errorf("%w %d", ErrNotMember, roomID)
	}

	record := types.ChatMessage{
		RoomID:    roomID,
		UserID:    c.UserID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.persist(ctx, record); err != nil {
		s.logger.Error().Err(err).
			Str("client_id", c.ID).
			Int64("room_id", roomID).
			Msg("chat not recorded")
		s.hub.Send(c.ID, protocol.EncodeError(protocol.ErrTextChatFailed))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// The sender may have disconnected while the store call was pending;
	// the hub skips clients that are no longer registered.
	delivered := s.hub.Broadcast(roomID, c.ID, protocol.EncodeChat(roomID, message))
	s.hub.Send(c.ID, protocol.Ack(protocol.AckSent))
	s.logger.Debug().
		Str("client_id", c.ID).
		Int64("room_id", roomID).
		Int("delivered", delivered).
		Msg("chat sent")
	return nil
}

func (s *Service) persist(ctx context.Context, msg types.ChatMessage) error {
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.persistTimeout)
		defer cancel()
	}
	return s.store.RecordMessage(ctx, msg)
}
