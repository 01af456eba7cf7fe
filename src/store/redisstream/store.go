// Package redisstream stores chat messages in one Redis stream per room.
package redisstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/orchestra-mcp/relay/config"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store appends chat messages to Redis streams named <prefix>room:<id>.
type Store struct {
	client *redis.Client
	prefix string
	maxLen int64
	logger zerolog.Logger
}

// New creates a store for cfg. It does not contact Redis; call Ping to check
// the connection.
func New(cfg config.RedisConfig, logger zerolog.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{
		client: client,
		prefix: cfg.Prefix,
		maxLen: cfg.MaxLen,
		logger: logger.With().Str("component", "redis-store").Logger(),
	}
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// StreamKey returns the stream a room's messages are appended to.
func (s *Store) StreamKey(roomID int64) string {
	return s.prefix + "room:" + strconv.FormatInt(roomID, 10)
}

// addArgs builds the XADD arguments for msg.
func (s *Store) addArgs(msg types.ChatMessage) *redis.XAddArgs {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	args := &redis.XAddArgs{
		Stream: s.StreamKey(msg.RoomID),
		Values: map[string]any{
			"room_id":    msg.RoomID,
			"user_id":    msg.UserID,
			"message":    msg.Message,
			"created_at": createdAt.UTC().UnixMilli(),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return args
}

// RecordMessage appends msg to its room stream.
func (s *Store) RecordMessage(ctx context.Context, msg types.ChatMessage) error {
	id, err := s.client.XAdd(ctx, s.addArgs(msg)).Result()
	if err != nil {
		return fmt.Errorf("xadd chat: %w", err)
	}
	s.logger.Debug().
		Str("stream_id", id).
		Int64("room_id", msg.RoomID).
		Msg("chat appended")
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
