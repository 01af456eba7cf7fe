package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/orchestra-mcp/relay/config"
	"github.com/orchestra-mcp/relay/src/auth"
	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/service"
	"github.com/orchestra-mcp/relay/src/store"
	"github.com/orchestra-mcp/relay/src/store/redisstream"
	"github.com/orchestra-mcp/relay/src/store/sqlite"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// RelayPlugin owns the relay's registry, service and store for the lifetime
// of the process.
type RelayPlugin struct {
	active   bool
	cfg      *config.RelayConfig
	logger   zerolog.Logger
	verifier *auth.Verifier
	hub      *hub.Hub
	service  *service.Service
	store    store.MessageStore
	upgrader websocket.FastHTTPUpgrader
}

// NewRelayPlugin creates a relay plugin for cfg.
func NewRelayPlugin(cfg *config.RelayConfig, logger zerolog.Logger) *RelayPlugin {
	return &RelayPlugin{cfg: cfg, logger: logger}
}

func (p *RelayPlugin) ID() string     { return "orchestra/relay" }
func (p *RelayPlugin) IsActive() bool { return p.active }

// SetStore replaces the configured message store. Call before Activate.
func (p *RelayPlugin) SetStore(st store.MessageStore) {
	p.store = st
}

// Hub returns the connection registry. It is nil before Activate.
func (p *RelayPlugin) Hub() *hub.Hub { return p.hub }

// Activate opens the store and builds the hub, verifier and service.
func (p *RelayPlugin) Activate() error {
	if p.store == nil {
		st, err := p.openStore()
		if err != nil {
			return err
		}
		p.store = st
	}

	p.verifier = auth.NewVerifier(p.cfg.JWTSecret)
	p.hub = hub.New(p.logger)
	p.service = service.New(p.hub, p.store, p.logger)
	p.service.SetPersistTimeout(p.cfg.PersistTimeout)
	p.upgrader = websocket.FastHTTPUpgrader{
		ReadBufferSize:  p.cfg.ReadBufferSize,
		WriteBufferSize: p.cfg.WriteBufferSize,
		// Browser clients are served from a separate web origin.
		CheckOrigin: func(*fasthttp.RequestCtx) bool { return true },
	}

	p.active = true
	p.logger.Info().Str("plugin", p.ID()).Str("store", p.cfg.Store).Msg("relay plugin activated")
	return nil
}

// openStore opens the backend named by the config.
func (p *RelayPlugin) openStore() (store.MessageStore, error) {
	switch p.cfg.Store {
	case config.StoreSQLite:
		st, err := sqlite.Open(p.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		p.logger.Info().Str("path", p.cfg.SQLitePath).Msg("sqlite store opened")
		return st, nil
	case config.StoreRedis:
		st := redisstream.New(p.cfg.Redis, p.logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		p.logger.Info().Str("redis_addr", p.cfg.Redis.Addr).Msg("redis store connected")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q", p.cfg.Store)
	}
}

// Deactivate closes every live connection and then the store.
func (p *RelayPlugin) Deactivate() error {
	if p.hub != nil {
		n := p.hub.CloseAll()
		p.logger.Info().Int("clients", n).Msg("closed live connections")
	}
	var err error
	if p.store != nil {
		if err = p.store.Close(); err != nil {
			p.logger.Error().Err(err).Msg("store close error")
		}
		p.store = nil
	}
	p.active = false
	return err
}
