// Command relay serves the chat relay WebSocket endpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orchestra-mcp/relay/config"
	"github.com/orchestra-mcp/relay/providers"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		logger = logger.Level(zerolog.InfoLevel)
	}

	plugin := providers.NewRelayPlugin(cfg, logger)
	if err := plugin.Activate(); err != nil {
		logger.Fatal().Err(err).Msg("activate relay")
	}

	server := &fasthttp.Server{
		Handler: plugin.Handler(plugin.App()),
		Name:    "relay",
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("relay listening")
		if err := server.ListenAndServe(cfg.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("relay shutting down")
	if err := plugin.Deactivate(); err != nil {
		logger.Error().Err(err).Msg("deactivate relay")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
