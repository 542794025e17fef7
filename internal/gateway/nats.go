package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig holds configuration for the event bridge stream.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "GAME_EVENTS",
		SubjectPrefix: "game.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		MaxAge:        24 * time.Hour,
	}
}

// JetStreamPublisher mirrors every room broadcast onto a JetStream subject
// `<prefix>.<pin>.<event-type>`, letting external consumers (leaderboards,
// feeds) follow games without holding a socket into the room.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Trivia game event bridge",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		MaxAge:      cfg.MaxAge,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("JetStream publisher ready")
	return &JetStreamPublisher{
		nc:     nc,
		js:     js,
		config: cfg,
	}, nil
}

// Publish sends one event envelope to the bridge. Failures are logged and
// swallowed: the bridge is best-effort and must never stall a broadcast.
func (p *JetStreamPublisher) Publish(ctx context.Context, event *GameEvent) {
	subject := fmt.Sprintf("%s.%s.%s", p.config.SubjectPrefix, event.Pin, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to marshal event for NATS")
		return
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish event to NATS")
		return
	}

	log.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event published to NATS")
}

func (p *JetStreamPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
