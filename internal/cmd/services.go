package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/engine"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/gateway"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/player"
)

type Services struct {
	Games   *game.App
	Players *player.App
	Engine  *engine.Engine
	Gateway *gateway.Service
	Janitor *game.Janitor
}

func setupServices(ctx context.Context, database *sql.DB, cfg *Config) (*Services, error) {
	// Database layer → Repository layer → App layer → Engine → Gateway
	gameRepo := game.NewRepository(database)
	gameApp := game.NewApp(gameRepo)

	playerRepo := player.NewRepository(database)
	playerApp := player.NewApp(playerRepo)

	rules, err := cfg.ruleSet()
	if err != nil {
		return nil, err
	}
	log.Info().Str("ruleset", rules.Name).Msg("rule set selected")

	var pub *gateway.JetStreamPublisher
	if cfg.NATS.Enabled {
		jsCfg := gateway.DefaultJetStreamConfig()
		if cfg.NATS.URL != "" {
			jsCfg.URL = cfg.NATS.URL
		}
		pub, err = gateway.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect jetstream publisher: %w", err)
		}
	}

	clock := clockwork.NewRealClock()

	// The gateway implements engine.Broadcaster but also needs the engine
	// to route inbound messages, so wire the engine in two steps.
	var svc *gateway.Service
	broadcaster := &deferredBroadcaster{}
	eng := engine.New(gameApp, playerApp, broadcaster, rules, cfg.engineConfig(), clock)
	svc = gateway.NewService(eng, gateway.DefaultConnectionConfig(), pub)
	broadcaster.target = svc

	janitor := game.NewJanitor(gameApp, cfg.janitorConfig(), clock)

	return &Services{
		Games:   gameApp,
		Players: playerApp,
		Engine:  eng,
		Gateway: svc,
		Janitor: janitor,
	}, nil
}

// deferredBroadcaster breaks the engine/gateway construction cycle. The
// target is set before any session runs, so the nil window never broadcasts.
type deferredBroadcaster struct {
	target engine.Broadcaster
}

func (d *deferredBroadcaster) BroadcastToGame(pin string, eventType events.Type, payload any) {
	if d.target != nil {
		d.target.BroadcastToGame(pin, eventType, payload)
	}
}

func (d *deferredBroadcaster) BroadcastToPlayer(pin string, playerID string, eventType events.Type, payload any) {
	if d.target != nil {
		d.target.BroadcastToPlayer(pin, playerID, eventType, payload)
	}
}
