package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// JanitorConfig controls the retention sweep for finished games.
type JanitorConfig struct {
	Retention time.Duration // how long finished games stick around
	Interval  time.Duration // sweep frequency
}

func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Retention: 24 * time.Hour,
		Interval:  time.Hour,
	}
}

// Janitor deletes finished games past the retention window on a fixed
// interval. Run it in its own goroutine; it stops when the context ends.
type Janitor struct {
	app   *App
	cfg   JanitorConfig
	clock clockwork.Clock
}

func NewJanitor(app *App, cfg JanitorConfig, clock clockwork.Clock) *Janitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Janitor{
		app:   app,
		cfg:   cfg,
		clock: clock,
	}
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := j.clock.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("retention", j.cfg.Retention).
		Dur("interval", j.cfg.Interval).
		Msg("game janitor started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("game janitor stopped")
			return
		case <-ticker.Chan():
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes every finished game past the retention window. Failures on
// one game are logged and do not stop the sweep.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := j.clock.Now().Add(-j.cfg.Retention)

	pins, err := j.app.ListExpiredGames(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("janitor failed to list expired games")
		return
	}
	if len(pins) == 0 {
		return
	}

	deleted := 0
	for _, pin := range pins {
		if err := j.app.DeleteGame(ctx, pin); err != nil {
			log.Error().Err(err).Str("pin", pin).Msg("janitor failed to delete game")
			continue
		}
		deleted++
	}

	log.Info().Int("deleted", deleted).Int("expired", len(pins)).Msg("janitor sweep complete")
}
