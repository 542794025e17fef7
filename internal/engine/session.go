package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// sessionEvent is a typed event dispatched through a session's channel. The
// single consuming goroutine serializes all state transitions for one game,
// which is what guarantees exactly one resolution per round: racing
// TimerExpired / AllAnswered triggers are handled one after the other, and
// the loser fails the stale-round check.
type sessionEvent interface {
	isSessionEvent()
}

type startGameEvent struct{}

type hostAdvanceEvent struct{}

type submitAnswerEvent struct {
	playerID uuid.UUID
	answer   string
}

type castVoteEvent struct {
	voterID     uuid.UUID
	candidateID uuid.UUID
}

type timerExpiredEvent struct {
	questionIndex int
}

type allAnsweredEvent struct {
	questionIndex int
}

type voteWindowClosedEvent struct {
	questionIndex int
}

func (startGameEvent) isSessionEvent()        {}
func (hostAdvanceEvent) isSessionEvent()      {}
func (submitAnswerEvent) isSessionEvent()     {}
func (castVoteEvent) isSessionEvent()         {}
func (timerExpiredEvent) isSessionEvent()     {}
func (allAnsweredEvent) isSessionEvent()      {}
func (voteWindowClosedEvent) isSessionEvent() {}

const sessionQueueSize = 64

// Session is the per-game actor. Everything it owns — the event queue and
// the in-memory vote tally — is process-local and lost on restart; the
// persisted game state is the recovery point.
type Session struct {
	pin string
	e   *Engine

	events chan sessionEvent
	done   chan struct{}
	once   sync.Once

	// votes maps voter to candidate; a repeat vote replaces the previous
	// one. Counts are derived when the window closes.
	votes map[uuid.UUID]uuid.UUID
}

func newSession(pin string, e *Engine) *Session {
	return &Session{
		pin:    pin,
		e:      e,
		events: make(chan sessionEvent, sessionQueueSize),
		done:   make(chan struct{}),
		votes:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *Session) run() {
	log.Debug().Str("pin", s.pin).Msg("session started")
	for {
		select {
		case <-s.done:
			log.Debug().Str("pin", s.pin).Msg("session stopped")
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// enqueue never blocks; a full queue drops the event with a warning. Timer
// ticks bypass the queue entirely, so only control events land here.
func (s *Session) enqueue(ev sessionEvent) {
	select {
	case <-s.done:
	case s.events <- ev:
	default:
		log.Warn().Str("pin", s.pin).Msg("session queue full, dropping event")
	}
}

// loadGame fetches the session's game. Sessions are created on demand for
// whatever pin a client sends, so a pin with no game behind it — or one whose
// game already finished — evicts the session here; otherwise spamming
// distinct pins would grow the registry without bound.
func (s *Session) loadGame(ctx context.Context, op string) (*models.Game, error) {
	g, err := s.e.games.GetGameByPin(ctx, s.pin)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			log.Warn().Str("pin", s.pin).Str("op", op).Msg("unknown game pin, evicting session")
			s.e.removeSession(s.pin)
		} else {
			log.Error().Err(err).Str("pin", s.pin).Str("op", op).Msg("failed to load game")
		}
		return nil, err
	}
	if g.Status == models.GameStatusFinished {
		log.Debug().Str("pin", s.pin).Str("op", op).Msg("game already finished, evicting session")
		s.e.removeSession(s.pin)
	}
	return g, nil
}

func (s *Session) handle(ev sessionEvent) {
	switch ev := ev.(type) {
	case startGameEvent:
		s.handleStartGame()
	case submitAnswerEvent:
		s.handleSubmitAnswer(ev)
	case timerExpiredEvent:
		s.resolveRound(ev.questionIndex, "timer-expired")
	case allAnsweredEvent:
		s.resolveRound(ev.questionIndex, "all-answered")
	case hostAdvanceEvent:
		s.handleHostAdvance()
	case castVoteEvent:
		s.handleCastVote(ev)
	case voteWindowClosedEvent:
		s.handleVoteWindowClosed(ev.questionIndex)
	default:
		log.Warn().Str("pin", s.pin).Msg("unknown session event, ignoring")
	}
}
