package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/player"
)

// GameStore defines what the engine needs from the game app.
type GameStore interface {
	GetGameByPin(ctx context.Context, pin string) (*models.Game, error)
	UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error
	UpdateRoundState(ctx context.Context, pin string, req game.UpdateRoundStateRequest) error
	AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error
}

// PlayerStore defines what the engine needs from the player app.
type PlayerStore interface {
	ListPlayersForGame(ctx context.Context, pin string) ([]models.Player, error)
	RecordAnswer(ctx context.Context, id uuid.UUID, req player.RecordAnswerRequest) error
	SetEliminated(ctx context.Context, id uuid.UUID, eliminated bool) error
	ClearAnswersForGame(ctx context.Context, pin string) error
}

// Broadcaster fans out one-way events to a game's room or to a single
// player's connections. Implementations must not block the caller.
type Broadcaster interface {
	BroadcastToGame(pin string, eventType events.Type, payload any)
	BroadcastToPlayer(pin string, playerID string, eventType events.Type, payload any)
}

// Config holds the pacing knobs of the round loop.
type Config struct {
	QuestionDuration time.Duration
	VoteWindow       time.Duration
	SettleDelay      time.Duration
	TickInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		QuestionDuration: 20 * time.Second,
		VoteWindow:       15 * time.Second,
		SettleDelay:      3 * time.Second,
		TickInterval:     200 * time.Millisecond,
	}
}

// Engine owns one session per running game, keyed by pin. Sessions are
// independent: two games never block each other. All public operations are
// asynchronous; failures surface to clients only as answer-error events.
type Engine struct {
	games     GameStore
	players   PlayerStore
	broadcast Broadcaster
	rules     RuleSet
	cfg       Config
	clock     clockwork.Clock
	timers    *TimerManager

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func New(games GameStore, players PlayerStore, broadcast Broadcaster, rules RuleSet, cfg Config, clock clockwork.Clock) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 200 * time.Millisecond
	}
	return &Engine{
		games:     games,
		players:   players,
		broadcast: broadcast,
		rules:     rules,
		cfg:       cfg,
		clock:     clock,
		timers:    NewTimerManager(clock, cfg.TickInterval),
		sessions:  make(map[string]*Session),
	}
}

// Rules returns the active rule set.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Timers exposes the timer manager for stats reporting.
func (e *Engine) Timers() *TimerManager {
	return e.timers
}

// StartGame begins the round loop for a lobby game: first question goes
// live and the countdown is armed.
func (e *Engine) StartGame(pin string) {
	e.dispatch(pin, startGameEvent{})
}

// SubmitAnswer routes a player's answer into the game's session.
func (e *Engine) SubmitAnswer(pin string, playerID uuid.UUID, answer string) {
	e.dispatch(pin, submitAnswerEvent{playerID: playerID, answer: answer})
}

// CastVote routes a redemption vote into the game's session.
func (e *Engine) CastVote(pin string, voterID, candidateID uuid.UUID) {
	e.dispatch(pin, castVoteEvent{voterID: voterID, candidateID: candidateID})
}

// AdvanceQuestion is the host's manual advance: the running countdown is
// cancelled and the current round resolves immediately.
func (e *Engine) AdvanceQuestion(pin string) {
	e.dispatch(pin, hostAdvanceEvent{})
}

// ActiveSessions returns the number of live game sessions.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Shutdown stops every session loop. In-flight votes and timers are lost;
// persisted state is the recovery point.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.closed = true
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.sessions = make(map[string]*Session)
	e.mu.Unlock()

	for _, s := range sessions {
		e.timers.Cancel(s.pin)
		s.close()
	}
	log.Info().Int("sessions", len(sessions)).Msg("engine shut down")
}

func (e *Engine) dispatch(pin string, ev sessionEvent) {
	if pin == "" {
		log.Warn().Msg("dropping event with empty pin")
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	s, ok := e.sessions[pin]
	if !ok {
		s = newSession(pin, e)
		e.sessions[pin] = s
		go s.run()
	}
	e.mu.Unlock()

	s.enqueue(ev)
}

// removeSession tears down a finished game's session and timer.
func (e *Engine) removeSession(pin string) {
	e.mu.Lock()
	s, ok := e.sessions[pin]
	delete(e.sessions, pin)
	e.mu.Unlock()

	e.timers.Cancel(pin)
	if ok {
		s.close()
	}
}
