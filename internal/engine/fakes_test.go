package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/player"
)

// In-memory stores backing the engine in tests. All mutations go through the
// same methods the real repositories expose, so reloads observe prior writes
// the way they would against Postgres.

type fakeGameStore struct {
	mu     sync.Mutex
	game   *models.Game
	getErr error // returned by GetGameByPin when set
}

func (f *fakeGameStore) GetGameByPin(ctx context.Context, pin string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	g := *f.game
	if f.game.QuestionStartTime != nil {
		t := *f.game.QuestionStartTime
		g.QuestionStartTime = &t
	}
	g.Questions = append([]models.Question(nil), f.game.Questions...)
	return &g, nil
}

func (f *fakeGameStore) UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.game.Status = status
	return nil
}

func (f *fakeGameStore) UpdateRoundState(ctx context.Context, pin string, req game.UpdateRoundStateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.game.Status = req.Status
	f.game.CurrentQuestionIndex = req.CurrentQuestionIndex
	f.game.QuestionStartTime = req.QuestionStartedAt
	f.game.PrizePool = req.PrizePool
	return nil
}

type fakePlayerStore struct {
	mu      sync.Mutex
	players []models.Player
}

func (f *fakePlayerStore) ListPlayersForGame(ctx context.Context, pin string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Player, len(f.players))
	for i := range f.players {
		out[i] = f.players[i]
		if f.players[i].LastAnswer != nil {
			la := *f.players[i].LastAnswer
			out[i].LastAnswer = &la
		}
	}
	return out, nil
}

func (f *fakePlayerStore) RecordAnswer(ctx context.Context, id uuid.UUID, req player.RecordAnswerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == id {
			la := req.Answer
			f.players[i].LastAnswer = &la
			f.players[i].Score += req.ScoreDelta
			return nil
		}
	}
	return player.ErrNotFound
}

func (f *fakePlayerStore) SetEliminated(ctx context.Context, id uuid.UUID, eliminated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == id {
			f.players[i].IsEliminated = eliminated
			return nil
		}
	}
	return player.ErrNotFound
}

func (f *fakePlayerStore) ClearAnswersForGame(ctx context.Context, pin string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		f.players[i].LastAnswer = nil
	}
	return nil
}

func (f *fakePlayerStore) get(id uuid.UUID) models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == id {
			return f.players[i]
		}
	}
	return models.Player{}
}

type broadcastRecord struct {
	Room     bool
	PlayerID string
	Type     events.Type
	Payload  any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (f *fakeBroadcaster) BroadcastToGame(pin string, eventType events.Type, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{Room: true, Type: eventType, Payload: payload})
}

func (f *fakeBroadcaster) BroadcastToPlayer(pin string, playerID string, eventType events.Type, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{PlayerID: playerID, Type: eventType, Payload: payload})
}

func (f *fakeBroadcaster) ofType(t events.Type) []broadcastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastRecord
	for _, rec := range f.events {
		if rec.Type == t {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeBroadcaster) count(t events.Type) int {
	return len(f.ofType(t))
}

// engineFixture bundles the engine, its fakes, and a session driven
// synchronously from the test goroutine.
type engineFixture struct {
	engine    *Engine
	session   *Session
	games     *fakeGameStore
	players   *fakePlayerStore
	broadcast *fakeBroadcaster
	clock     *clockwork.FakeClock
	history   *historyRecorder
}

type historyRecorder struct {
	mu   sync.Mutex
	rows []models.RoundHistoryEntry
}

func (h *historyRecorder) AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows = append(h.rows, entry)
	return nil
}

// gameStoreWithHistory satisfies GameStore by combining the game fake with
// the history recorder.
type gameStoreWithHistory struct {
	*fakeGameStore
	*historyRecorder
}

func newFixture(rules RuleSet, g *models.Game, players []models.Player) *engineFixture {
	fc := clockwork.NewFakeClock()
	games := &fakeGameStore{game: g}
	hist := &historyRecorder{}
	ps := &fakePlayerStore{players: players}
	bc := &fakeBroadcaster{}

	cfg := Config{
		QuestionDuration: 20 * time.Second,
		VoteWindow:       15 * time.Second,
		SettleDelay:      0, // keep resolution synchronous under the fake clock
		TickInterval:     200 * time.Millisecond,
	}

	eng := New(gameStoreWithHistory{games, hist}, ps, bc, rules, cfg, fc)
	return &engineFixture{
		engine:    eng,
		session:   newSession(g.Pin, eng),
		games:     games,
		players:   ps,
		broadcast: bc,
		clock:     fc,
		history:   hist,
	}
}

// clockNow is an arbitrary fixed instant for pre-seeding timestamps.
func clockNow() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func newPlayer(name string, joinedOffset time.Duration) models.Player {
	return models.Player{
		ID:       uuid.New(),
		GamePin:  "TEST01",
		Name:     name,
		JoinedAt: clockNow().Add(joinedOffset),
	}
}

func newTestGame(questions int) *models.Game {
	g := &models.Game{
		Pin:             "TEST01",
		Status:          models.GameStatusLobby,
		PrizePool:       100,
		IncrementAmount: 50,
	}
	for i := 0; i < questions; i++ {
		g.Questions = append(g.Questions, models.Question{
			ID:            uuid.New(),
			Text:          "question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
		})
	}
	return g
}

// answered marks a player as having answered the given question.
func answered(p *models.Player, q models.Question, answer string, responseMs int64) {
	p.LastAnswer = &models.LastAnswer{
		QuestionID:     q.ID,
		Answer:         answer,
		IsCorrect:      answer == q.CorrectAnswer,
		ResponseTimeMs: responseMs,
	}
}
