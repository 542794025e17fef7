package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus defines the lifecycle state of a game.
type GameStatus string

const (
	GameStatusLobby      GameStatus = "LOBBY"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusProcessing GameStatus = "PROCESSING"
	GameStatusVoting     GameStatus = "VOTING"
	GameStatusFinished   GameStatus = "FINISHED"
)

// Question is a single timed question. Questions are stored as a JSONB
// column on the game row and never change after the game is seeded.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
}

// Game represents one running trivia game, keyed by its join pin.
type Game struct {
	Pin                  string     `json:"pin"`
	Status               GameStatus `json:"status"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	QuestionStartTime    *time.Time `json:"question_start_time,omitempty"`
	PrizePool            int        `json:"prize_pool"`
	IncrementAmount      int        `json:"increment_amount"`
	Questions            []Question `json:"questions"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// CurrentQuestion returns the question at the game's current index, or nil
// when the index is out of range.
func (g *Game) CurrentQuestion() *Question {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentQuestionIndex]
}

// IsLastQuestion reports whether the current question is the final one.
func (g *Game) IsLastQuestion() bool {
	return g.CurrentQuestionIndex >= len(g.Questions)-1
}

// FastestResponse identifies the quickest correct answer of a round.
type FastestResponse struct {
	PlayerName     string `json:"player_name"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// RoundHistoryEntry is an append-only record of one resolved round.
// Entries are written in strictly increasing round order and never mutated.
type RoundHistoryEntry struct {
	RoundNumber       int              `json:"round_number"`
	QuestionID        uuid.UUID        `json:"question_id"`
	QuestionText      string           `json:"question_text"`
	Survivors         []string         `json:"survivors"`
	Eliminated        []string         `json:"eliminated"`
	AverageResponseMs int64            `json:"average_response_ms"`
	Fastest           *FastestResponse `json:"fastest,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
