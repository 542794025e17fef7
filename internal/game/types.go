package game

import (
	"time"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// CreateGameRequest represents a request to create a new game in the lobby
// state. Questions are fixed at creation time.
type CreateGameRequest struct {
	Pin             string            `json:"pin"`
	IncrementAmount int               `json:"increment_amount"`
	PrizePool       int               `json:"prize_pool"`
	Questions       []models.Question `json:"questions"`
}

// UpdateRoundStateRequest advances a game to its next round in one write:
// question index, the instant the question went live, the grown prize pool,
// and the status the game lands in.
type UpdateRoundStateRequest struct {
	CurrentQuestionIndex int               `json:"current_question_index"`
	QuestionStartedAt    *time.Time        `json:"question_started_at"`
	Status               models.GameStatus `json:"status"`
	PrizePool            int               `json:"prize_pool"`
}
