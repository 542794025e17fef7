package models

import (
	"time"

	"github.com/google/uuid"
)

// LastAnswer records a player's answer to the current question. It is stored
// as a nullable JSONB column and cleared at the start of every round, so a
// non-nil value whose QuestionID matches the current question is exactly
// "this player answered this round".
type LastAnswer struct {
	QuestionID     uuid.UUID `json:"question_id"`
	Answer         string    `json:"answer"`
	IsCorrect      bool      `json:"is_correct"`
	SubmittedAt    time.Time `json:"submitted_at"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

// Player represents one participant in a game. Eliminated players stay in
// the roster and appear in the final rankings.
type Player struct {
	ID           uuid.UUID   `json:"id"`
	GamePin      string      `json:"game_pin"`
	Name         string      `json:"name"`
	Score        int         `json:"score"`
	IsEliminated bool        `json:"is_eliminated"`
	LastAnswer   *LastAnswer `json:"last_answer,omitempty"`
	JoinedAt     time.Time   `json:"joined_at"`
}

// AnsweredQuestion reports whether the player has a recorded answer for the
// given question.
func (p *Player) AnsweredQuestion(questionID uuid.UUID) bool {
	return p.LastAnswer != nil && p.LastAnswer.QuestionID == questionID
}
