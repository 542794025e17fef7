package player

import (
	"github.com/google/uuid"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// CreatePlayerRequest represents a request to add a player to a game.
type CreatePlayerRequest struct {
	ID      uuid.UUID `json:"id"`
	GamePin string    `json:"game_pin"`
	Name    string    `json:"name"`
}

// RecordAnswerRequest persists a player's answer and any score credit in a
// single write.
type RecordAnswerRequest struct {
	Answer     models.LastAnswer `json:"answer"`
	ScoreDelta int               `json:"score_delta"`
}
