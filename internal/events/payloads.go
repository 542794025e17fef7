package events

import (
	"time"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// Event payload types shared between the engine and the gateway.

// QuestionView is a question as broadcast to players: the correct answer is
// never part of an outbound payload.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// GameStatePayload is a snapshot broadcast on status transitions.
type GameStatePayload struct {
	Pin                  string            `json:"pin"`
	Status               models.GameStatus `json:"status"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	PrizePool            int               `json:"prize_pool"`
	ActivePlayers        int               `json:"active_players"`
	TotalPlayers         int               `json:"total_players"`
}

// TimerUpdatePayload carries the whole seconds remaining on the round clock.
type TimerUpdatePayload struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

// NextRoundPayload announces the next question. StartedAt is the instant
// response times are measured from.
type NextRoundPayload struct {
	QuestionIndex   int          `json:"question_index"`
	Question        QuestionView `json:"question"`
	PrizePool       int          `json:"prize_pool"`
	QuestionSeconds int          `json:"question_seconds"`
	StartedAt       time.Time    `json:"started_at"`
}

// AnswerConfirmedPayload acknowledges a submission to the submitter only.
type AnswerConfirmedPayload struct {
	QuestionID     string    `json:"question_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

// AnswerProgressPayload is the aggregate answered/total count for the room.
type AnswerProgressPayload struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// AnswerErrorPayload is sent to the submitting client when their submission
// is rejected.
type AnswerErrorPayload struct {
	Message string `json:"message"`
}

// EliminationReason distinguishes how a player went out.
type EliminationReason string

const (
	EliminatedWrongAnswer EliminationReason = "wrong_answer"
	EliminatedNoAnswer    EliminationReason = "no_answer"
)

// PlayerEliminatedPayload announces one elimination to the room.
type PlayerEliminatedPayload struct {
	PlayerID   string            `json:"player_id"`
	PlayerName string            `json:"player_name"`
	Reason     EliminationReason `json:"reason"`
	Round      int               `json:"round"`
}

// WrongAnswerPayload is sent to a player who answered incorrectly.
type WrongAnswerPayload struct {
	QuestionID string `json:"question_id"`
	Round      int    `json:"round"`
}

// RoundResultsPayload summarizes a resolved round for the room.
type RoundResultsPayload struct {
	Round             int                     `json:"round"`
	QuestionID        string                  `json:"question_id"`
	Survivors         []string                `json:"survivors"`
	Eliminated        []string                `json:"eliminated"`
	AverageResponseMs int64                   `json:"average_response_ms"`
	Fastest           *models.FastestResponse `json:"fastest,omitempty"`
}

// LiveStatsPayload is the running counters broadcast after each round.
type LiveStatsPayload struct {
	ActivePlayers     int `json:"active_players"`
	EliminatedPlayers int `json:"eliminated_players"`
	PrizePool         int `json:"prize_pool"`
}

// VotingCandidate is one eliminated player up for redemption.
type VotingCandidate struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// VotingStartedPayload opens a redemption vote window.
type VotingStartedPayload struct {
	Candidates    []VotingCandidate `json:"candidates"`
	WindowSeconds int               `json:"window_seconds"`
	Round         int               `json:"round"`
}

// PlayerRedeemedPayload announces the reinstated player. Votes is the
// winning tally.
type PlayerRedeemedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Votes      int    `json:"votes"`
}

// LeaderboardEntry is one row of the final standings.
type LeaderboardEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	Eliminated bool   `json:"eliminated"`
}

// GameOverPayload carries the final leaderboard, sorted by score descending.
type GameOverPayload struct {
	Winners     []string           `json:"winners"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	PrizePool   int                `json:"prize_pool"`
	TotalRounds int                `json:"total_rounds"`
}
