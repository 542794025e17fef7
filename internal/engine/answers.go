package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/player"
)

// handleSubmitAnswer accepts at most one answer per player per question,
// credits correct answers through the scoring policy, and triggers early
// resolution once every active player has answered.
func (s *Session) handleSubmitAnswer(ev submitAnswerEvent) {
	ctx := context.Background()
	playerID := ev.playerID.String()

	g, err := s.loadGame(ctx, "submit")
	if err != nil {
		s.answerError(playerID, "game not found")
		return
	}
	if g.Status != models.GameStatusInProgress {
		s.answerError(playerID, ErrNotAcceptingAnswers.Error())
		return
	}
	q := g.CurrentQuestion()
	if q == nil || g.QuestionStartTime == nil {
		s.answerError(playerID, ErrNotAcceptingAnswers.Error())
		return
	}

	roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
	if err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("submit: failed to load players")
		s.answerError(playerID, "could not record answer")
		return
	}

	var submitter *models.Player
	for i := range roster {
		if roster[i].ID == ev.playerID {
			submitter = &roster[i]
			break
		}
	}
	if submitter == nil {
		s.answerError(playerID, "player not found in this game")
		return
	}
	if submitter.IsEliminated {
		s.answerError(playerID, ErrPlayerEliminated.Error())
		return
	}
	if submitter.AnsweredQuestion(q.ID) {
		// Idempotent no-op: no score change, no repeat broadcast.
		log.Debug().Err(ErrDuplicateAnswer).Str("pin", s.pin).Str("player_id", playerID).Msg("duplicate answer ignored")
		return
	}

	now := s.e.clock.Now()
	responseTime := now.Sub(*g.QuestionStartTime)
	answer := models.LastAnswer{
		QuestionID:     q.ID,
		Answer:         ev.answer,
		IsCorrect:      ev.answer == q.CorrectAnswer,
		SubmittedAt:    now,
		ResponseTimeMs: responseTime.Milliseconds(),
	}

	scoreDelta := 0
	if answer.IsCorrect {
		scoreDelta = s.e.rules.Scoring.Score(responseTime, s.e.cfg.QuestionDuration)
	}

	if err := s.e.players.RecordAnswer(ctx, ev.playerID, player.RecordAnswerRequest{
		Answer:     answer,
		ScoreDelta: scoreDelta,
	}); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Str("player_id", playerID).Msg("submit: failed to record answer")
		s.answerError(playerID, "could not record answer")
		return
	}
	submitter.LastAnswer = &answer

	s.e.broadcast.BroadcastToPlayer(s.pin, playerID, events.TypeAnswerConfirmed, events.AnswerConfirmedPayload{
		QuestionID:     q.ID.String(),
		SubmittedAt:    now,
		ResponseTimeMs: answer.ResponseTimeMs,
	})

	answered, total := 0, 0
	for i := range roster {
		if roster[i].IsEliminated {
			continue
		}
		total++
		if roster[i].AnsweredQuestion(q.ID) {
			answered++
		}
	}
	s.e.broadcast.BroadcastToGame(s.pin, events.TypeAnswerProgress, events.AnswerProgressPayload{
		Answered: answered,
		Total:    total,
	})

	log.Info().
		Str("pin", s.pin).
		Str("player_id", playerID).
		Bool("correct", answer.IsCorrect).
		Int64("response_ms", answer.ResponseTimeMs).
		Int("answered", answered).
		Int("total", total).
		Msg("answer recorded")

	// Early resolution: everyone still in has answered, no need to wait out
	// the clock.
	if total > 0 && answered == total {
		s.e.timers.Cancel(s.pin)
		s.enqueue(allAnsweredEvent{questionIndex: g.CurrentQuestionIndex})
	}
}

func (s *Session) answerError(playerID, message string) {
	log.Debug().Str("pin", s.pin).Str("player_id", playerID).Str("reason", message).Msg("answer rejected")
	s.e.broadcast.BroadcastToPlayer(s.pin, playerID, events.TypeAnswerError, events.AnswerErrorPayload{
		Message: message,
	})
}
