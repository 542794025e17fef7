package engine

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// handleStartGame moves a lobby game into its first round.
func (s *Session) handleStartGame() {
	ctx := context.Background()

	g, err := s.loadGame(ctx, "start")
	if err != nil {
		return
	}
	if g.Status != models.GameStatusLobby {
		log.Warn().Str("pin", s.pin).Str("status", string(g.Status)).Msg("start: game is not in lobby, ignoring")
		return
	}
	if len(g.Questions) == 0 {
		log.Error().Str("pin", s.pin).Msg(ErrNoQuestions.Error())
		return
	}

	log.Info().Str("pin", s.pin).Str("ruleset", s.e.rules.Name).Int("questions", len(g.Questions)).Msg("game starting")
	s.startRound(ctx, g, 0, g.PrizePool)
}

// handleHostAdvance is the host's manual skip: cancel the clock and resolve
// the current round now.
func (s *Session) handleHostAdvance() {
	ctx := context.Background()

	g, err := s.loadGame(ctx, "advance")
	if err != nil {
		return
	}
	// PROCESSING is admitted so the host can re-trigger a resolution that
	// aborted on a persistence failure.
	if g.Status != models.GameStatusInProgress && g.Status != models.GameStatusProcessing {
		log.Warn().Str("pin", s.pin).Str("status", string(g.Status)).Msg("advance: game is not in progress, ignoring")
		return
	}

	s.e.timers.Cancel(s.pin)
	s.resolveRound(g.CurrentQuestionIndex, "host-advance")
}

// resolveRound is the core state machine step: freeze the round-start
// roster, partition survivors from eliminated, persist the round history
// entry, then either start the vote phase, advance to the next question, or
// finish the game.
//
// The session goroutine serializes entries; a trigger for an already
// resolved round fails the guard below and is dropped. A trigger that finds
// the game stuck in PROCESSING (a previous attempt aborted on a persistence
// failure) is allowed through to retry from the persisted state.
func (s *Session) resolveRound(questionIndex int, trigger string) {
	ctx := context.Background()

	g, err := s.loadGame(ctx, "resolve")
	if err != nil {
		return
	}
	if g.Status != models.GameStatusInProgress && g.Status != models.GameStatusProcessing {
		log.Debug().Err(ErrStaleRound).Str("pin", s.pin).Str("status", string(g.Status)).Str("trigger", trigger).Msg("resolve: dropping stale trigger")
		return
	}
	if g.CurrentQuestionIndex != questionIndex {
		log.Debug().Err(ErrStaleRound).Str("pin", s.pin).Int("trigger_round", questionIndex).Int("current_round", g.CurrentQuestionIndex).Msg("resolve: dropping stale trigger")
		return
	}
	q := g.CurrentQuestion()
	if q == nil {
		log.Error().Str("pin", s.pin).Int("index", questionIndex).Msg("resolve: no current question")
		return
	}

	if err := s.e.games.UpdateStatus(ctx, s.pin, models.GameStatusProcessing); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("resolve: failed to enter processing")
		return
	}

	roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
	if err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("resolve: failed to load players")
		return
	}

	log.Info().Str("pin", s.pin).Int("round", questionIndex+1).Str("trigger", trigger).Msg("resolving round")

	// Freeze the round-start roster: eliminations are only ever written
	// here and in the vote phase, so "not eliminated now" is "not
	// eliminated before this round began".
	var survivors, eliminated []*models.Player
	for i := range roster {
		p := &roster[i]
		if p.IsEliminated {
			continue
		}
		if p.AnsweredQuestion(q.ID) && p.LastAnswer.IsCorrect {
			survivors = append(survivors, p)
		} else {
			eliminated = append(eliminated, p)
		}
	}

	for _, p := range eliminated {
		reason := events.EliminatedNoAnswer
		if p.AnsweredQuestion(q.ID) {
			reason = events.EliminatedWrongAnswer
		}

		if err := s.e.players.SetEliminated(ctx, p.ID, true); err != nil {
			// Abort without rolling back earlier writes; the next trigger
			// retries from whatever was persisted.
			log.Error().Err(err).Str("pin", s.pin).Str("player_id", p.ID.String()).Msg("resolve: failed to eliminate player")
			return
		}
		p.IsEliminated = true

		if reason == events.EliminatedWrongAnswer {
			s.e.broadcast.BroadcastToPlayer(s.pin, p.ID.String(), events.TypeWrongAnswer, events.WrongAnswerPayload{
				QuestionID: q.ID.String(),
				Round:      questionIndex + 1,
			})
		}
		s.e.broadcast.BroadcastToGame(s.pin, events.TypePlayerEliminated, events.PlayerEliminatedPayload{
			PlayerID:   p.ID.String(),
			PlayerName: p.Name,
			Reason:     reason,
			Round:      questionIndex + 1,
		})
	}

	entry := buildRoundEntry(questionIndex, q, survivors, eliminated)
	if err := s.e.games.AppendRoundHistory(ctx, s.pin, entry); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("resolve: failed to append round history")
		return
	}

	s.e.broadcast.BroadcastToGame(s.pin, events.TypeRoundResults, events.RoundResultsPayload{
		Round:             entry.RoundNumber,
		QuestionID:        q.ID.String(),
		Survivors:         entry.Survivors,
		Eliminated:        entry.Eliminated,
		AverageResponseMs: entry.AverageResponseMs,
		Fastest:           entry.Fastest,
	})

	log.Info().
		Str("pin", s.pin).
		Int("round", entry.RoundNumber).
		Int("survivors", len(survivors)).
		Int("eliminated", len(eliminated)).
		Msg("round resolved")

	// Pacing pause between the results broadcast and whatever comes next.
	s.e.clock.Sleep(s.e.cfg.SettleDelay)

	if s.e.rules.RedemptionEnabled && s.startVoting(ctx, g, roster) {
		return
	}
	s.continueAfterRound(ctx, g)
}

// continueAfterRound decides finish-vs-next-round from the current roster.
func (s *Session) continueAfterRound(ctx context.Context, g *models.Game) {
	roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
	if err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("continue: failed to load players")
		return
	}

	active := 0
	for i := range roster {
		if !roster[i].IsEliminated {
			active++
		}
	}

	if active <= 1 || g.IsLastQuestion() {
		s.finishGame(ctx, g, roster)
		return
	}

	s.startRound(ctx, g, g.CurrentQuestionIndex+1, g.PrizePool+g.IncrementAmount)
}

// startRound clears answers, persists the new round state, announces the
// question, and arms the countdown.
func (s *Session) startRound(ctx context.Context, g *models.Game, index, prizePool int) {
	q := g.Questions[index]

	if err := s.e.players.ClearAnswersForGame(ctx, s.pin); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("round start: failed to clear answers")
		return
	}

	now := s.e.clock.Now()
	if err := s.e.games.UpdateRoundState(ctx, s.pin, game.UpdateRoundStateRequest{
		CurrentQuestionIndex: index,
		QuestionStartedAt:    &now,
		Status:               models.GameStatusInProgress,
		PrizePool:            prizePool,
	}); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("round start: failed to update round state")
		return
	}

	roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
	if err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("round start: failed to load players")
		return
	}
	active, total := 0, len(roster)
	for i := range roster {
		if !roster[i].IsEliminated {
			active++
		}
	}

	s.e.broadcast.BroadcastToGame(s.pin, events.TypeNextRoundStarted, events.NextRoundPayload{
		QuestionIndex: index,
		Question: events.QuestionView{
			ID:      q.ID.String(),
			Text:    q.Text,
			Options: q.Options,
		},
		PrizePool:       prizePool,
		QuestionSeconds: int(s.e.cfg.QuestionDuration.Seconds()),
		StartedAt:       now,
	})
	s.e.broadcast.BroadcastToGame(s.pin, events.TypeGameStateUpdate, events.GameStatePayload{
		Pin:                  s.pin,
		Status:               models.GameStatusInProgress,
		CurrentQuestionIndex: index,
		PrizePool:            prizePool,
		ActivePlayers:        active,
		TotalPlayers:         total,
	})
	s.e.broadcast.BroadcastToGame(s.pin, events.TypeLiveStats, events.LiveStatsPayload{
		ActivePlayers:     active,
		EliminatedPlayers: total - active,
		PrizePool:         prizePool,
	})

	s.armRoundTimer(index)

	log.Info().Str("pin", s.pin).Int("round", index+1).Int("active", active).Msg("round started")
}

func (s *Session) armRoundTimer(index int) {
	s.e.timers.Start(s.pin, s.e.cfg.QuestionDuration,
		func(secondsRemaining int) {
			s.e.broadcast.BroadcastToGame(s.pin, events.TypeTimerUpdate, events.TimerUpdatePayload{
				SecondsRemaining: secondsRemaining,
			})
		},
		func() {
			s.enqueue(timerExpiredEvent{questionIndex: index})
		},
	)
}

// finishGame writes the terminal status and broadcasts the leaderboard,
// then evicts the session. Persisted rows are left for the retention
// cleanup job.
func (s *Session) finishGame(ctx context.Context, g *models.Game, roster []models.Player) {
	if err := s.e.games.UpdateStatus(ctx, s.pin, models.GameStatusFinished); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("finish: failed to set status")
		return
	}

	// Roster arrives in join order; a stable sort keeps that as the
	// tie-break for equal scores.
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Score > roster[j].Score
	})

	var winners []string
	leaderboard := make([]events.LeaderboardEntry, 0, len(roster))
	for i := range roster {
		p := &roster[i]
		if !p.IsEliminated {
			winners = append(winners, p.Name)
		}
		leaderboard = append(leaderboard, events.LeaderboardEntry{
			PlayerID:   p.ID.String(),
			PlayerName: p.Name,
			Score:      p.Score,
			Eliminated: p.IsEliminated,
		})
	}

	s.e.broadcast.BroadcastToGame(s.pin, events.TypeGameOver, events.GameOverPayload{
		Winners:     winners,
		Leaderboard: leaderboard,
		PrizePool:   g.PrizePool,
		TotalRounds: g.CurrentQuestionIndex + 1,
	})

	log.Info().Str("pin", s.pin).Strs("winners", winners).Int("prize_pool", g.PrizePool).Msg("game over")

	s.e.removeSession(s.pin)
}

func buildRoundEntry(questionIndex int, q *models.Question, survivors, eliminated []*models.Player) models.RoundHistoryEntry {
	entry := models.RoundHistoryEntry{
		RoundNumber:  questionIndex + 1,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Survivors:    make([]string, 0, len(survivors)),
		Eliminated:   make([]string, 0, len(eliminated)),
	}

	var totalMs int64
	var counted int64
	var fastest *models.FastestResponse
	for _, p := range survivors {
		entry.Survivors = append(entry.Survivors, p.Name)
		if p.LastAnswer == nil {
			continue
		}
		totalMs += p.LastAnswer.ResponseTimeMs
		counted++
		// Strict less-than keeps the earliest-joined player on ties;
		// survivors iterate in join order.
		if fastest == nil || p.LastAnswer.ResponseTimeMs < fastest.ResponseTimeMs {
			fastest = &models.FastestResponse{
				PlayerName:     p.Name,
				ResponseTimeMs: p.LastAnswer.ResponseTimeMs,
			}
		}
	}
	for _, p := range eliminated {
		entry.Eliminated = append(entry.Eliminated, p.Name)
	}

	if counted > 0 {
		entry.AverageResponseMs = int64(math.Round(float64(totalMs) / float64(counted)))
	}
	entry.Fastest = fastest
	return entry
}
