package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// startVoting opens a redemption vote window over the eliminated roster.
// Returns false when nobody is eliminated, in which case the vote phase is
// skipped entirely and the round continues directly.
func (s *Session) startVoting(ctx context.Context, g *models.Game, roster []models.Player) bool {
	var candidates []events.VotingCandidate
	for i := range roster {
		if roster[i].IsEliminated {
			candidates = append(candidates, events.VotingCandidate{
				PlayerID:   roster[i].ID.String(),
				PlayerName: roster[i].Name,
			})
		}
	}
	if len(candidates) == 0 {
		return false
	}

	if err := s.e.games.UpdateStatus(ctx, s.pin, models.GameStatusVoting); err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("voting: failed to enter voting status")
		return false
	}

	s.votes = make(map[uuid.UUID]uuid.UUID)
	questionIndex := g.CurrentQuestionIndex

	s.e.broadcast.BroadcastToGame(s.pin, events.TypeVotingStarted, events.VotingStartedPayload{
		Candidates:    candidates,
		WindowSeconds: int(s.e.cfg.VoteWindow.Seconds()),
		Round:         questionIndex + 1,
	})

	s.e.timers.Start(s.pin, s.e.cfg.VoteWindow,
		func(secondsRemaining int) {
			s.e.broadcast.BroadcastToGame(s.pin, events.TypeTimerUpdate, events.TimerUpdatePayload{
				SecondsRemaining: secondsRemaining,
			})
		},
		func() {
			s.enqueue(voteWindowClosedEvent{questionIndex: questionIndex})
		},
	)

	log.Info().Str("pin", s.pin).Int("candidates", len(candidates)).Msg("vote window opened")
	return true
}

// handleCastVote records one vote from an active player for an eliminated
// candidate. A repeat vote from the same voter replaces the earlier one.
// Invalid votes are dropped with a log line, never an error to the room.
func (s *Session) handleCastVote(ev castVoteEvent) {
	ctx := context.Background()

	g, err := s.loadGame(ctx, "vote")
	if err != nil {
		return
	}
	if g.Status != models.GameStatusVoting {
		log.Debug().Str("pin", s.pin).Str("status", string(g.Status)).Msg("vote: no vote window open")
		return
	}

	roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
	if err != nil {
		log.Error().Err(err).Str("pin", s.pin).Msg("vote: failed to load players")
		return
	}

	var voter, candidate *models.Player
	for i := range roster {
		switch roster[i].ID {
		case ev.voterID:
			voter = &roster[i]
		case ev.candidateID:
			candidate = &roster[i]
		}
	}
	if voter == nil || voter.IsEliminated {
		log.Debug().Str("pin", s.pin).Str("voter_id", ev.voterID.String()).Msg("vote: voter not eligible")
		return
	}
	if candidate == nil || !candidate.IsEliminated {
		log.Debug().Str("pin", s.pin).Str("candidate_id", ev.candidateID.String()).Msg("vote: candidate not eligible")
		return
	}

	s.votes[ev.voterID] = ev.candidateID
	log.Info().Str("pin", s.pin).Str("voter_id", ev.voterID.String()).Str("candidate_id", ev.candidateID.String()).Msg("vote cast")
}

// handleVoteWindowClosed tallies the votes, reinstates the winner, clears
// the tally unconditionally, and resumes the round loop.
func (s *Session) handleVoteWindowClosed(questionIndex int) {
	ctx := context.Background()

	g, err := s.loadGame(ctx, "vote close")
	if err != nil {
		return
	}
	if g.Status != models.GameStatusVoting || g.CurrentQuestionIndex != questionIndex {
		log.Debug().Err(ErrStaleRound).Str("pin", s.pin).Str("status", string(g.Status)).Msg("vote close: dropping stale trigger")
		return
	}

	tally := make(map[uuid.UUID]int)
	for _, candidateID := range s.votes {
		tally[candidateID]++
	}
	s.votes = make(map[uuid.UUID]uuid.UUID)

	if len(tally) > 0 {
		roster, err := s.e.players.ListPlayersForGame(ctx, s.pin)
		if err != nil {
			log.Error().Err(err).Str("pin", s.pin).Msg("vote close: failed to load players")
			return
		}

		// Roster is join-ordered, so scanning with strict greater-than
		// breaks count ties in favor of the earliest-joined candidate.
		var winner *models.Player
		winnerVotes := 0
		for i := range roster {
			votes, ok := tally[roster[i].ID]
			if !ok || !roster[i].IsEliminated {
				continue
			}
			if winner == nil || votes > winnerVotes {
				winner = &roster[i]
				winnerVotes = votes
			}
		}

		if winner != nil {
			if err := s.e.players.SetEliminated(ctx, winner.ID, false); err != nil {
				log.Error().Err(err).Str("pin", s.pin).Str("player_id", winner.ID.String()).Msg("vote close: failed to reinstate player")
				return
			}
			s.e.broadcast.BroadcastToGame(s.pin, events.TypePlayerRedeemed, events.PlayerRedeemedPayload{
				PlayerID:   winner.ID.String(),
				PlayerName: winner.Name,
				Votes:      winnerVotes,
			})
			log.Info().Str("pin", s.pin).Str("player", winner.Name).Int("votes", winnerVotes).Msg("player redeemed")
		}
	}

	s.continueAfterRound(ctx, g)
}
