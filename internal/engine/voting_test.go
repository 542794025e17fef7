package engine

import (
	"testing"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// Full redemption round: one player goes out, the room votes them back, and
// the next round starts with them active again.
func TestRedemptionVoteReinstatesWinner(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusInProgress
	now := clockNow()
	g.QuestionStartTime = &now

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	carol := newPlayer("carol", 2)
	answered(&alice, g.Questions[0], "a", 1000)
	answered(&bob, g.Questions[0], "a", 2000)
	answered(&carol, g.Questions[0], "d", 1500)
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob, carol})

	fx.session.handle(timerExpiredEvent{questionIndex: 0})

	// The round resolved but the loop paused for the vote window.
	if fx.games.game.Status != models.GameStatusVoting {
		t.Fatalf("status = %s, want VOTING", fx.games.game.Status)
	}
	if fx.games.game.CurrentQuestionIndex != 0 {
		t.Fatalf("question index moved during voting")
	}
	started := fx.broadcast.ofType(events.TypeVotingStarted)
	if len(started) != 1 {
		t.Fatalf("voting-started broadcasts = %d, want 1", len(started))
	}
	payload := started[0].Payload.(events.VotingStartedPayload)
	if len(payload.Candidates) != 1 || payload.Candidates[0].PlayerName != "carol" {
		t.Errorf("candidates = %+v, want just carol", payload.Candidates)
	}
	if n := fx.engine.Timers().ActiveTimers(); n != 1 {
		t.Errorf("ActiveTimers during vote window = %d, want 1", n)
	}

	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: carol.ID})
	fx.session.handle(castVoteEvent{voterID: bob.ID, candidateID: carol.ID})
	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	if fx.players.get(carol.ID).IsEliminated {
		t.Error("carol won the vote but stayed eliminated")
	}
	redeemed := fx.broadcast.ofType(events.TypePlayerRedeemed)
	if len(redeemed) != 1 {
		t.Fatalf("player-redeemed broadcasts = %d, want 1", len(redeemed))
	}
	rp := redeemed[0].Payload.(events.PlayerRedeemedPayload)
	if rp.PlayerName != "carol" || rp.Votes != 2 {
		t.Errorf("redeemed = %+v, want carol with 2 votes", rp)
	}

	// The loop resumed into round two.
	if fx.games.game.Status != models.GameStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", fx.games.game.Status)
	}
	if fx.games.game.CurrentQuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", fx.games.game.CurrentQuestionIndex)
	}
}

func TestVotingSkippedWhenNobodyIsOut(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusInProgress
	now := clockNow()
	g.QuestionStartTime = &now

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	answered(&alice, g.Questions[0], "a", 1000)
	answered(&bob, g.Questions[0], "a", 2000)
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob})

	fx.session.handle(timerExpiredEvent{questionIndex: 0})

	if fx.broadcast.count(events.TypeVotingStarted) != 0 {
		t.Error("vote window opened with no candidates")
	}
	if fx.games.game.Status != models.GameStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS (straight to next round)", fx.games.game.Status)
	}
	if fx.games.game.CurrentQuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", fx.games.game.CurrentQuestionIndex)
	}
}

func newVotingFixture(t *testing.T) (*engineFixture, models.Player, models.Player, models.Player) {
	t.Helper()
	g := newTestGame(3)
	g.Status = models.GameStatusVoting

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	carol := newPlayer("carol", 2)
	bob.IsEliminated = true
	carol.IsEliminated = true
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob, carol})
	return fx, alice, bob, carol
}

// A repeat vote from the same voter replaces the previous one instead of
// stacking.
func TestRepeatVoteReplacesPreviousVote(t *testing.T) {
	fx, alice, bob, carol := newVotingFixture(t)

	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: bob.ID})
	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: carol.ID})
	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	if fx.players.get(bob.ID).IsEliminated == false {
		t.Error("bob was reinstated from a replaced vote")
	}
	if fx.players.get(carol.ID).IsEliminated {
		t.Error("carol should be reinstated by alice's final vote")
	}
}

func TestVoteTieGoesToEarliestJoinedCandidate(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusVoting

	alice := newPlayer("alice", 0)
	dave := newPlayer("dave", 1)
	bob := newPlayer("bob", 2)
	carol := newPlayer("carol", 3)
	bob.IsEliminated = true
	carol.IsEliminated = true
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, dave, bob, carol})

	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: carol.ID})
	fx.session.handle(castVoteEvent{voterID: dave.ID, candidateID: bob.ID})
	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	// One vote each: bob joined before carol, so bob comes back.
	if fx.players.get(bob.ID).IsEliminated {
		t.Error("bob should win the tie by join order")
	}
	if !fx.players.get(carol.ID).IsEliminated {
		t.Error("carol should stay eliminated")
	}
}

func TestInvalidVotesAreDropped(t *testing.T) {
	fx, alice, bob, carol := newVotingFixture(t)

	// Eliminated players cannot vote.
	fx.session.handle(castVoteEvent{voterID: bob.ID, candidateID: carol.ID})
	// Active players are not candidates.
	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: alice.ID})

	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	if fx.broadcast.count(events.TypePlayerRedeemed) != 0 {
		t.Error("invalid votes produced a redemption")
	}
	if !fx.players.get(bob.ID).IsEliminated || !fx.players.get(carol.ID).IsEliminated {
		t.Error("eliminations changed despite only invalid votes")
	}
}

func TestVoteWindowWithNoVotesRedeemsNobody(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusVoting

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	carol := newPlayer("carol", 2)
	carol.IsEliminated = true
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob, carol})

	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	if fx.broadcast.count(events.TypePlayerRedeemed) != 0 {
		t.Error("redemption broadcast without any votes")
	}
	if !fx.players.get(carol.ID).IsEliminated {
		t.Error("a player was reinstated without votes")
	}
	// Two players are still in, so the loop resumes into the next round.
	if fx.games.game.Status != models.GameStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", fx.games.game.Status)
	}
	if fx.games.game.CurrentQuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", fx.games.game.CurrentQuestionIndex)
	}
}

func TestVoteIgnoredOutsideVoteWindow(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusInProgress
	now := clockNow()
	g.QuestionStartTime = &now

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	bob.IsEliminated = true
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob})

	fx.session.handle(castVoteEvent{voterID: alice.ID, candidateID: bob.ID})

	if len(fx.session.votes) != 0 {
		t.Error("vote recorded while no window was open")
	}
}

func TestStaleVoteWindowCloseIsDropped(t *testing.T) {
	g := newTestGame(3)
	g.Status = models.GameStatusInProgress
	g.CurrentQuestionIndex = 1
	now := clockNow()
	g.QuestionStartTime = &now

	alice := newPlayer("alice", 0)
	bob := newPlayer("bob", 1)
	bob.IsEliminated = true
	fx := newFixture(RedemptionRules(100, 50), g, []models.Player{alice, bob})

	fx.session.handle(voteWindowClosedEvent{questionIndex: 0})

	if fx.broadcast.count(events.TypePlayerRedeemed) != 0 {
		t.Error("stale vote close produced a redemption")
	}
	if fx.games.game.CurrentQuestionIndex != 1 {
		t.Error("stale vote close advanced the round")
	}
}
