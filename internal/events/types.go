package events

// Type names an outbound event. Events are one-way notifications with no
// acknowledgement and no queuing; an empty room drops them.
type Type string

const (
	TypeGameStateUpdate  Type = "game-state-update"
	TypeTimerUpdate      Type = "timer-update"
	TypePlayerEliminated Type = "player-eliminated"
	TypeWrongAnswer      Type = "wrong-answer"
	TypeAnswerConfirmed  Type = "answer-confirmed"
	TypeAnswerProgress   Type = "answer-progress"
	TypeAnswerError      Type = "answer-error"
	TypeLiveStats        Type = "live-stats"
	TypeRoundResults     Type = "round-results"
	TypeVotingStarted    Type = "voting-started"
	TypePlayerRedeemed   Type = "player-redeemed"
	TypeNextRoundStarted Type = "next-round-started"
	TypeGameOver         Type = "game-over"
)
