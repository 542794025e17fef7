package engine

import "errors"

var (
	// ErrNotAcceptingAnswers is returned when a submission arrives while the
	// game is not in progress.
	ErrNotAcceptingAnswers = errors.New("game is not accepting answers")

	// ErrDuplicateAnswer marks a submission from a player who already
	// answered the current question. The submission is an idempotent no-op.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")

	// ErrPlayerEliminated is returned when an eliminated player submits.
	ErrPlayerEliminated = errors.New("player has been eliminated")

	// ErrStaleRound marks a resolution trigger that refers to a round
	// already resolved. Racing triggers collapse into one resolution by
	// dropping the stale one.
	ErrStaleRound = errors.New("round already resolved")

	// ErrNoQuestions is returned when a game with an empty question list is
	// started.
	ErrNoQuestions = errors.New("game has no questions")
)
