package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/sqlutil"
)

// ErrNotFound is returned when no game exists for the given pin.
var ErrNotFound = errors.New("game not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	questionBytes, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO games (pin, status, current_question_index, prize_pool, increment_amount, questions)
		VALUES ($1, $2, 0, $3, $4, $5)
		RETURNING pin, status, current_question_index, question_start_time,
		          prize_pool, increment_amount, questions, created_at, updated_at`,
		req.Pin, models.GameStatusLobby, req.PrizePool, req.IncrementAmount, questionBytes,
	)

	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (r *Repository) GetGameByPin(ctx context.Context, pin string) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pin, status, current_question_index, question_start_time,
		       prize_pool, increment_amount, questions, created_at, updated_at
		FROM games WHERE pin = $1`,
		pin,
	)

	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error {
	tag, err := r.db.ExecContext(ctx, `
		UPDATE games SET status = $2, updated_at = now() WHERE pin = $1`,
		pin, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateRoundState(ctx context.Context, pin string, req UpdateRoundStateRequest) error {
	var startedAt sql.NullTime
	if req.QuestionStartedAt != nil {
		startedAt = sql.NullTime{Time: *req.QuestionStartedAt, Valid: true}
	}

	tag, err := r.db.ExecContext(ctx, `
		UPDATE games
		SET status = $2,
		    current_question_index = $3,
		    question_start_time = $4,
		    prize_pool = $5,
		    updated_at = now()
		WHERE pin = $1`,
		pin, req.Status, req.CurrentQuestionIndex, startedAt, req.PrizePool,
	)
	if err != nil {
		return fmt.Errorf("failed to update round state: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error {
	survivorBytes, err := json.Marshal(entry.Survivors)
	if err != nil {
		return fmt.Errorf("failed to marshal survivors: %w", err)
	}
	eliminatedBytes, err := json.Marshal(entry.Eliminated)
	if err != nil {
		return fmt.Errorf("failed to marshal eliminated: %w", err)
	}
	var fastestBytes []byte
	if entry.Fastest != nil {
		fastestBytes, err = json.Marshal(entry.Fastest)
		if err != nil {
			return fmt.Errorf("failed to marshal fastest response: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO round_history (game_pin, round_number, question_id, question_text,
		                           survivors, eliminated, average_response_ms, fastest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pin, entry.RoundNumber, entry.QuestionID, entry.QuestionText,
		survivorBytes, eliminatedBytes, entry.AverageResponseMs, fastestBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to append round history: %w", err)
	}
	return nil
}

func (r *Repository) ListRoundHistory(ctx context.Context, pin string) ([]models.RoundHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT round_number, question_id, question_text, survivors, eliminated,
		       average_response_ms, fastest, created_at
		FROM round_history
		WHERE game_pin = $1
		ORDER BY round_number`,
		pin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list round history: %w", err)
	}
	defer rows.Close()

	var entries []models.RoundHistoryEntry
	for rows.Next() {
		var (
			entry           models.RoundHistoryEntry
			questionID      uuid.UUID
			survivorBytes   []byte
			eliminatedBytes []byte
			fastestBytes    []byte
		)
		if err := rows.Scan(&entry.RoundNumber, &questionID, &entry.QuestionText,
			&survivorBytes, &eliminatedBytes, &entry.AverageResponseMs,
			&fastestBytes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round history row: %w", err)
		}
		entry.QuestionID = questionID
		if err := json.Unmarshal(survivorBytes, &entry.Survivors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal survivors: %w", err)
		}
		if err := json.Unmarshal(eliminatedBytes, &entry.Eliminated); err != nil {
			return nil, fmt.Errorf("failed to unmarshal eliminated: %w", err)
		}
		if len(fastestBytes) > 0 {
			var fastest models.FastestResponse
			if err := json.Unmarshal(fastestBytes, &fastest); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fastest response: %w", err)
			}
			entry.Fastest = &fastest
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListExpiredGames returns pins of finished games last touched before the
// cutoff, the retention janitor's work list.
func (r *Repository) ListExpiredGames(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pin FROM games WHERE status = $1 AND updated_at < $2`,
		models.GameStatusFinished, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired games: %w", err)
	}
	defer rows.Close()

	var pins []string
	for rows.Next() {
		var pin string
		if err := rows.Scan(&pin); err != nil {
			return nil, fmt.Errorf("failed to scan expired game row: %w", err)
		}
		pins = append(pins, pin)
	}
	return pins, rows.Err()
}

// DeleteGame removes a game together with its players and history in one
// transaction.
func (r *Repository) DeleteGame(ctx context.Context, pin string) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM round_history WHERE game_pin = $1`, pin); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE game_pin = $1`, pin); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM games WHERE pin = $1`, pin)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		g             models.Game
		startTime     sql.NullTime
		questionBytes []byte
	)
	err := row.Scan(&g.Pin, &g.Status, &g.CurrentQuestionIndex, &startTime,
		&g.PrizePool, &g.IncrementAmount, &questionBytes, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if startTime.Valid {
		t := startTime.Time
		g.QuestionStartTime = &t
	}
	if err := json.Unmarshal(questionBytes, &g.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &g, nil
}
