package player

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO players (id, game_pin, name, score, is_eliminated)
		VALUES ($1, $2, $3, 0, false)
		RETURNING id, game_pin, name, score, is_eliminated, last_answer, joined_at`,
		req.ID, req.GamePin, req.Name,
	)

	p, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return p, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, game_pin, name, score, is_eliminated, last_answer, joined_at
		FROM players WHERE id = $1`,
		id,
	)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// ListPlayersForGame returns the roster ordered by join time. Join order is
// the tie-break order everywhere a tie can occur.
func (r *Repository) ListPlayersForGame(ctx context.Context, pin string) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, game_pin, name, score, is_eliminated, last_answer, joined_at
		FROM players
		WHERE game_pin = $1
		ORDER BY joined_at, id`,
		pin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *Repository) RecordAnswer(ctx context.Context, id uuid.UUID, req RecordAnswerRequest) error {
	answerBytes, err := json.Marshal(req.Answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	tag, err := r.db.ExecContext(ctx, `
		UPDATE players SET last_answer = $2, score = score + $3 WHERE id = $1`,
		id, answerBytes, req.ScoreDelta,
	)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetEliminated(ctx context.Context, id uuid.UUID, eliminated bool) error {
	tag, err := r.db.ExecContext(ctx, `
		UPDATE players SET is_eliminated = $2 WHERE id = $1`,
		id, eliminated,
	)
	if err != nil {
		return fmt.Errorf("failed to set elimination flag: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAnswersForGame unsets every player's last answer in one statement,
// the round-reset bulk update.
func (r *Repository) ClearAnswersForGame(ctx context.Context, pin string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE players SET last_answer = NULL WHERE game_pin = $1`,
		pin,
	); err != nil {
		return fmt.Errorf("failed to clear answers: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var (
		p          models.Player
		lastAnswer pqtype.NullRawMessage
	)
	err := row.Scan(&p.ID, &p.GamePin, &p.Name, &p.Score, &p.IsEliminated,
		&lastAnswer, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	if lastAnswer.Valid {
		var la models.LastAnswer
		if err := json.Unmarshal(lastAnswer.RawMessage, &la); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last answer: %w", err)
		}
		p.LastAnswer = &la
	}
	return &p, nil
}
