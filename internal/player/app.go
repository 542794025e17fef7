package player

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// PlayerRepository defines what the player app layer needs from the repository.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayersForGame(ctx context.Context, pin string) ([]models.Player, error)
	RecordAnswer(ctx context.Context, id uuid.UUID, req RecordAnswerRequest) error
	SetEliminated(ctx context.Context, id uuid.UUID, eliminated bool) error
	ClearAnswersForGame(ctx context.Context, pin string) error
}

// App handles player business logic.
type App struct {
	repo PlayerRepository
}

func NewApp(repo PlayerRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreatePlayer adds a player to a game with validation.
func (a *App) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("validation failed: player name is required")
	}
	if req.GamePin == "" {
		return nil, fmt.Errorf("validation failed: game pin is required")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	p, err := a.repo.CreatePlayer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	log.Info().Str("pin", p.GamePin).Str("player_id", p.ID.String()).Str("name", p.Name).Msg("player joined")
	return p, nil
}

// GetPlayer retrieves a player by id.
func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// ListPlayersForGame returns the roster in join order.
func (a *App) ListPlayersForGame(ctx context.Context, pin string) ([]models.Player, error) {
	return a.repo.ListPlayersForGame(ctx, pin)
}

// RecordAnswer persists an answer record plus any score credit.
func (a *App) RecordAnswer(ctx context.Context, id uuid.UUID, req RecordAnswerRequest) error {
	if req.ScoreDelta < 0 {
		return fmt.Errorf("validation failed: score delta must be non-negative")
	}
	return a.repo.RecordAnswer(ctx, id, req)
}

// SetEliminated flips a player's elimination flag.
func (a *App) SetEliminated(ctx context.Context, id uuid.UUID, eliminated bool) error {
	return a.repo.SetEliminated(ctx, id, eliminated)
}

// ClearAnswersForGame resets all answers for a game at the start of a round.
func (a *App) ClearAnswersForGame(ctx context.Context, pin string) error {
	return a.repo.ClearAnswersForGame(ctx, pin)
}
