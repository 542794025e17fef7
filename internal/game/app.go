package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// GameRepository defines what the game app layer needs from the repository.
type GameRepository interface {
	CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error)
	GetGameByPin(ctx context.Context, pin string) (*models.Game, error)
	UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error
	UpdateRoundState(ctx context.Context, pin string, req UpdateRoundStateRequest) error
	AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error
	ListRoundHistory(ctx context.Context, pin string) ([]models.RoundHistoryEntry, error)
	ListExpiredGames(ctx context.Context, cutoff time.Time) ([]string, error)
	DeleteGame(ctx context.Context, pin string) error
}

// App handles game business logic.
type App struct {
	repo GameRepository
}

func NewApp(repo GameRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateGame creates a new lobby game with validation.
func (a *App) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	if err := validatePin(req.Pin); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("validation failed: game needs at least one question")
	}
	for i, q := range req.Questions {
		if q.Text == "" || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("validation failed: question %d is incomplete", i)
		}
	}
	if req.IncrementAmount < 0 || req.PrizePool < 0 {
		return nil, fmt.Errorf("validation failed: prize amounts must be non-negative")
	}

	game, err := a.repo.CreateGame(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info().Str("pin", game.Pin).Int("questions", len(game.Questions)).Msg("created game")
	return game, nil
}

// GetGameByPin retrieves a game by its join pin.
func (a *App) GetGameByPin(ctx context.Context, pin string) (*models.Game, error) {
	if err := validatePin(pin); err != nil {
		return nil, err
	}
	return a.repo.GetGameByPin(ctx, pin)
}

// UpdateStatus transitions a game's status.
func (a *App) UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error {
	switch status {
	case models.GameStatusLobby, models.GameStatusInProgress, models.GameStatusProcessing,
		models.GameStatusVoting, models.GameStatusFinished:
	default:
		return fmt.Errorf("validation failed: unknown status %q", status)
	}
	return a.repo.UpdateStatus(ctx, pin, status)
}

// UpdateRoundState writes the next-round fields in one statement.
func (a *App) UpdateRoundState(ctx context.Context, pin string, req UpdateRoundStateRequest) error {
	if req.CurrentQuestionIndex < 0 {
		return fmt.Errorf("validation failed: question index must be non-negative")
	}
	return a.repo.UpdateRoundState(ctx, pin, req)
}

// AppendRoundHistory appends one resolved round. Entries are append-only.
func (a *App) AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error {
	if entry.RoundNumber <= 0 {
		return fmt.Errorf("validation failed: round number must be positive")
	}
	return a.repo.AppendRoundHistory(ctx, pin, entry)
}

// ListRoundHistory returns all resolved rounds in round order.
func (a *App) ListRoundHistory(ctx context.Context, pin string) ([]models.RoundHistoryEntry, error) {
	return a.repo.ListRoundHistory(ctx, pin)
}

// ListExpiredGames returns pins of finished games older than the cutoff.
func (a *App) ListExpiredGames(ctx context.Context, cutoff time.Time) ([]string, error) {
	return a.repo.ListExpiredGames(ctx, cutoff)
}

// DeleteGame removes a game and everything attached to it.
func (a *App) DeleteGame(ctx context.Context, pin string) error {
	return a.repo.DeleteGame(ctx, pin)
}

const maxPinLength = 12

func validatePin(pin string) error {
	if pin == "" {
		return fmt.Errorf("pin is required")
	}
	if len(pin) > maxPinLength {
		return fmt.Errorf("pin too long")
	}
	if strings.ContainsAny(pin, " \t\n") {
		return fmt.Errorf("pin contains whitespace")
	}
	return nil
}
