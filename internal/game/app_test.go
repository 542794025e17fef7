package game

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

type fakeRepo struct {
	created []CreateGameRequest
	deleted []string
	expired []string

	statuses []models.GameStatus
	history  []models.RoundHistoryEntry
}

func (f *fakeRepo) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	f.created = append(f.created, req)
	return &models.Game{Pin: req.Pin, Status: models.GameStatusLobby, Questions: req.Questions}, nil
}

func (f *fakeRepo) GetGameByPin(ctx context.Context, pin string) (*models.Game, error) {
	return &models.Game{Pin: pin}, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, pin string, status models.GameStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRepo) UpdateRoundState(ctx context.Context, pin string, req UpdateRoundStateRequest) error {
	return nil
}

func (f *fakeRepo) AppendRoundHistory(ctx context.Context, pin string, entry models.RoundHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeRepo) ListRoundHistory(ctx context.Context, pin string) ([]models.RoundHistoryEntry, error) {
	return f.history, nil
}

func (f *fakeRepo) ListExpiredGames(ctx context.Context, cutoff time.Time) ([]string, error) {
	return f.expired, nil
}

func (f *fakeRepo) DeleteGame(ctx context.Context, pin string) error {
	f.deleted = append(f.deleted, pin)
	return nil
}

func validCreateRequest() CreateGameRequest {
	return CreateGameRequest{
		Pin:             "GAME01",
		PrizePool:       100,
		IncrementAmount: 50,
		Questions: []models.Question{
			{ID: uuid.New(), Text: "q", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		},
	}
}

func TestCreateGameValidation(t *testing.T) {
	repo := &fakeRepo{}
	app := NewApp(repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateGameRequest)
	}{
		{"empty pin", func(r *CreateGameRequest) { r.Pin = "" }},
		{"pin too long", func(r *CreateGameRequest) { r.Pin = strings.Repeat("X", 13) }},
		{"pin with whitespace", func(r *CreateGameRequest) { r.Pin = "GA ME" }},
		{"no questions", func(r *CreateGameRequest) { r.Questions = nil }},
		{"question without text", func(r *CreateGameRequest) { r.Questions[0].Text = "" }},
		{"question without answer", func(r *CreateGameRequest) { r.Questions[0].CorrectAnswer = "" }},
		{"negative prize pool", func(r *CreateGameRequest) { r.PrizePool = -1 }},
		{"negative increment", func(r *CreateGameRequest) { r.IncrementAmount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			if _, err := app.CreateGame(ctx, req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	if len(repo.created) != 0 {
		t.Errorf("repo saw %d creates from invalid requests", len(repo.created))
	}

	if _, err := app.CreateGame(ctx, validCreateRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if len(repo.created) != 1 {
		t.Errorf("repo creates = %d, want 1", len(repo.created))
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := &fakeRepo{}
	app := NewApp(repo)

	if err := app.UpdateStatus(context.Background(), "GAME01", "PAUSED"); err == nil {
		t.Error("unknown status accepted")
	}
	if err := app.UpdateStatus(context.Background(), "GAME01", models.GameStatusVoting); err != nil {
		t.Errorf("valid status rejected: %v", err)
	}
}

func TestAppendRoundHistoryRejectsNonPositiveRounds(t *testing.T) {
	repo := &fakeRepo{}
	app := NewApp(repo)

	if err := app.AppendRoundHistory(context.Background(), "GAME01", models.RoundHistoryEntry{RoundNumber: 0}); err == nil {
		t.Error("round number 0 accepted")
	}
	if err := app.AppendRoundHistory(context.Background(), "GAME01", models.RoundHistoryEntry{RoundNumber: 1}); err != nil {
		t.Errorf("valid entry rejected: %v", err)
	}
}
