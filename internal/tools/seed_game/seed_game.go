package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/dbconfig"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/models"
)

// Seeds a demo game with a short question set and a handful of players so
// the websocket flow can be exercised without a host UI.

var demoQuestions = []models.Question{
	{ID: uuid.New(), Text: "Which planet is closest to the sun?", Options: []string{"Venus", "Mercury", "Mars", "Earth"}, CorrectAnswer: "Mercury"},
	{ID: uuid.New(), Text: "What is the capital of Kenya?", Options: []string{"Mombasa", "Kisumu", "Nairobi", "Nakuru"}, CorrectAnswer: "Nairobi"},
	{ID: uuid.New(), Text: "How many continents are there?", Options: []string{"five", "six", "seven", "eight"}, CorrectAnswer: "seven"},
	{ID: uuid.New(), Text: "Which gas do plants absorb?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectAnswer: "Carbon dioxide"},
}

var demoPlayers = []string{"amina", "brian", "chebet", "daniel", "esther"}

func main() {
	pin := "DEMO01"
	if len(os.Args) > 1 {
		pin = os.Args[1]
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	questionBytes, err := json.Marshal(demoQuestions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal questions: %v\n", err)
		os.Exit(1)
	}

	cmdTag, err := pool.Exec(context.Background(), `
        INSERT INTO games (pin, status, current_question_index, prize_pool, increment_amount, questions)
        VALUES ($1, $2, 0, $3, $4, $5)
        ON CONFLICT (pin) DO NOTHING
    `, pin, models.GameStatusLobby, 100, 50, questionBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error inserting game %s: %v\n", pin, err)
		os.Exit(1)
	}
	if cmdTag.RowsAffected() == 0 {
		fmt.Printf("Game %s already exists, skipping\n", pin)
		return
	}

	inserted := 0
	for i, name := range demoPlayers {
		// Stagger joined_at so tie-break ordering is deterministic.
		joinedAt := time.Now().Add(time.Duration(i) * time.Second)
		_, err := pool.Exec(context.Background(), `
            INSERT INTO players (id, game_pin, name, score, is_eliminated, joined_at)
            VALUES ($1, $2, $3, 0, false, $4)
        `, uuid.New(), pin, name, joinedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting player %s: %v\n", name, err)
			continue
		}
		inserted++
	}

	fmt.Printf("Seed complete: game %s with %d questions, %d players\n", pin, len(demoQuestions), inserted)
}
