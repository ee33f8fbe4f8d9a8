package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Quiz is a seeded game with one round
type Quiz struct {
	Repo    *repository.Repository
	GameID  int64
	RoundID int64
}

// NewQuiz seeds a team-mode game with a single round
func NewQuiz(t *testing.T) *Quiz {
	t.Helper()
	repo := NewTestRepository(t)
	ctx := context.Background()

	gameID, err := repo.CreateGame(ctx, "Pub Quiz", "", models.ModeTeam)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	roundID, err := repo.CreateRound(ctx, gameID, "Round 1", "", 1)
	if err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	return &Quiz{Repo: repo, GameID: gameID, RoundID: roundID}
}

// AddQuestion inserts q into the quiz round, filling in defaults
func (q *Quiz) AddQuestion(t *testing.T, question models.Question) *models.Question {
	t.Helper()
	question.RoundID = q.RoundID
	question.GameID = q.GameID
	if question.Text == "" {
		question.Text = "Question"
	}
	if question.Type == "" {
		question.Type = models.QuestionOpen
	}
	if question.Type == models.QuestionChoice && question.Options == nil {
		question.Options = []string{"A", "B", "C"}
	}
	if question.Points == 0 {
		question.Points = 1
	}
	if question.BetMultiplier == 0 {
		question.BetMultiplier = 1
	}
	if question.TimeLimit == 0 {
		question.TimeLimit = models.DefaultTimeLimit
	}
	id, err := q.Repo.CreateQuestion(context.Background(), &question)
	if err != nil {
		t.Fatalf("CreateQuestion failed: %v", err)
	}
	question.ID = id
	return &question
}

// AddParticipant registers a team under the given session key
func (q *Quiz) AddParticipant(t *testing.T, sessionKey, teamName string) *models.Participant {
	t.Helper()
	p := models.Participant{GameID: q.GameID, SessionKey: sessionKey, TeamName: teamName}
	id, err := q.Repo.CreateParticipant(context.Background(), &p)
	if err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}
	p.ID = id
	return &p
}

// Open makes question the active one and opens answering
func (q *Quiz) Open(t *testing.T, questionID int64) {
	t.Helper()
	if err := q.Repo.SetActiveQuestion(context.Background(), q.GameID, questionID, models.DefaultTimeLimit, time.Now()); err != nil {
		t.Fatalf("SetActiveQuestion failed: %v", err)
	}
}
