package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/abrezinsky/quizroom/internal/broadcast"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/testutil"
)

// env wires every service over one seeded quiz and records room events
type env struct {
	quiz         *testutil.Quiz
	bus          *broadcast.MemoryBus
	sub          *broadcast.Subscription
	judging      *services.JudgingService
	answers      *services.AnswerService
	games        *services.GameService
	participants *services.ParticipantService
	settings     *services.SettingsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	quiz := testutil.NewQuiz(t)
	return newEnvWithRepo(t, quiz, quiz.Repo)
}

func newEnvWithRepo(t *testing.T, quiz *testutil.Quiz, repo repository.FullRepository) *env {
	t.Helper()
	log := logger.New()

	e := &env{quiz: quiz, bus: broadcast.NewMemoryBus(log, 0)}
	t.Cleanup(func() { e.bus.Close() })
	e.sub = e.bus.Subscribe(quiz.GameID)

	e.settings = services.NewSettingsService(log, repo)
	e.judging = services.NewJudgingService(log, repo)
	e.judging.SetPublisher(e.bus)
	e.answers = services.NewAnswerService(log, repo, e.judging)
	e.games = services.NewGameService(log, repo, e.judging)
	e.games.SetPublisher(e.bus)
	e.participants = services.NewParticipantService(log, repo, e.settings)
	return e
}

// nextEvent returns the next event published to the quiz room
func (e *env) nextEvent(t *testing.T) models.Event {
	t.Helper()
	select {
	case ev := <-e.sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event to be published")
		return nil
	}
}

// drain discards every event published so far
func (e *env) drain() {
	for {
		select {
		case <-e.sub.C:
		default:
			return
		}
	}
}

// expectNoEvent fails when an event is waiting in the room
func (e *env) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.sub.C:
		t.Fatalf("expected no event, got %s", ev.EventType())
	default:
	}
}

// submit sends an answer as a participant (nil for anonymous)
func (e *env) submit(t *testing.T, p *models.Participant, questionID int64, text string, bet any) *services.Receipt {
	t.Helper()
	sub := services.Submission{GameID: e.quiz.GameID, QuestionID: questionID, Answer: text}
	if p != nil {
		sub.ParticipantID = &p.ID
	}
	if bet != nil {
		raw, err := json.Marshal(bet)
		if err != nil {
			t.Fatalf("marshal bet: %v", err)
		}
		sub.Bet = raw
	}
	receipt, err := e.answers.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if receipt.AnswerID == nil {
		t.Fatal("expected an answer id")
	}
	return receipt
}

func (e *env) totalScore(t *testing.T, participantID int64) int {
	t.Helper()
	p, err := e.quiz.Repo.GetParticipant(context.Background(), participantID)
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	return p.TotalScore
}

func ptr[T any](v T) *T {
	return &v
}
