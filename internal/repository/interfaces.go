package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/quizroom/internal/models"
)

// GameRepository defines game and live game state operations
type GameRepository interface {
	CreateGame(ctx context.Context, title, description string, mode models.GameMode) (int64, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	ListGames(ctx context.Context) ([]models.Game, error)
	UpdateGame(ctx context.Context, id int64, title, description string, mode models.GameMode) error
	DeleteGame(ctx context.Context, id int64) error
	ActivateGame(ctx context.Context, id int64) error
	LatestActiveGame(ctx context.Context) (*models.Game, error)
	DuplicateGame(ctx context.Context, id int64, title string) (int64, error)

	GetGameState(ctx context.Context, gameID int64) (*models.GameState, error)
	SetActiveQuestion(ctx context.Context, gameID, questionID int64, timeLimit int, startedAt time.Time) error
	SetActiveRound(ctx context.Context, gameID, roundID int64, timeLimit int, startedAt time.Time) error
	StopAccepting(ctx context.Context, gameID int64, questionID *int64) error
}

// RoundRepository defines round data operations
type RoundRepository interface {
	CreateRound(ctx context.Context, gameID int64, title, description string, order int) (int64, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	ListRounds(ctx context.Context, gameID int64) ([]models.Round, error)
	UpdateRound(ctx context.Context, id int64, title, description string, order int) error
	DeleteRound(ctx context.Context, id int64) error
}

// QuestionRepository defines question data operations
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *models.Question) (int64, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListQuestions(ctx context.Context, roundID int64) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) error
	SetCorrectAnswer(ctx context.Context, questionID int64, answer *string) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// ParticipantRepository defines participant data operations
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, p *models.Participant) (int64, error)
	GetParticipant(ctx context.Context, id int64) (*models.Participant, error)
	GetParticipantBySession(ctx context.Context, gameID int64, sessionKey string) (*models.Participant, error)
	ListParticipants(ctx context.Context, gameID int64) ([]models.Participant, error)
	SetParticipantScore(ctx context.Context, id int64, score int) error
}

// AnswerRepository defines answer ledger operations
type AnswerRepository interface {
	UpsertAnswer(ctx context.Context, questionID int64, userID, teamName, text string, bet *int) (int64, error)
	GetAnswer(ctx context.Context, id int64) (*models.Answer, error)
	ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error)
	ListPendingAnswers(ctx context.Context, questionID int64) ([]models.Answer, error)
	SetVerdict(ctx context.Context, snapshot *models.Answer, correct bool, points int) error
	SumAwardedPoints(ctx context.Context, gameID int64, userID string) (int, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	GameRepository
	RoundRepository
	QuestionRepository
	ParticipantRepository
	AnswerRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
