package services

import (
	"context"

	"github.com/abrezinsky/quizroom/internal/models"
)

// GameServicer defines the interface for quiz content and live game state
type GameServicer interface {
	ListGames(ctx context.Context) ([]models.Game, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	CreateGame(ctx context.Context, game Game) (int64, error)
	UpdateGame(ctx context.Context, id int64, game Game) error
	DeleteGame(ctx context.Context, id int64) error
	ActivateGame(ctx context.Context, id int64) error
	DuplicateGame(ctx context.Context, id int64) (int64, error)
	LatestActiveGame(ctx context.Context) (*models.Game, error)

	ListRounds(ctx context.Context, gameID int64) ([]models.Round, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	CreateRound(ctx context.Context, gameID int64, round Round) (int64, error)
	UpdateRound(ctx context.Context, id int64, round Round) error
	DeleteRound(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context, roundID int64) ([]models.Question, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, roundID int64, question Question) (int64, error)
	UpdateQuestion(ctx context.Context, id int64, question Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	SetCorrectAnswer(ctx context.Context, questionID int64, answer *string) (int, error)

	State(ctx context.Context, gameID int64) (*models.GameState, error)
	SetActiveQuestion(ctx context.Context, gameID, questionID int64, duration int) error
	SetActiveRound(ctx context.Context, gameID, roundID int64, duration int) error
	StopAccepting(ctx context.Context, gameID int64, questionID *int64) error
	CurrentQuestion(ctx context.Context, gameID int64) (*models.ShowQuestion, error)
	CurrentRound(ctx context.Context, gameID int64) (*models.ShowRound, error)
	SetPublisher(p Publisher)
}

// AnswerServicer defines the interface for the answer ledger
type AnswerServicer interface {
	ResolveIdentity(ctx context.Context, gameID int64, participantID *int64) (Identity, error)
	Submit(ctx context.Context, sub Submission) (*Receipt, error)
	SaveRound(ctx context.Context, gameID int64, participantID *int64, items []models.RoundAnswer) ([]int64, error)
	SavedAnswers(ctx context.Context, gameID, roundID int64, participantID *int64) (map[int64]models.SavedAnswer, error)
	Answer(ctx context.Context, id int64) (*models.Answer, error)
	ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error)
	PendingOpenAnswers(ctx context.Context, gameID int64) ([]models.Answer, error)
}

// JudgingServicer defines the interface for verdicts and score aggregation
type JudgingServicer interface {
	Judge(ctx context.Context, gameID, answerID int64, correct bool) (*models.Answer, error)
	GradePending(ctx context.Context, questionID int64) (int, error)
	AutoJudge(ctx context.Context, q *models.Question, answerID int64) (bool, error)
	RecomputeTotal(ctx context.Context, gameID int64, userID string) (int, error)
	Ratings(ctx context.Context, gameID int64) ([]models.Rating, error)
	PublishRatings(ctx context.Context, gameID int64) error
	SetPublisher(p Publisher)
}

// ParticipantServicer defines the interface for participant operations
type ParticipantServicer interface {
	Register(ctx context.Context, gameID int64, sessionKey string, reg Registration) (*models.Participant, error)
	Get(ctx context.Context, id int64) (*models.Participant, error)
	FindBySession(ctx context.Context, gameID int64, sessionKey string) (*models.Participant, error)
	List(ctx context.Context, gameID int64) ([]models.Participant, error)
	Ratings(ctx context.Context, gameID int64) ([]models.Rating, error)
	RegistrationURL(ctx context.Context, gameID int64) (string, error)
	RegistrationQR(ctx context.Context, gameID int64) ([]byte, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	EnsureBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]any, error)
	UpdateSettings(ctx context.Context, settings Settings) error
}

// Ensure concrete types implement interfaces
var (
	_ GameServicer        = (*GameService)(nil)
	_ AnswerServicer      = (*AnswerService)(nil)
	_ JudgingServicer     = (*JudgingService)(nil)
	_ ParticipantServicer = (*ParticipantService)(nil)
	_ SettingsServicer    = (*SettingsService)(nil)
)
