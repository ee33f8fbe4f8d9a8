package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.UpsertAnswerError = errors.New("database error")
//	svc := services.NewAnswerService(log, mockRepo, judging)
//	_, err := svc.Submit(ctx, submission)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Game Errors =====
	GetGameError           error
	ActivateGameError      error
	DuplicateGameError     error
	GetGameStateError      error
	SetActiveQuestionError error
	SetActiveRoundError    error
	StopAcceptingError     error

	// ===== Round / Question Errors =====
	GetRoundError         error
	ListRoundsError       error
	GetQuestionError      error
	ListQuestionsError    error
	SetCorrectAnswerError error

	// ===== Participant Errors =====
	CreateParticipantError       error
	GetParticipantError          error
	GetParticipantBySessionError error
	ListParticipantsError        error
	SetParticipantScoreError     error

	// ===== Answer Errors =====
	UpsertAnswerError       error
	GetAnswerError          error
	ListAnswersError        error
	ListPendingAnswersError error
	SetVerdictError         error
	SumAwardedPointsError   error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Game Methods =====

func (m *Repository) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	if m.GetGameError != nil {
		return nil, m.GetGameError
	}
	return m.FullRepository.GetGame(ctx, id)
}

func (m *Repository) ActivateGame(ctx context.Context, id int64) error {
	if m.ActivateGameError != nil {
		return m.ActivateGameError
	}
	return m.FullRepository.ActivateGame(ctx, id)
}

func (m *Repository) DuplicateGame(ctx context.Context, id int64, title string) (int64, error) {
	if m.DuplicateGameError != nil {
		return 0, m.DuplicateGameError
	}
	return m.FullRepository.DuplicateGame(ctx, id, title)
}

func (m *Repository) GetGameState(ctx context.Context, gameID int64) (*models.GameState, error) {
	if m.GetGameStateError != nil {
		return nil, m.GetGameStateError
	}
	return m.FullRepository.GetGameState(ctx, gameID)
}

func (m *Repository) SetActiveQuestion(ctx context.Context, gameID, questionID int64, timeLimit int, startedAt time.Time) error {
	if m.SetActiveQuestionError != nil {
		return m.SetActiveQuestionError
	}
	return m.FullRepository.SetActiveQuestion(ctx, gameID, questionID, timeLimit, startedAt)
}

func (m *Repository) SetActiveRound(ctx context.Context, gameID, roundID int64, timeLimit int, startedAt time.Time) error {
	if m.SetActiveRoundError != nil {
		return m.SetActiveRoundError
	}
	return m.FullRepository.SetActiveRound(ctx, gameID, roundID, timeLimit, startedAt)
}

func (m *Repository) StopAccepting(ctx context.Context, gameID int64, questionID *int64) error {
	if m.StopAcceptingError != nil {
		return m.StopAcceptingError
	}
	return m.FullRepository.StopAccepting(ctx, gameID, questionID)
}

// ===== Round / Question Methods =====

func (m *Repository) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	if m.GetRoundError != nil {
		return nil, m.GetRoundError
	}
	return m.FullRepository.GetRound(ctx, id)
}

func (m *Repository) ListRounds(ctx context.Context, gameID int64) ([]models.Round, error) {
	if m.ListRoundsError != nil {
		return nil, m.ListRoundsError
	}
	return m.FullRepository.ListRounds(ctx, gameID)
}

func (m *Repository) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	if m.GetQuestionError != nil {
		return nil, m.GetQuestionError
	}
	return m.FullRepository.GetQuestion(ctx, id)
}

func (m *Repository) ListQuestions(ctx context.Context, roundID int64) ([]models.Question, error) {
	if m.ListQuestionsError != nil {
		return nil, m.ListQuestionsError
	}
	return m.FullRepository.ListQuestions(ctx, roundID)
}

func (m *Repository) SetCorrectAnswer(ctx context.Context, questionID int64, answer *string) error {
	if m.SetCorrectAnswerError != nil {
		return m.SetCorrectAnswerError
	}
	return m.FullRepository.SetCorrectAnswer(ctx, questionID, answer)
}

// ===== Participant Methods =====

func (m *Repository) CreateParticipant(ctx context.Context, p *models.Participant) (int64, error) {
	if m.CreateParticipantError != nil {
		return 0, m.CreateParticipantError
	}
	return m.FullRepository.CreateParticipant(ctx, p)
}

func (m *Repository) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	if m.GetParticipantError != nil {
		return nil, m.GetParticipantError
	}
	return m.FullRepository.GetParticipant(ctx, id)
}

func (m *Repository) GetParticipantBySession(ctx context.Context, gameID int64, sessionKey string) (*models.Participant, error) {
	if m.GetParticipantBySessionError != nil {
		return nil, m.GetParticipantBySessionError
	}
	return m.FullRepository.GetParticipantBySession(ctx, gameID, sessionKey)
}

func (m *Repository) ListParticipants(ctx context.Context, gameID int64) ([]models.Participant, error) {
	if m.ListParticipantsError != nil {
		return nil, m.ListParticipantsError
	}
	return m.FullRepository.ListParticipants(ctx, gameID)
}

func (m *Repository) SetParticipantScore(ctx context.Context, id int64, score int) error {
	if m.SetParticipantScoreError != nil {
		return m.SetParticipantScoreError
	}
	return m.FullRepository.SetParticipantScore(ctx, id, score)
}

// ===== Answer Methods =====

func (m *Repository) UpsertAnswer(ctx context.Context, questionID int64, userID, teamName, text string, bet *int) (int64, error) {
	if m.UpsertAnswerError != nil {
		return 0, m.UpsertAnswerError
	}
	return m.FullRepository.UpsertAnswer(ctx, questionID, userID, teamName, text, bet)
}

func (m *Repository) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	if m.GetAnswerError != nil {
		return nil, m.GetAnswerError
	}
	return m.FullRepository.GetAnswer(ctx, id)
}

func (m *Repository) ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error) {
	if m.ListAnswersError != nil {
		return nil, m.ListAnswersError
	}
	return m.FullRepository.ListAnswers(ctx, filter)
}

func (m *Repository) ListPendingAnswers(ctx context.Context, questionID int64) ([]models.Answer, error) {
	if m.ListPendingAnswersError != nil {
		return nil, m.ListPendingAnswersError
	}
	return m.FullRepository.ListPendingAnswers(ctx, questionID)
}

func (m *Repository) SetVerdict(ctx context.Context, snapshot *models.Answer, correct bool, points int) error {
	if m.SetVerdictError != nil {
		return m.SetVerdictError
	}
	return m.FullRepository.SetVerdict(ctx, snapshot, correct, points)
}

func (m *Repository) SumAwardedPoints(ctx context.Context, gameID int64, userID string) (int, error) {
	if m.SumAwardedPointsError != nil {
		return 0, m.SumAwardedPointsError
	}
	return m.FullRepository.SumAwardedPoints(ctx, gameID, userID)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
