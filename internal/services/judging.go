package services

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
	"github.com/abrezinsky/quizroom/internal/scoring"
)

// JudgingRepository is the storage used by judging
type JudgingRepository interface {
	repository.QuestionRepository
	repository.ParticipantRepository
	repository.AnswerRepository
}

// maxGradeAttempts bounds how often a changing answer is re-read while grading
const maxGradeAttempts = 3

// JudgingService applies verdicts to answers and keeps participant totals
// equal to the sum of their awarded points
type JudgingService struct {
	roomPublisher
	repo JudgingRepository
}

// NewJudgingService creates a new JudgingService
func NewJudgingService(log logger.Logger, repo JudgingRepository) *JudgingService {
	return &JudgingService{
		roomPublisher: roomPublisher{log: log},
		repo:          repo,
	}
}

// Judge records a moderator verdict for an answer of the given game, then
// re-aggregates the submitter's total and publishes the score board. It fails
// with ErrAnswerChanged when the answer is resubmitted or judged elsewhere
// while the verdict is being written.
func (s *JudgingService) Judge(ctx context.Context, gameID, answerID int64, correct bool) (*models.Answer, error) {
	answer, err := s.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, notFound(err, ErrAnswerNotFound)
	}
	q, err := s.repo.GetQuestion(ctx, answer.QuestionID)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	if q.GameID != gameID {
		return nil, ErrInvalidReference
	}

	if err := s.judge(ctx, q, answer, correct); err != nil {
		if stderrors.Is(err, repository.ErrStaleAnswer) {
			return nil, ErrAnswerChanged
		}
		return nil, notFound(err, ErrAnswerNotFound)
	}
	if _, err := s.RecomputeTotal(ctx, gameID, answer.UserID); err != nil {
		return nil, err
	}
	if err := s.PublishRatings(ctx, gameID); err != nil {
		return nil, err
	}

	s.log.Info("Answer judged", "game_id", gameID, "answer_id", answerID, "correct", correct, "points", *answer.PointsAwarded)
	return answer, nil
}

// judge scores answer and stores the verdict against that exact version of
// the row, updating answer in place
func (s *JudgingService) judge(ctx context.Context, q *models.Question, answer *models.Answer, correct bool) error {
	points := scoring.Score(q.Points, q.BetMultiplier, correct, scoring.BetValue(answer.BetUsed))
	if err := s.repo.SetVerdict(ctx, answer, correct, points); err != nil {
		return err
	}
	answer.IsCorrect = &correct
	answer.PointsAwarded = &points
	return nil
}

// grade judges a pending answer against the question's key. When the row
// changes under it the current version is re-read and graded instead, up to
// maxGradeAttempts times. It reports whether a verdict was written; answers
// that were judged or deleted in the meantime are skipped.
func (s *JudgingService) grade(ctx context.Context, q *models.Question, answer *models.Answer) (bool, error) {
	for attempt := 1; ; attempt++ {
		if !answer.Pending() {
			return false, nil
		}
		err := s.judge(ctx, q, answer, scoring.MatchesChoice(answer.Text, *q.CorrectAnswer))
		switch {
		case err == nil:
			return true, nil
		case stderrors.Is(err, repository.ErrNotFound):
			return false, nil
		case !stderrors.Is(err, repository.ErrStaleAnswer):
			return false, err
		case attempt == maxGradeAttempts:
			s.log.Warn("Answer kept changing, left pending", "question_id", q.ID, "answer_id", answer.ID)
			return false, nil
		}

		answer, err = s.repo.GetAnswer(ctx, answer.ID)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
	}
}

// GradePending auto-judges every pending answer of a CHOICE question against
// its answer key. Answers already judged are left alone. Returns the number
// of answers graded.
func (s *JudgingService) GradePending(ctx context.Context, questionID int64) (int, error) {
	q, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return 0, notFound(err, ErrQuestionNotFound)
	}
	if !q.HasAnswerKey() {
		return 0, nil
	}

	pending, err := s.repo.ListPendingAnswers(ctx, questionID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	graded := 0
	var users []string
	seen := make(map[string]bool)
	for i := range pending {
		a := &pending[i]
		ok, err := s.grade(ctx, q, a)
		if err != nil {
			return 0, err
		}
		if ok {
			graded++
		}
		if !seen[a.UserID] {
			seen[a.UserID] = true
			users = append(users, a.UserID)
		}
	}

	for _, userID := range users {
		if _, err := s.RecomputeTotal(ctx, q.GameID, userID); err != nil {
			return 0, err
		}
	}
	if err := s.PublishRatings(ctx, q.GameID); err != nil {
		return 0, err
	}

	s.log.Info("Pending answers graded", "game_id", q.GameID, "question_id", questionID, "count", graded)
	return graded, nil
}

// AutoJudge grades a single freshly submitted answer when its question has an
// answer key. It reports whether a verdict was recorded.
func (s *JudgingService) AutoJudge(ctx context.Context, q *models.Question, answerID int64) (bool, error) {
	if !q.HasAnswerKey() {
		return false, nil
	}
	answer, err := s.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return false, notFound(err, ErrAnswerNotFound)
	}
	judged, err := s.grade(ctx, q, answer)
	if err != nil || !judged {
		return false, err
	}
	if _, err := s.RecomputeTotal(ctx, q.GameID, answer.UserID); err != nil {
		return false, err
	}
	if err := s.PublishRatings(ctx, q.GameID); err != nil {
		return false, err
	}
	return true, nil
}

// RecomputeTotal sets a participant's total score to the sum of their
// awarded points in the game. Anonymous and unregistered submitters have no
// total and yield 0.
func (s *JudgingService) RecomputeTotal(ctx context.Context, gameID int64, userID string) (int, error) {
	if userID == models.AnonymousUser {
		return 0, nil
	}
	p, err := s.repo.GetParticipantBySession(ctx, gameID, userID)
	if err == repository.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	total, err := s.repo.SumAwardedPoints(ctx, gameID, userID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SetParticipantScore(ctx, p.ID, total); err != nil {
		return 0, err
	}
	s.log.Debug("Participant total recomputed", "game_id", gameID, "participant_id", p.ID, "total", total)
	return total, nil
}

// Ratings returns the score board of a game, highest score first
func (s *JudgingService) Ratings(ctx context.Context, gameID int64) ([]models.Rating, error) {
	return ratings(ctx, s.repo, gameID)
}

// PublishRatings announces the current score board to the game room
func (s *JudgingService) PublishRatings(ctx context.Context, gameID int64) error {
	board, err := s.Ratings(ctx, gameID)
	if err != nil {
		return err
	}
	s.publish(ctx, gameID, models.UpdateRating{Ratings: board})
	return nil
}

func ratings(ctx context.Context, repo repository.ParticipantRepository, gameID int64) ([]models.Rating, error) {
	participants, err := repo.ListParticipants(ctx, gameID)
	if err != nil {
		return nil, err
	}
	board := make([]models.Rating, 0, len(participants))
	for i := range participants {
		p := &participants[i]
		board = append(board, models.Rating{
			ParticipantID: p.ID,
			Name:          p.DisplayName(),
			Score:         p.TotalScore,
		})
	}
	return board, nil
}
