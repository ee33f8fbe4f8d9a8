package services

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
	"github.com/abrezinsky/quizroom/internal/scoring"
)

// AnswerRepository is the storage used by the answer ledger
type AnswerRepository interface {
	repository.QuestionRepository
	repository.ParticipantRepository
	repository.AnswerRepository
}

// AnswerService is the answer ledger: one live answer per question and
// submitter identity, overwritten by resubmission
type AnswerService struct {
	log     logger.Logger
	repo    AnswerRepository
	judging *JudgingService
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(log logger.Logger, repo AnswerRepository, judging *JudgingService) *AnswerService {
	return &AnswerService{log: log, repo: repo, judging: judging}
}

// Submission is one answer sent from a game room connection
type Submission struct {
	GameID        int64
	ParticipantID *int64
	QuestionID    int64
	Answer        string
	Bet           json.RawMessage
}

// Receipt describes the outcome of a submission. AnswerID is nil when the
// submission was rejected.
type Receipt struct {
	AnswerID *int64
	UserID   string
	Bet      *int
	Judged   bool
}

// Identity is the resolved submitter of an answer
type Identity struct {
	Participant *models.Participant
	UserID      string
	TeamName    string
}

// Anonymous reports whether the identity falls into the shared anonymous slot
func (id Identity) Anonymous() bool {
	return id.Participant == nil
}

// ResolveIdentity maps a participant id to its session key when the
// participant is registered in the game. Unknown ids, ids of another game,
// and a nil id resolve to the shared anonymous identity.
func (s *AnswerService) ResolveIdentity(ctx context.Context, gameID int64, participantID *int64) (Identity, error) {
	anonymous := Identity{UserID: models.AnonymousUser}
	if participantID == nil {
		return anonymous, nil
	}
	p, err := s.repo.GetParticipant(ctx, *participantID)
	if err == repository.ErrNotFound {
		return anonymous, nil
	}
	if err != nil {
		return anonymous, err
	}
	if p.GameID != gameID {
		return anonymous, nil
	}
	return Identity{Participant: p, UserID: p.SessionKey, TeamName: p.DisplayName()}, nil
}

// Submit upserts one answer. The wager is clamped against the question's
// rules, and CHOICE questions with an answer key are judged on arrival.
// The receipt is always non-nil; its AnswerID is nil when the submission was
// rejected.
func (s *AnswerService) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	receipt := &Receipt{UserID: models.AnonymousUser}

	identity, err := s.ResolveIdentity(ctx, sub.GameID, sub.ParticipantID)
	if err != nil {
		return receipt, err
	}
	receipt.UserID = identity.UserID

	q, err := s.repo.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return receipt, notFound(err, ErrQuestionNotFound)
	}
	if q.GameID != sub.GameID {
		return receipt, ErrInvalidReference
	}

	bet := scoring.ClampBet(q.AllowBet, sub.Bet)
	receipt.Bet = bet

	id, err := s.repo.UpsertAnswer(ctx, q.ID, identity.UserID, identity.TeamName, sub.Answer, bet)
	if err != nil {
		if stderrors.Is(err, repository.ErrAnswersClosed) {
			return receipt, ErrAnswersClosed
		}
		return receipt, notFound(err, ErrQuestionNotFound)
	}
	receipt.AnswerID = &id

	s.log.Debug("Answer saved", "game_id", sub.GameID, "question_id", q.ID, "answer_id", id, "user_id", identity.UserID)

	if s.judging == nil {
		return receipt, nil
	}
	judged, err := s.judging.AutoJudge(ctx, q, id)
	if err != nil {
		return receipt, err
	}
	receipt.Judged = judged

	// Resubmission voids an earlier verdict, so the total may have shrunk
	if !judged && !identity.Anonymous() {
		total, err := s.judging.RecomputeTotal(ctx, sub.GameID, identity.UserID)
		if err != nil {
			return receipt, err
		}
		if total != identity.Participant.TotalScore {
			if err := s.judging.PublishRatings(ctx, sub.GameID); err != nil {
				return receipt, err
			}
		}
	}
	return receipt, nil
}

// SaveRound applies a batch of answers in order and returns the ids of those
// saved. Rejected items are skipped; a storage failure stops the batch and is
// returned together with the ids saved so far.
func (s *AnswerService) SaveRound(ctx context.Context, gameID int64, participantID *int64, items []models.RoundAnswer) ([]int64, error) {
	ids := []int64{}
	for _, item := range items {
		receipt, err := s.Submit(ctx, Submission{
			GameID:        gameID,
			ParticipantID: participantID,
			QuestionID:    item.QuestionID,
			Answer:        item.Answer,
			Bet:           item.Bet,
		})
		if receipt.AnswerID != nil {
			ids = append(ids, *receipt.AnswerID)
		}
		if err != nil {
			if errors.KindOf(err) == errors.ErrInternal {
				return ids, err
			}
			s.log.Debug("Round answer rejected", "game_id", gameID, "question_id", item.QuestionID, "error", err)
		}
	}
	return ids, nil
}

// SavedAnswers returns a participant's stored answers for a round keyed by
// question id. The anonymous identity has no saved answers.
func (s *AnswerService) SavedAnswers(ctx context.Context, gameID, roundID int64, participantID *int64) (map[int64]models.SavedAnswer, error) {
	saved := make(map[int64]models.SavedAnswer)

	identity, err := s.ResolveIdentity(ctx, gameID, participantID)
	if err != nil {
		return nil, err
	}
	if identity.Anonymous() {
		return saved, nil
	}

	answers, err := s.repo.ListAnswers(ctx, models.AnswerFilter{
		GameID:  gameID,
		RoundID: roundID,
		UserID:  identity.UserID,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		saved[a.QuestionID] = models.SavedAnswer{AnswerID: a.ID, Answer: a.Text, Bet: a.BetUsed}
	}
	return saved, nil
}

// Answer returns a single answer
func (s *AnswerService) Answer(ctx context.Context, id int64) (*models.Answer, error) {
	a, err := s.repo.GetAnswer(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAnswerNotFound)
	}
	return a, nil
}

// ListAnswers returns answers for moderation
func (s *AnswerService) ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error) {
	return s.repo.ListAnswers(ctx, filter)
}

// PendingOpenAnswers returns the OPEN answers of a game still waiting for a verdict
func (s *AnswerService) PendingOpenAnswers(ctx context.Context, gameID int64) ([]models.Answer, error) {
	return s.repo.ListAnswers(ctx, models.AnswerFilter{
		GameID:       gameID,
		QuestionType: models.QuestionOpen,
		PendingOnly:  true,
	})
}
