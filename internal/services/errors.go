package services

import (
	stderrors "errors"

	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/repository"
)

// Service errors
var (
	ErrGameNotFound        = errors.NotFound("game not found")
	ErrRoundNotFound       = errors.NotFound("round not found")
	ErrQuestionNotFound    = errors.NotFound("question not found")
	ErrParticipantNotFound = errors.NotFound("participant not found")
	ErrAnswerNotFound      = errors.NotFound("answer not found")
	ErrNoActiveGame        = errors.NotFound("no active game")

	ErrAnswersClosed    = errors.Conflict("game is not accepting answers")
	ErrAnswerChanged    = errors.Conflict("answer changed since it was read; reload and judge again")
	ErrInvalidReference = errors.Validation("reference does not belong to this game")

	ErrTitleRequired        = errors.Validation("title is required")
	ErrInvalidMode          = errors.Validation("mode must be team or individual")
	ErrQuestionTextRequired = errors.Validation("question text is required")
	ErrInvalidQuestionType  = errors.Validation("question type must be choice or open")
	ErrOptionsRequired      = errors.Validation("choice questions need at least one option")
	ErrOptionsNotAllowed    = errors.Validation("open questions take no options")
	ErrInvalidPoints        = errors.Validation("points must be a positive integer")
	ErrInvalidMultiplier    = errors.Validation("bet multiplier must be a positive integer")
	ErrInvalidTimeLimit     = errors.Validation("time limit must be a positive number of seconds")
	ErrInvalidDuration      = errors.Validation("duration must not be negative")
	ErrTeamNameRequired     = errors.Validation("team name is required for team games")
	ErrFullNameRequired     = errors.Validation("last, first and middle name are required for individual games")
	ErrSessionRequired      = errors.Validation("session key is required")
)

// notFound converts a repository miss into the given service error.
// Any other error is returned unchanged so storage failures propagate.
func notFound(err, sentinel error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}
