package websocket

import (
	"context"
	"sync"

	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/services"
)

// State is the stage of a connection's session
type State int

const (
	// StateJoining is a fresh connection that has not sent join_game
	StateJoining State = iota
	// StateJoined is a connection that announced itself with join_game
	StateJoined
)

func (s State) String() string {
	if s == StateJoined {
		return "joined"
	}
	return "joining"
}

// Session routes the messages of one connection. Submissions are accepted
// in both states; without a bound participant they are stored anonymously.
type Session struct {
	log       logger.Logger
	gameID    int64
	games     services.GameServicer
	answers   services.AnswerServicer
	publisher services.Publisher

	mu            sync.Mutex
	state         State
	participantID *int64
}

// NewSession creates a session for a connection to gameID. participantID is
// the identity resolved from the connection itself, if any.
func NewSession(log logger.Logger, gameID int64, participantID *int64, games services.GameServicer, answers services.AnswerServicer, publisher services.Publisher) *Session {
	return &Session{
		log:           log.With("game_id", gameID),
		gameID:        gameID,
		games:         games,
		answers:       answers,
		publisher:     publisher,
		participantID: participantID,
	}
}

// State returns the session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ParticipantID returns the participant bound to the connection, if any
func (s *Session) ParticipantID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participantID
}

// identity picks the submitter of a message: the bound participant first,
// then the id carried by the message
func (s *Session) identity(fromMessage *int64) *int64 {
	if bound := s.ParticipantID(); bound != nil {
		return bound
	}
	return fromMessage
}

// Replay rebuilds the events a connecting client needs to catch up with the
// live game: the open question, or the open round with the participant's
// saved answers
func (s *Session) Replay(ctx context.Context) ([]models.Event, error) {
	var events []models.Event

	question, err := s.games.CurrentQuestion(ctx, s.gameID)
	if err != nil {
		return nil, err
	}
	if question != nil {
		events = append(events, *question)
	}

	round, err := s.games.CurrentRound(ctx, s.gameID)
	if err != nil {
		return nil, err
	}
	if round != nil {
		saved, err := s.answers.SavedAnswers(ctx, s.gameID, round.Round.ID, s.ParticipantID())
		if err != nil {
			return nil, err
		}
		round.SavedAnswers = saved
		events = append(events, *round)
	}
	return events, nil
}

// HandleMessage parses and routes one client frame. Frames that cannot be
// parsed are dropped without a reply.
func (s *Session) HandleMessage(ctx context.Context, data []byte) {
	msg, err := models.ParseInbound(data)
	if err != nil {
		s.log.Debug("Dropping client message", "error", err)
		return
	}

	switch m := msg.(type) {
	case models.JoinGame:
		s.join(ctx, m)
	case models.SubmitAnswer:
		s.submit(ctx, m)
	case models.SaveRoundAnswers:
		s.saveRound(ctx, m)
	}
}

func (s *Session) join(ctx context.Context, m models.JoinGame) {
	identity, err := s.answers.ResolveIdentity(ctx, s.gameID, m.ParticipantID)
	if err != nil {
		s.log.Error("Failed to resolve participant", "participant_id", m.ParticipantID, "error", err)
		return
	}

	s.mu.Lock()
	if !identity.Anonymous() {
		id := identity.Participant.ID
		s.participantID = &id
	}
	s.state = StateJoined
	bound := s.participantID
	s.mu.Unlock()

	s.log.Debug("Participant joined", "participant_id", bound)
	s.publish(ctx, models.PlayerJoined{ParticipantID: bound})
}

func (s *Session) submit(ctx context.Context, m models.SubmitAnswer) {
	participantID := s.identity(m.ParticipantID)
	receipt, err := s.answers.Submit(ctx, services.Submission{
		GameID:        s.gameID,
		ParticipantID: participantID,
		QuestionID:    m.QuestionID,
		Answer:        m.Answer,
		Bet:           m.Bet,
	})
	s.logRejection(err, "question_id", m.QuestionID)

	questionID := m.QuestionID
	s.publish(ctx, models.PlayerSubmit{
		ParticipantID: participantID,
		QuestionID:    &questionID,
		Answer:        m.Answer,
		Bet:           receipt.Bet,
		AnswerID:      receipt.AnswerID,
	})
}

func (s *Session) saveRound(ctx context.Context, m models.SaveRoundAnswers) {
	participantID := s.identity(m.ParticipantID)
	ids, err := s.answers.SaveRound(ctx, s.gameID, participantID, m.Answers)
	s.logRejection(err, "answers", len(m.Answers))

	s.publish(ctx, models.PlayerSubmit{
		ParticipantID: participantID,
		AnswerIDs:     ids,
	})
}

// logRejection logs storage failures as errors and expected rejections
// (closed window, unknown question) at debug level
func (s *Session) logRejection(err error, args ...any) {
	if err == nil {
		return
	}
	args = append(args, "error", err)
	if errors.KindOf(err) == errors.ErrInternal {
		s.log.Error("Failed to save answer", args...)
		return
	}
	s.log.Debug("Answer rejected", args...)
}

func (s *Session) publish(ctx context.Context, event models.Event) {
	if err := s.publisher.Publish(ctx, s.gameID, event); err != nil {
		s.log.Error("Failed to publish room event", "type", event.EventType(), "error", err)
	}
}
