package services

import (
	"context"
	"strings"
	"time"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
)

// GameRepository is the storage used by GameService
type GameRepository interface {
	repository.GameRepository
	repository.RoundRepository
	repository.QuestionRepository
}

// GameService manages quiz content and the live state of each game
type GameService struct {
	roomPublisher
	repo    GameRepository
	judging *JudgingService
	now     func() time.Time
}

// NewGameService creates a new GameService
func NewGameService(log logger.Logger, repo GameRepository, judging *JudgingService) *GameService {
	return &GameService{
		roomPublisher: roomPublisher{log: log},
		repo:          repo,
		judging:       judging,
		now:           time.Now,
	}
}

// SetClock sets the time source used to stamp answer windows (for testing)
func (s *GameService) SetClock(now func() time.Time) {
	s.now = now
}

// Game is the editable part of a game
type Game struct {
	Title       string
	Description string
	Mode        models.GameMode
}

func (g *Game) normalize() error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return ErrTitleRequired
	}
	if g.Mode == "" {
		g.Mode = models.ModeTeam
	}
	if !g.Mode.Valid() {
		return ErrInvalidMode
	}
	return nil
}

// Round is the editable part of a round
type Round struct {
	Title       string
	Description string
	Order       int
}

// Question is the editable part of a question
type Question struct {
	Text          string
	Type          models.QuestionType
	Options       []string
	CorrectAnswer *string
	Points        int
	AllowBet      bool
	BetMultiplier int
	TimeLimit     int
}

func (q *Question) normalize() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrQuestionTextRequired
	}
	if q.Type == "" {
		q.Type = models.QuestionOpen
	}
	if !q.Type.Valid() {
		return ErrInvalidQuestionType
	}

	var options []string
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	switch q.Type {
	case models.QuestionChoice:
		if len(options) == 0 {
			return ErrOptionsRequired
		}
	case models.QuestionOpen:
		if len(options) > 0 {
			return ErrOptionsNotAllowed
		}
	}
	q.Options = options

	if q.Points == 0 {
		q.Points = 1
	}
	if q.Points < 0 {
		return ErrInvalidPoints
	}
	if q.BetMultiplier == 0 {
		q.BetMultiplier = 1
	}
	if q.BetMultiplier < 0 {
		return ErrInvalidMultiplier
	}
	if q.TimeLimit == 0 {
		q.TimeLimit = models.DefaultTimeLimit
	}
	if q.TimeLimit < 0 {
		return ErrInvalidTimeLimit
	}
	q.CorrectAnswer = normalizeKey(q.CorrectAnswer)
	return nil
}

func normalizeKey(answer *string) *string {
	if answer == nil {
		return nil
	}
	key := strings.TrimSpace(*answer)
	if key == "" {
		return nil
	}
	return &key
}

// ==================== Games ====================

// ListGames returns all games, newest first
func (s *GameService) ListGames(ctx context.Context) ([]models.Game, error) {
	return s.repo.ListGames(ctx)
}

// GetGame returns a game with its live state
func (s *GameService) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return g, nil
}

// CreateGame creates a new inactive game
func (s *GameService) CreateGame(ctx context.Context, game Game) (int64, error) {
	if err := game.normalize(); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateGame(ctx, game.Title, game.Description, game.Mode)
	if err != nil {
		return 0, err
	}
	s.log.Info("Game created", "game_id", id, "title", game.Title, "mode", game.Mode)
	return id, nil
}

// UpdateGame updates a game's title, description and mode
func (s *GameService) UpdateGame(ctx context.Context, id int64, game Game) error {
	if err := game.normalize(); err != nil {
		return err
	}
	if err := s.repo.UpdateGame(ctx, id, game.Title, game.Description, game.Mode); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	return nil
}

// DeleteGame deletes a game with all its content, participants and answers
func (s *GameService) DeleteGame(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGame(ctx, id); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	s.log.Info("Game deleted", "game_id", id)
	return nil
}

// ActivateGame makes a game the only active one
func (s *GameService) ActivateGame(ctx context.Context, id int64) error {
	if err := s.repo.ActivateGame(ctx, id); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	s.log.Info("Game activated", "game_id", id)
	return nil
}

// DuplicateGame copies a game's rounds and questions into a new inactive game
func (s *GameService) DuplicateGame(ctx context.Context, id int64) (int64, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return 0, err
	}
	newID, err := s.repo.DuplicateGame(ctx, id, g.Title+" (copy)")
	if err != nil {
		return 0, notFound(err, ErrGameNotFound)
	}
	s.log.Info("Game duplicated", "game_id", id, "copy_id", newID)
	return newID, nil
}

// LatestActiveGame returns the most recently created active game
func (s *GameService) LatestActiveGame(ctx context.Context) (*models.Game, error) {
	g, err := s.repo.LatestActiveGame(ctx)
	if err != nil {
		return nil, notFound(err, ErrNoActiveGame)
	}
	return g, nil
}

// ==================== Rounds ====================

// ListRounds returns a game's rounds in display order
func (s *GameService) ListRounds(ctx context.Context, gameID int64) ([]models.Round, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.repo.ListRounds(ctx, gameID)
}

// GetRound returns a round
func (s *GameService) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	r, err := s.repo.GetRound(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrRoundNotFound)
	}
	return r, nil
}

// CreateRound adds a round to a game. A zero order places it after the
// existing rounds.
func (s *GameService) CreateRound(ctx context.Context, gameID int64, round Round) (int64, error) {
	round.Title = strings.TrimSpace(round.Title)
	if round.Title == "" {
		return 0, ErrTitleRequired
	}
	rounds, err := s.ListRounds(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if round.Order == 0 {
		for _, r := range rounds {
			if r.Order >= round.Order {
				round.Order = r.Order + 1
			}
		}
		if round.Order == 0 {
			round.Order = 1
		}
	}
	return s.repo.CreateRound(ctx, gameID, round.Title, round.Description, round.Order)
}

// UpdateRound updates a round's title, description and order
func (s *GameService) UpdateRound(ctx context.Context, id int64, round Round) error {
	round.Title = strings.TrimSpace(round.Title)
	if round.Title == "" {
		return ErrTitleRequired
	}
	if err := s.repo.UpdateRound(ctx, id, round.Title, round.Description, round.Order); err != nil {
		return notFound(err, ErrRoundNotFound)
	}
	return nil
}

// DeleteRound deletes a round and its questions
func (s *GameService) DeleteRound(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRound(ctx, id); err != nil {
		return notFound(err, ErrRoundNotFound)
	}
	return nil
}

// ==================== Questions ====================

// ListQuestions returns the questions of a round
func (s *GameService) ListQuestions(ctx context.Context, roundID int64) ([]models.Question, error) {
	if _, err := s.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	return s.repo.ListQuestions(ctx, roundID)
}

// GetQuestion returns a question including its answer key
func (s *GameService) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	return q, nil
}

// CreateQuestion adds a question to a round
func (s *GameService) CreateQuestion(ctx context.Context, roundID int64, question Question) (int64, error) {
	if err := question.normalize(); err != nil {
		return 0, err
	}
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return 0, err
	}
	q := question.model()
	q.RoundID = round.ID
	q.GameID = round.GameID
	return s.repo.CreateQuestion(ctx, q)
}

// UpdateQuestion updates a question. The answer key is changed only through
// SetCorrectAnswer so that grading stays an explicit step.
func (s *GameService) UpdateQuestion(ctx context.Context, id int64, question Question) error {
	if err := question.normalize(); err != nil {
		return err
	}
	existing, err := s.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	q := question.model()
	q.ID = existing.ID
	q.RoundID = existing.RoundID
	q.GameID = existing.GameID
	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return notFound(err, ErrQuestionNotFound)
	}
	return nil
}

// DeleteQuestion deletes a question and its answers. A game whose active
// question is deleted stops accepting answers.
func (s *GameService) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return notFound(err, ErrQuestionNotFound)
	}
	return nil
}

// SetCorrectAnswer stores a question's answer key and grades the answers
// still pending against it. Returns the number of answers graded.
func (s *GameService) SetCorrectAnswer(ctx context.Context, questionID int64, answer *string) (int, error) {
	key := normalizeKey(answer)
	if err := s.repo.SetCorrectAnswer(ctx, questionID, key); err != nil {
		return 0, notFound(err, ErrQuestionNotFound)
	}
	s.log.Info("Correct answer set", "question_id", questionID, "has_key", key != nil)

	if s.judging == nil {
		return 0, nil
	}
	return s.judging.GradePending(ctx, questionID)
}

func (q Question) model() *models.Question {
	return &models.Question{
		Text:          q.Text,
		Type:          q.Type,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Points:        q.Points,
		AllowBet:      q.AllowBet,
		BetMultiplier: q.BetMultiplier,
		TimeLimit:     q.TimeLimit,
	}
}

// ==================== Live state ====================

// State returns the live state of a game
func (s *GameService) State(ctx context.Context, gameID int64) (*models.GameState, error) {
	state, err := s.repo.GetGameState(ctx, gameID)
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return state, nil
}

// SetActiveQuestion makes a question live, opens answering and announces it
// to the room. A duration of 0 uses the question's own time limit.
func (s *GameService) SetActiveQuestion(ctx context.Context, gameID, questionID int64, duration int) error {
	if duration < 0 {
		return ErrInvalidDuration
	}
	q, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if q.GameID != gameID {
		return ErrInvalidReference
	}
	if duration == 0 {
		duration = q.TimeLimit
	}

	startedAt := s.now().UTC()
	if err := s.repo.SetActiveQuestion(ctx, gameID, q.ID, duration, startedAt); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	s.log.Info("Question sent", "game_id", gameID, "question_id", q.ID, "duration", duration)

	s.publish(ctx, gameID, showQuestion(q, duration, &startedAt))
	return nil
}

// SetActiveRound makes a whole round live, opens answering and announces it
// to the room. A duration of 0 uses the sum of the questions' time limits.
func (s *GameService) SetActiveRound(ctx context.Context, gameID, roundID int64, duration int) error {
	if duration < 0 {
		return ErrInvalidDuration
	}
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.GameID != gameID {
		return ErrInvalidReference
	}
	questions, err := s.repo.ListQuestions(ctx, round.ID)
	if err != nil {
		return err
	}
	if duration == 0 {
		duration = roundTimeLimit(questions)
	}

	startedAt := s.now().UTC()
	if err := s.repo.SetActiveRound(ctx, gameID, round.ID, duration, startedAt); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	s.log.Info("Round sent", "game_id", gameID, "round_id", round.ID, "questions", len(questions), "duration", duration)

	s.publish(ctx, gameID, showRound(round, questions, duration, &startedAt))
	return nil
}

// StopAccepting closes answering and announces it to the room. When
// questionID names the active question it is cleared as well.
func (s *GameService) StopAccepting(ctx context.Context, gameID int64, questionID *int64) error {
	if err := s.repo.StopAccepting(ctx, gameID, questionID); err != nil {
		return notFound(err, ErrGameNotFound)
	}
	if questionID != nil {
		s.log.Info("Answers stopped", "game_id", gameID, "question_id", *questionID)
	} else {
		s.log.Info("Answers stopped", "game_id", gameID)
	}

	s.publish(ctx, gameID, models.StopAnswers{QuestionID: questionID})
	return nil
}

// CurrentQuestion rebuilds the show_question event of the live question, or
// returns nil when no question is open
func (s *GameService) CurrentQuestion(ctx context.Context, gameID int64) (*models.ShowQuestion, error) {
	state, err := s.State(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !state.AcceptingAnswers || state.ActiveQuestionID == nil {
		return nil, nil
	}
	q, err := s.repo.GetQuestion(ctx, *state.ActiveQuestionID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev := showQuestion(q, state.ActiveTimeLimit, state.ActiveQuestionStartedAt)
	return &ev, nil
}

// CurrentRound rebuilds the show_round event of the live round, without saved
// answers, or returns nil when no round is open
func (s *GameService) CurrentRound(ctx context.Context, gameID int64) (*models.ShowRound, error) {
	state, err := s.State(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !state.AcceptingAnswers || state.ActiveRoundID == nil {
		return nil, nil
	}
	round, err := s.repo.GetRound(ctx, *state.ActiveRoundID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	limit := state.ActiveTimeLimit
	if limit <= 0 {
		limit = roundTimeLimit(questions)
	}
	ev := showRound(round, questions, limit, state.ActiveRoundStartedAt)
	return &ev, nil
}

func showQuestion(q *models.Question, timeLimit int, startedAt *time.Time) models.ShowQuestion {
	snapshot := models.NewQuestionSnapshot(q, timeLimit, startedAt)
	return models.ShowQuestion{Question: snapshot, Time: snapshot.Time}
}

func showRound(round *models.Round, questions []models.Question, timeLimit int, startedAt *time.Time) models.ShowRound {
	snapshots := make([]models.QuestionSnapshot, 0, len(questions))
	for i := range questions {
		snapshots = append(snapshots, models.NewQuestionSnapshot(&questions[i], 0, startedAt))
	}
	return models.ShowRound{
		Round: models.RoundSnapshot{
			ID:          round.ID,
			Title:       round.Title,
			Description: round.Description,
			Questions:   snapshots,
		},
		SavedAnswers: map[int64]models.SavedAnswer{},
		Time:         timeLimit,
		StartedAt:    startedAt,
	}
}

func roundTimeLimit(questions []models.Question) int {
	total := 0
	for _, q := range questions {
		if q.TimeLimit > 0 {
			total += q.TimeLimit
		} else {
			total += models.DefaultTimeLimit
		}
	}
	if total == 0 {
		return models.DefaultTimeLimit
	}
	return total
}
