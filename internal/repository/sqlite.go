package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/mattn/go-sqlite3"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			mode TEXT NOT NULL DEFAULT 'team',
			is_active BOOLEAN NOT NULL DEFAULT 0,
			active_question_id INTEGER,
			active_round_id INTEGER,
			accepting_answers BOOLEAN NOT NULL DEFAULT 0,
			active_question_started_at DATETIME,
			active_round_started_at DATETIME,
			active_time_limit INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (active_question_id) REFERENCES questions(id) ON DELETE SET NULL,
			FOREIGN KEY (active_round_id) REFERENCES rounds(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			display_order INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			question_type TEXT NOT NULL,
			options TEXT,
			correct_answer TEXT,
			points INTEGER NOT NULL DEFAULT 1,
			allow_bet BOOLEAN NOT NULL DEFAULT 0,
			bet_multiplier INTEGER NOT NULL DEFAULT 1,
			time_limit INTEGER NOT NULL DEFAULT 30,
			FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL,
			session_key TEXT NOT NULL,
			team_name TEXT,
			last_name TEXT,
			first_name TEXT,
			middle_name TEXT,
			total_score INTEGER NOT NULL DEFAULT 0,
			registered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE,
			UNIQUE(game_id, session_key)
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			team_name TEXT,
			answer_text TEXT NOT NULL DEFAULT '',
			is_correct BOOLEAN,
			points_awarded INTEGER,
			bet_used INTEGER,
			submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE,
			UNIQUE(question_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_game ON rounds(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_round ON questions(round_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_game ON participants(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_user ON answers(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// ==================== Game Methods ====================

const gameColumns = `id, title, COALESCE(description, ''), mode, is_active,
	active_question_id, active_round_id, accepting_answers,
	active_question_started_at, active_round_started_at, active_time_limit, created_at`

func scanGame(s rowScanner) (*models.Game, error) {
	var g models.Game
	var mode string
	var activeQuestion, activeRound sql.NullInt64
	var questionStarted, roundStarted, createdAt sql.NullTime

	if err := s.Scan(&g.ID, &g.Title, &g.Description, &mode, &g.IsActive,
		&activeQuestion, &activeRound, &g.AcceptingAnswers,
		&questionStarted, &roundStarted, &g.ActiveTimeLimit, &createdAt); err != nil {
		return nil, err
	}

	g.Mode = models.GameMode(mode)
	g.ActiveQuestionID = nullInt64(activeQuestion)
	g.ActiveRoundID = nullInt64(activeRound)
	g.ActiveQuestionStartedAt = nullTime(questionStarted)
	g.ActiveRoundStartedAt = nullTime(roundStarted)
	if createdAt.Valid {
		g.CreatedAt = createdAt.Time
	}
	return &g, nil
}

// CreateGame inserts a new, inactive game
func (r *Repository) CreateGame(ctx context.Context, title, description string, mode models.GameMode) (int64, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO games (title, description, mode) VALUES (?, ?, ?)`,
		title, description, string(mode))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetGame retrieves a game with its live state
func (r *Repository) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return g, err
}

// ListGames returns all games, newest first
func (r *Repository) ListGames(ctx context.Context) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// UpdateGame changes a game's descriptive fields
func (r *Repository) UpdateGame(ctx context.Context, id int64, title, description string, mode models.GameMode) error {
	result, err := r.db.ExecContext(ctx, `UPDATE games SET title = ?, description = ?, mode = ? WHERE id = ?`,
		title, description, string(mode), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteGame removes a game with its rounds, questions, participants and answers
func (r *Repository) DeleteGame(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ActivateGame marks one game active and every other game inactive
func (r *Repository) ActivateGame(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE games SET is_active = (id = ?)`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestActiveGame returns the most recently created active game
func (r *Repository) LatestActiveGame(ctx context.Context) (*models.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return g, err
}

// DuplicateGame copies a game with its rounds and questions into a new
// inactive game. Participants, answers and live state are not copied.
func (r *Repository) DuplicateGame(ctx context.Context, id int64, title string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var description sql.NullString
	var mode string
	err = tx.QueryRowContext(ctx, `SELECT description, mode FROM games WHERE id = ?`, id).Scan(&description, &mode)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO games (title, description, mode) VALUES (?, ?, ?)`,
		title, description, mode)
	if err != nil {
		return 0, err
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	rounds, err := queryRounds(ctx, tx, id)
	if err != nil {
		return 0, err
	}

	for _, round := range rounds {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (game_id, title, description, display_order) VALUES (?, ?, ?, ?)`,
			newID, round.Title, round.Description, round.Order)
		if err != nil {
			return 0, err
		}
		newRoundID, err := result.LastInsertId()
		if err != nil {
			return 0, err
		}

		// Drain the question rows before inserting on the same connection
		questions, err := queryQuestions(ctx, tx, round.ID)
		if err != nil {
			return 0, err
		}
		for i := range questions {
			questions[i].RoundID = newRoundID
			if _, err := insertQuestion(ctx, tx, &questions[i]); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newID, nil
}

// ==================== Game State Methods ====================

// GetGameState reads the live state fields of a game
func (r *Repository) GetGameState(ctx context.Context, gameID int64) (*models.GameState, error) {
	g, err := r.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	state := g.GameState
	return &state, nil
}

// SetActiveQuestion makes a question live and opens answering.
// Any active round is cleared.
func (r *Repository) SetActiveQuestion(ctx context.Context, gameID, questionID int64, timeLimit int, startedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE games SET
			active_question_id = ?,
			active_question_started_at = ?,
			active_round_id = NULL,
			active_round_started_at = NULL,
			active_time_limit = ?,
			accepting_answers = 1
		WHERE id = ?`, questionID, startedAt, timeLimit, gameID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetActiveRound makes a whole round live and opens answering.
// Any active question is cleared.
func (r *Repository) SetActiveRound(ctx context.Context, gameID, roundID int64, timeLimit int, startedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE games SET
			active_round_id = ?,
			active_round_started_at = ?,
			active_question_id = NULL,
			active_question_started_at = NULL,
			active_time_limit = ?,
			accepting_answers = 1
		WHERE id = ?`, roundID, startedAt, timeLimit, gameID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// StopAccepting closes answering. When questionID names the active question
// it is cleared too; otherwise the active question stays set but closed.
func (r *Repository) StopAccepting(ctx context.Context, gameID int64, questionID *int64) error {
	var qid any
	if questionID != nil {
		qid = *questionID
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE games SET
			accepting_answers = 0,
			active_question_started_at = CASE WHEN active_question_id = ? THEN NULL ELSE active_question_started_at END,
			active_question_id = CASE WHEN active_question_id = ? THEN NULL ELSE active_question_id END
		WHERE id = ?`, qid, qid, gameID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// closeOrphanedGames closes answering on games whose active question and
// round were both cleared by a cascade
func closeOrphanedGames(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE games SET
			accepting_answers = 0,
			active_question_started_at = CASE WHEN active_question_id IS NULL THEN NULL ELSE active_question_started_at END,
			active_round_started_at = CASE WHEN active_round_id IS NULL THEN NULL ELSE active_round_started_at END
		WHERE accepting_answers = 1 AND active_question_id IS NULL AND active_round_id IS NULL`)
	return err
}

// ==================== Round Methods ====================

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryRounds(ctx context.Context, q queryer, gameID int64) ([]models.Round, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, game_id, title, COALESCE(description, ''), display_order
		FROM rounds WHERE game_id = ?
		ORDER BY display_order, id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		var round models.Round
		if err := rows.Scan(&round.ID, &round.GameID, &round.Title, &round.Description, &round.Order); err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

// CreateRound adds a round to a game
func (r *Repository) CreateRound(ctx context.Context, gameID int64, title, description string, order int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rounds (game_id, title, description, display_order) VALUES (?, ?, ?, ?)`,
		gameID, title, description, order)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRound retrieves a round
func (r *Repository) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	var round models.Round
	err := r.db.QueryRowContext(ctx, `
		SELECT id, game_id, title, COALESCE(description, ''), display_order
		FROM rounds WHERE id = ?`, id).
		Scan(&round.ID, &round.GameID, &round.Title, &round.Description, &round.Order)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// ListRounds returns a game's rounds ordered by display order, then id
func (r *Repository) ListRounds(ctx context.Context, gameID int64) ([]models.Round, error) {
	return queryRounds(ctx, r.db, gameID)
}

// UpdateRound changes a round's fields
func (r *Repository) UpdateRound(ctx context.Context, id int64, title, description string, order int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rounds SET title = ?, description = ?, display_order = ? WHERE id = ?`,
		title, description, order, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteRound removes a round and its questions
func (r *Repository) DeleteRound(ctx context.Context, id int64) error {
	return r.deleteAndCloseOrphans(ctx, `DELETE FROM rounds WHERE id = ?`, id)
}

// ==================== Question Methods ====================

const questionColumns = `q.id, q.round_id, r.game_id, q.text, q.question_type, q.options,
	q.correct_answer, q.points, q.allow_bet, q.bet_multiplier, q.time_limit`

func scanQuestion(s rowScanner) (*models.Question, error) {
	var q models.Question
	var qtype string
	var options, correct sql.NullString

	if err := s.Scan(&q.ID, &q.RoundID, &q.GameID, &q.Text, &qtype, &options,
		&correct, &q.Points, &q.AllowBet, &q.BetMultiplier, &q.TimeLimit); err != nil {
		return nil, err
	}

	q.Type = models.QuestionType(qtype)
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			return nil, err
		}
	}
	if correct.Valid {
		v := correct.String
		q.CorrectAnswer = &v
	}
	return &q, nil
}

func queryQuestions(ctx context.Context, qr queryer, roundID int64) ([]models.Question, error) {
	rows, err := qr.QueryContext(ctx, `SELECT `+questionColumns+`
		FROM questions q JOIN rounds r ON r.id = q.round_id
		WHERE q.round_id = ? ORDER BY q.id`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func encodeOptions(q *models.Question) (any, error) {
	if q.Type != models.QuestionChoice || q.Options == nil {
		return nil, nil
	}
	data, err := json.Marshal(q.Options)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func insertQuestion(ctx context.Context, ex execer, q *models.Question) (int64, error) {
	options, err := encodeOptions(q)
	if err != nil {
		return 0, err
	}
	result, err := ex.ExecContext(ctx, `
		INSERT INTO questions (round_id, text, question_type, options, correct_answer, points, allow_bet, bet_multiplier, time_limit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.RoundID, q.Text, string(q.Type), options, q.CorrectAnswer, q.Points, q.AllowBet, q.BetMultiplier, q.TimeLimit)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CreateQuestion adds a question to its round
func (r *Repository) CreateQuestion(ctx context.Context, q *models.Question) (int64, error) {
	return insertQuestion(ctx, r.db, q)
}

// GetQuestion retrieves a question together with its game id
func (r *Repository) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, `SELECT `+questionColumns+`
		FROM questions q JOIN rounds r ON r.id = q.round_id
		WHERE q.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return q, err
}

// ListQuestions returns a round's questions in creation order
func (r *Repository) ListQuestions(ctx context.Context, roundID int64) ([]models.Question, error) {
	return queryQuestions(ctx, r.db, roundID)
}

// UpdateQuestion rewrites a question's content. The answer key changes only
// through SetCorrectAnswer, except that an OPEN question never keeps one.
func (r *Repository) UpdateQuestion(ctx context.Context, q *models.Question) error {
	options, err := encodeOptions(q)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE questions SET text = ?, question_type = ?, options = ?, points = ?,
			allow_bet = ?, bet_multiplier = ?, time_limit = ?,
			correct_answer = CASE WHEN ? = ? THEN NULL ELSE correct_answer END
		WHERE id = ?`,
		q.Text, string(q.Type), options, q.Points, q.AllowBet, q.BetMultiplier, q.TimeLimit,
		string(q.Type), string(models.QuestionOpen), q.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetCorrectAnswer stores (or clears, with nil) a question's answer key
func (r *Repository) SetCorrectAnswer(ctx context.Context, questionID int64, answer *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE questions SET correct_answer = ? WHERE id = ?`, answer, questionID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteQuestion removes a question and its answers. A game that had it
// active is left with no active question.
func (r *Repository) DeleteQuestion(ctx context.Context, id int64) error {
	return r.deleteAndCloseOrphans(ctx, `DELETE FROM questions WHERE id = ?`, id)
}

func (r *Repository) deleteAndCloseOrphans(ctx context.Context, stmt string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, stmt, id)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	if err := closeOrphanedGames(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Participant Methods ====================

const participantColumns = `id, game_id, session_key, COALESCE(team_name, ''), COALESCE(last_name, ''),
	COALESCE(first_name, ''), COALESCE(middle_name, ''), total_score, registered_at`

func scanParticipant(s rowScanner) (*models.Participant, error) {
	var p models.Participant
	var registered sql.NullTime
	if err := s.Scan(&p.ID, &p.GameID, &p.SessionKey, &p.TeamName, &p.LastName,
		&p.FirstName, &p.MiddleName, &p.TotalScore, &registered); err != nil {
		return nil, err
	}
	if registered.Valid {
		p.RegisteredAt = registered.Time
	}
	return &p, nil
}

// CreateParticipant registers a participant in a game
func (r *Repository) CreateParticipant(ctx context.Context, p *models.Participant) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (game_id, session_key, team_name, last_name, first_name, middle_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.GameID, p.SessionKey, p.TeamName, p.LastName, p.FirstName, p.MiddleName)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetParticipant retrieves a participant
func (r *Repository) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// GetParticipantBySession finds the participant a browser session registered in a game
func (r *Repository) GetParticipantBySession(ctx context.Context, gameID int64, sessionKey string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE game_id = ? AND session_key = ?`, gameID, sessionKey))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// ListParticipants returns a game's participants, highest score first
func (r *Repository) ListParticipants(ctx context.Context, gameID int64) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+participantColumns+`
		FROM participants WHERE game_id = ?
		ORDER BY total_score DESC, id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// SetParticipantScore stores a recomputed total score
func (r *Repository) SetParticipantScore(ctx context.Context, id int64, score int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participants SET total_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ==================== Answer Methods ====================

const answerColumns = `a.id, a.question_id, a.user_id, COALESCE(a.team_name, ''), a.answer_text,
	a.is_correct, a.points_awarded, a.bet_used, a.submitted_at`

func scanAnswer(s rowScanner) (*models.Answer, error) {
	var a models.Answer
	var correct sql.NullBool
	var points, bet sql.NullInt64
	var submitted sql.NullTime

	if err := s.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.TeamName, &a.Text,
		&correct, &points, &bet, &submitted); err != nil {
		return nil, err
	}
	if correct.Valid {
		v := correct.Bool
		a.IsCorrect = &v
	}
	a.PointsAwarded = nullInt(points)
	a.BetUsed = nullInt(bet)
	if submitted.Valid {
		a.SubmittedAt = submitted.Time
	}
	return &a, nil
}

// UpsertAnswer stores the single live answer of userID to a question.
// A resubmission overwrites text and bet and voids any verdict; the first
// submission time is kept. Returns ErrAnswersClosed when the question's game
// is not accepting answers, and ErrNotFound for an unknown question.
func (r *Repository) UpsertAnswer(ctx context.Context, questionID int64, userID, teamName, text string, bet *int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var accepting bool
	err = tx.QueryRowContext(ctx, `
		SELECT g.accepting_answers
		FROM questions q
		JOIN rounds r ON r.id = q.round_id
		JOIN games g ON g.id = r.game_id
		WHERE q.id = ?`, questionID).Scan(&accepting)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if !accepting {
		return 0, ErrAnswersClosed
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO answers (question_id, user_id, team_name, answer_text, bet_used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(question_id, user_id) DO UPDATE SET
			team_name = excluded.team_name,
			answer_text = excluded.answer_text,
			bet_used = excluded.bet_used,
			is_correct = NULL,
			points_awarded = NULL
		RETURNING id`, questionID, userID, teamName, text, bet).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetAnswer retrieves an answer
func (r *Repository) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	a, err := scanAnswer(r.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers a WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// ListAnswers returns answers matching the filter, oldest submission first
func (r *Repository) ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error) {
	var where []string
	var args []any

	if filter.GameID != 0 {
		where = append(where, "r.game_id = ?")
		args = append(args, filter.GameID)
	}
	if filter.RoundID != 0 {
		where = append(where, "q.round_id = ?")
		args = append(args, filter.RoundID)
	}
	if filter.QuestionID != 0 {
		where = append(where, "a.question_id = ?")
		args = append(args, filter.QuestionID)
	}
	if filter.QuestionType != "" {
		where = append(where, "q.question_type = ?")
		args = append(args, string(filter.QuestionType))
	}
	if filter.UserID != "" {
		where = append(where, "a.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.PendingOnly {
		where = append(where, "a.is_correct IS NULL")
	}

	query := `SELECT ` + answerColumns + `
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN rounds r ON r.id = q.round_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.submitted_at, a.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

// ListPendingAnswers returns the not yet judged answers of a question
func (r *Repository) ListPendingAnswers(ctx context.Context, questionID int64) ([]models.Answer, error) {
	return r.ListAnswers(ctx, models.AnswerFilter{QuestionID: questionID, PendingOnly: true})
}

// SetVerdict records a judgment of the answer as it was read into snapshot.
// The write applies only while the row still holds the snapshot's text, bet
// and verdict. ErrStaleAnswer is returned when it has changed since, and
// ErrNotFound when it is gone.
func (r *Repository) SetVerdict(ctx context.Context, snapshot *models.Answer, correct bool, points int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE answers SET is_correct = ?, points_awarded = ?
		WHERE id = ? AND answer_text = ? AND bet_used IS ? AND is_correct IS ?`,
		correct, points, snapshot.ID, snapshot.Text, snapshot.BetUsed, snapshot.IsCorrect)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM answers WHERE id = ?)`, snapshot.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleAnswer
}

// SumAwardedPoints totals the points of userID's judged answers within a game
func (r *Repository) SumAwardedPoints(ctx context.Context, gameID int64, userID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(a.points_awarded), 0)
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN rounds r ON r.id = q.round_id
		WHERE r.game_id = ? AND a.user_id = ? AND a.points_awarded IS NOT NULL`, gameID, userID).Scan(&total)
	return total, err
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
