package models

import (
	"strings"
	"time"
)

// GameMode controls how participants register
type GameMode string

const (
	ModeTeam       GameMode = "team"
	ModeIndividual GameMode = "individual"
)

// Valid reports whether the mode is a known value
func (m GameMode) Valid() bool {
	return m == ModeTeam || m == ModeIndividual
}

// QuestionType is either a multiple choice or a free text question
type QuestionType string

const (
	QuestionChoice QuestionType = "choice"
	QuestionOpen   QuestionType = "open"
)

// Valid reports whether the question type is a known value
func (t QuestionType) Valid() bool {
	return t == QuestionChoice || t == QuestionOpen
}

// AnonymousUser is the shared identity slot for submitters without a participant
const AnonymousUser = "anonymous"

// DefaultTimeLimit is the answer window (seconds) shown to clients when none is given
const DefaultTimeLimit = 30

// Game represents a quiz game
type Game struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Mode        GameMode  `json:"mode"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	GameState
}

// GameState holds the live, operator-controlled state of a game
type GameState struct {
	ActiveQuestionID        *int64     `json:"active_question_id"`
	ActiveRoundID           *int64     `json:"active_round_id"`
	AcceptingAnswers        bool       `json:"accepting_answers"`
	ActiveQuestionStartedAt *time.Time `json:"active_question_started_at"`
	ActiveRoundStartedAt    *time.Time `json:"active_round_started_at"`
	ActiveTimeLimit         int        `json:"active_time_limit,omitempty"`
}

// Round groups questions within a game
type Round struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"game_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// Question is a single quiz question
type Question struct {
	ID            int64        `json:"id"`
	RoundID       int64        `json:"round_id"`
	GameID        int64        `json:"game_id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"`
	Points        int          `json:"points"`
	AllowBet      bool         `json:"allow_bet"`
	BetMultiplier int          `json:"bet_multiplier"`
	TimeLimit     int          `json:"time_limit"`
}

// HasAnswerKey reports whether the question can be graded automatically
func (q *Question) HasAnswerKey() bool {
	return q.Type == QuestionChoice && q.CorrectAnswer != nil && strings.TrimSpace(*q.CorrectAnswer) != ""
}

// Participant is a registered team or player in one game
type Participant struct {
	ID           int64     `json:"id"`
	GameID       int64     `json:"game_id"`
	SessionKey   string    `json:"session_key"`
	TeamName     string    `json:"team_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	MiddleName   string    `json:"middle_name,omitempty"`
	TotalScore   int       `json:"total_score"`
	RegisteredAt time.Time `json:"registered_at"`
}

// FullName composes the personal name parts, falling back to the team name
func (p *Participant) FullName() string {
	var parts []string
	for _, s := range []string{p.LastName, p.FirstName, p.MiddleName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return p.TeamName
}

// DisplayName is the name shown on score boards
func (p *Participant) DisplayName() string {
	if p.TeamName != "" {
		return p.TeamName
	}
	if name := p.FullName(); name != "" {
		return name
	}
	return p.SessionKey
}

// Answer is the single live answer of one identity to one question.
// IsCorrect is nil while the answer is pending judgment.
type Answer struct {
	ID            int64     `json:"id"`
	QuestionID    int64     `json:"question_id"`
	UserID        string    `json:"user_id"`
	TeamName      string    `json:"team_name,omitempty"`
	Text          string    `json:"answer_text"`
	IsCorrect     *bool     `json:"is_correct"`
	PointsAwarded *int      `json:"points_awarded"`
	BetUsed       *int      `json:"bet_used"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Pending reports whether the answer has not been judged yet
func (a *Answer) Pending() bool {
	return a.IsCorrect == nil
}

// AnswerFilter narrows answer listings for moderation
type AnswerFilter struct {
	GameID       int64
	RoundID      int64
	QuestionID   int64
	QuestionType QuestionType
	UserID       string
	PendingOnly  bool
}

// Rating is one row of the score board
type Rating struct {
	ParticipantID int64  `json:"participant_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}
