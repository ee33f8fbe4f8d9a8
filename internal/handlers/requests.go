package handlers

import (
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/services"
)

// LoginRequest represents an operator login
type LoginRequest struct {
	Password string `json:"password"`
}

// RegisterRequest represents a player registration
type RegisterRequest struct {
	TeamName   string `json:"team_name"`
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
}

func (r RegisterRequest) registration() services.Registration {
	return services.Registration{
		TeamName:   r.TeamName,
		LastName:   r.LastName,
		FirstName:  r.FirstName,
		MiddleName: r.MiddleName,
	}
}

// GameRequest represents a request to create or update a game
type GameRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Mode        models.GameMode `json:"mode"`
}

func (r GameRequest) game() services.Game {
	return services.Game{Title: r.Title, Description: r.Description, Mode: r.Mode}
}

// RoundRequest represents a request to create or update a round
type RoundRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

func (r RoundRequest) round() services.Round {
	return services.Round{Title: r.Title, Description: r.Description, Order: r.Order}
}

// QuestionRequest represents a request to create or update a question
type QuestionRequest struct {
	Text          string              `json:"text"`
	Type          models.QuestionType `json:"type"`
	Options       []string            `json:"options"`
	CorrectAnswer *string             `json:"correct_answer"`
	Points        int                 `json:"points"`
	AllowBet      bool                `json:"allow_bet"`
	BetMultiplier int                 `json:"bet_multiplier"`
	TimeLimit     int                 `json:"time_limit"`
}

func (r QuestionRequest) question() services.Question {
	return services.Question{
		Text:          r.Text,
		Type:          r.Type,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Points:        r.Points,
		AllowBet:      r.AllowBet,
		BetMultiplier: r.BetMultiplier,
		TimeLimit:     r.TimeLimit,
	}
}

// CorrectAnswerRequest sets or clears a question's answer key
type CorrectAnswerRequest struct {
	CorrectAnswer *string `json:"correct_answer"`
}

// SendQuestionRequest makes a question live. Duration is in seconds; 0 uses
// the question's time limit.
type SendQuestionRequest struct {
	QuestionID int64 `json:"question_id"`
	Duration   int   `json:"duration"`
}

// SendRoundRequest makes a whole round live
type SendRoundRequest struct {
	RoundID  int64 `json:"round_id"`
	Duration int   `json:"duration"`
}

// JudgeRequest records a verdict for an answer
type JudgeRequest struct {
	Correct *bool `json:"correct"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	BaseURL string `json:"base_url"`
}
