package handlers

import "github.com/abrezinsky/quizroom/internal/models"

// IDResponse is returned when a resource is created
type IDResponse struct {
	ID int64 `json:"id"`
}

// GameDetailResponse is a game with its rounds and live state
type GameDetailResponse struct {
	models.Game
	Rounds []models.Round    `json:"rounds"`
	State  *models.GameState `json:"state"`
}

// RoundDetailResponse is a round with its questions
type RoundDetailResponse struct {
	models.Round
	Questions []models.Question `json:"questions"`
}

// CorrectAnswerResponse reports how many pending answers were graded by a
// new answer key
type CorrectAnswerResponse struct {
	Graded int `json:"graded"`
}

// RegisterResponse is the participant created (or found) for a browser
type RegisterResponse struct {
	Participant *models.Participant `json:"participant"`
	RoomURL     string              `json:"room_url"`
}

// RatingsResponse is the public score board of a game
type RatingsResponse struct {
	GameID  int64           `json:"game_id"`
	Title   string          `json:"title"`
	Ratings []models.Rating `json:"ratings"`
}

// PublicStateResponse is the participant-facing view of a game's live state
type PublicStateResponse struct {
	Game            models.Game              `json:"game"`
	State           *models.GameState        `json:"state"`
	CurrentQuestion *models.QuestionSnapshot `json:"current_question"`
	CurrentRound    *models.RoundSnapshot    `json:"current_round"`
	Participant     *models.Participant      `json:"participant"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL string `json:"base_url"`
}
