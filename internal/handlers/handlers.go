package handlers

import (
	"net/http"

	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Games        services.GameServicer
	Answers      services.AnswerServicer
	Judging      services.JudgingServicer
	Participants services.ParticipantServicer
	Settings     services.SettingsServicer
	Auth         *auth.Auth
	Hub          *websocket.Hub
	log          logger.Logger
}

// New creates a new Handlers instance with all dependencies and points the
// hub at the player cookie for connection identity
func New(
	log logger.Logger,
	games services.GameServicer,
	answers services.AnswerServicer,
	judging services.JudgingServicer,
	participants services.ParticipantServicer,
	settings services.SettingsServicer,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
) *Handlers {
	h := &Handlers{
		Games:        games,
		Answers:      answers,
		Judging:      judging,
		Participants: participants,
		Settings:     settings,
		Auth:         adminAuth,
		Hub:          hub,
		log:          log,
	}
	if hub != nil {
		hub.SetIdentityResolver(h.PlayerIdentity)
	}
	return h
}

// PlayerIdentity resolves the participant a request's player cookie is
// registered as in a game
func (h *Handlers) PlayerIdentity(r *http.Request, gameID int64) *int64 {
	p := h.currentParticipant(r, gameID)
	if p == nil {
		return nil
	}
	return &p.ID
}
