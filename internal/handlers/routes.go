package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.log != nil && h.log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// Game room socket; long lived, so outside the request timeout
	r.Get("/ws/game/{gameID}", h.Hub.ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", h.handleIndex)

		// Player API (public)
		r.Post("/api/games/{gameID}/register", h.handleRegister)
		r.Get("/api/games/{gameID}/me", h.handleMe)
		r.Get("/api/games/{gameID}/ratings", h.handlePublicRatings)
		r.Get("/api/games/{gameID}/state", h.handlePublicState)
		r.Get("/api/games/{gameID}/qr", h.handleRegistrationQR)

		// Auth routes (public)
		r.Post("/api/admin/login", h.handleLogin)
		r.Post("/api/admin/logout", h.handleLogout)

		// Operator API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)

			// Games
			r.Get("/api/admin/games", h.handleListGames)
			r.Post("/api/admin/games", h.handleCreateGame)
			r.Get("/api/admin/games/{gameID}", h.handleGetGame)
			r.Put("/api/admin/games/{gameID}", h.handleUpdateGame)
			r.Delete("/api/admin/games/{gameID}", h.handleDeleteGame)
			r.Post("/api/admin/games/{gameID}/activate", h.handleActivateGame)
			r.Post("/api/admin/games/{gameID}/duplicate", h.handleDuplicateGame)

			// Rounds
			r.Get("/api/admin/games/{gameID}/rounds", h.handleListRounds)
			r.Post("/api/admin/games/{gameID}/rounds", h.handleCreateRound)
			r.Get("/api/admin/rounds/{roundID}", h.handleGetRound)
			r.Put("/api/admin/rounds/{roundID}", h.handleUpdateRound)
			r.Delete("/api/admin/rounds/{roundID}", h.handleDeleteRound)

			// Questions
			r.Get("/api/admin/rounds/{roundID}/questions", h.handleListQuestions)
			r.Post("/api/admin/rounds/{roundID}/questions", h.handleCreateQuestion)
			r.Get("/api/admin/questions/{questionID}", h.handleGetQuestion)
			r.Put("/api/admin/questions/{questionID}", h.handleUpdateQuestion)
			r.Delete("/api/admin/questions/{questionID}", h.handleDeleteQuestion)
			r.Put("/api/admin/questions/{questionID}/correct-answer", h.handleSetCorrectAnswer)

			// Live control
			r.Get("/api/admin/games/{gameID}/state", h.handleGameState)
			r.Post("/api/admin/games/{gameID}/send-question", h.handleSendQuestion)
			r.Post("/api/admin/games/{gameID}/send-round", h.handleSendRound)
			r.Post("/api/admin/games/{gameID}/stop", h.handleStop)
			r.Post("/api/admin/games/{gameID}/questions/{questionID}/stop", h.handleStopQuestion)

			// Moderation
			r.Get("/api/admin/games/{gameID}/answers/pending", h.handlePendingAnswers)
			r.Get("/api/admin/rounds/{roundID}/answers", h.handleRoundAnswers)
			r.Get("/api/admin/questions/{questionID}/answers", h.handleQuestionAnswers)
			r.Post("/api/admin/games/{gameID}/answers/{answerID}/judge", h.handleJudgeAnswer)
			r.Get("/api/admin/games/{gameID}/ratings", h.handleAdminRatings)
			r.Get("/api/admin/games/{gameID}/participants", h.handleListParticipants)

			// Settings
			r.Get("/api/admin/settings", h.handleGetSettings)
			r.Put("/api/admin/settings", h.handleUpdateSettings)
			r.Post("/api/admin/settings", h.handleUpdateSettings)
		})
	})

	return r
}
