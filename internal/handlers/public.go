package handlers

import (
	"fmt"
	"net/http"

	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/models"
)

// handleIndex sends visitors to the score board of the latest active game
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	game, err := h.Games.LatestActiveGame(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/api/games/%d/ratings", game.ID), http.StatusFound)
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	key := auth.EnsurePlayerKey(w, r)
	p, err := h.Participants.Register(r.Context(), gameID, key, req.registration())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondCreated(w, RegisterResponse{
		Participant: p,
		RoomURL:     fmt.Sprintf("/ws/game/%d", gameID),
	})
}

// handleMe returns the participant the player cookie is registered as
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	p, err := h.Participants.FindBySession(r.Context(), gameID, auth.PlayerKey(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, p)
}

func (h *Handlers) handlePublicRatings(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	game, err := h.Games.GetGame(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ratings, err := h.Participants.Ratings(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, RatingsResponse{GameID: game.ID, Title: game.Title, Ratings: ratings})
}

// handlePublicState is the polling fallback for the room socket: the live
// question or round without answer keys, plus the caller's registration
func (h *Handlers) handlePublicState(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()

	game, err := h.Games.GetGame(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	state, err := h.Games.State(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := PublicStateResponse{
		Game:        *game,
		State:       state,
		Participant: h.currentParticipant(r, gameID),
	}

	question, err := h.Games.CurrentQuestion(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if question != nil {
		resp.CurrentQuestion = &question.Question
	}

	round, err := h.Games.CurrentRound(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if round != nil {
		resp.CurrentRound = &round.Round
	}

	respondOK(w, resp)
}

// handleRegistrationQR serves a PNG QR code of the game's registration URL
func (h *Handlers) handleRegistrationQR(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	png, err := h.Participants.RegistrationQR(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// currentParticipant returns the participant registered under the request's
// player cookie in a game, or nil
func (h *Handlers) currentParticipant(r *http.Request, gameID int64) *models.Participant {
	key := auth.PlayerKey(r)
	if key == "" {
		return nil
	}
	p, err := h.Participants.FindBySession(r.Context(), gameID, key)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			h.log.Error("Failed to look up player session", "game_id", gameID, "error", err)
		}
		return nil
	}
	return p
}
