package handlers

import (
	"net/http"
)

// ==================== Games ====================

func (h *Handlers) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Games.ListGames(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, games)
}

func (h *Handlers) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.Games.CreateGame(r.Context(), req.game())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleGetGame(w http.ResponseWriter, r *http.Request) {
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
	rounds, err := h.Games.ListRounds(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	state, err := h.Games.State(ctx, gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, GameDetailResponse{Game: *game, Rounds: rounds, State: state})
}

func (h *Handlers) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req GameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.UpdateGame(r.Context(), gameID, req.game()); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Game updated")
}

func (h *Handlers) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.DeleteGame(r.Context(), gameID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleActivateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.ActivateGame(r.Context(), gameID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Game activated")
}

func (h *Handlers) handleDuplicateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.Games.DuplicateGame(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

// ==================== Rounds ====================

func (h *Handlers) handleListRounds(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	rounds, err := h.Games.ListRounds(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, rounds)
}

func (h *Handlers) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.Games.CreateRound(r.Context(), gameID, req.round())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := parseIDParam(r, "roundID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	round, err := h.Games.GetRound(r.Context(), roundID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	questions, err := h.Games.ListQuestions(r.Context(), roundID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, RoundDetailResponse{Round: *round, Questions: questions})
}

func (h *Handlers) handleUpdateRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := parseIDParam(r, "roundID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.UpdateRound(r.Context(), roundID, req.round()); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Round updated")
}

func (h *Handlers) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := parseIDParam(r, "roundID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.DeleteRound(r.Context(), roundID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// ==================== Questions ====================

func (h *Handlers) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	roundID, err := parseIDParam(r, "roundID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	questions, err := h.Games.ListQuestions(r.Context(), roundID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, questions)
}

func (h *Handlers) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	roundID, err := parseIDParam(r, "roundID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req QuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.Games.CreateQuestion(r.Context(), roundID, req.question())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	q, err := h.Games.GetQuestion(r.Context(), questionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, q)
}

func (h *Handlers) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req QuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.UpdateQuestion(r.Context(), questionID, req.question()); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Question updated")
}

func (h *Handlers) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.DeleteQuestion(r.Context(), questionID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// handleSetCorrectAnswer stores the answer key and grades the answers still
// waiting for a verdict
func (h *Handlers) handleSetCorrectAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req CorrectAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	graded, err := h.Games.SetCorrectAnswer(r.Context(), questionID, req.CorrectAnswer)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CorrectAnswerResponse{Graded: graded})
}
