package handlers

import (
	"net/http"
)

func (h *Handlers) handleGameState(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	state, err := h.Games.State(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, state)
}

func (h *Handlers) handleSendQuestion(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req SendQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.QuestionID <= 0 {
		h.respondError(w, r, BadRequest("question_id is required"))
		return
	}

	if err := h.Games.SetActiveQuestion(r.Context(), gameID, req.QuestionID, req.Duration); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondState(w, r, gameID)
}

func (h *Handlers) handleSendRound(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req SendRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.RoundID <= 0 {
		h.respondError(w, r, BadRequest("round_id is required"))
		return
	}

	if err := h.Games.SetActiveRound(r.Context(), gameID, req.RoundID, req.Duration); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondState(w, r, gameID)
}

// handleStop closes answering for whatever is live
func (h *Handlers) handleStop(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.StopAccepting(r.Context(), gameID, nil); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondState(w, r, gameID)
}

// handleStopQuestion closes answering and names the question in the
// stop_answers event
func (h *Handlers) handleStopQuestion(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	questionID, err := parseIDParam(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Games.StopAccepting(r.Context(), gameID, &questionID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondState(w, r, gameID)
}

func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request, gameID int64) {
	state, err := h.Games.State(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, state)
}
