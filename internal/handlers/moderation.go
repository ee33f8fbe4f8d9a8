package handlers

import (
	"net/http"

	"github.com/abrezinsky/quizroom/internal/models"
)

// handlePendingAnswers lists the open-question answers of a game still
// waiting for a verdict, oldest first
func (h *Handlers) handlePendingAnswers(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.Games.GetGame(r.Context(), gameID); err != nil {
		h.respondError(w, r, err)
		return
	}

	answers, err := h.Answers.PendingOpenAnswers(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	respondOK(w, answers)
}

// handleRoundAnswers lists the answers of a round. ?pending=true keeps only
// unjudged ones and ?type=open|choice filters by question type.
func (h *Handlers) handleRoundAnswers(w http.ResponseWriter, r *http.Request) {
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

	filter, err := answerFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter.GameID = round.GameID
	filter.RoundID = round.ID
	h.respondAnswers(w, r, filter)
}

// handleQuestionAnswers lists the answers submitted to one question
func (h *Handlers) handleQuestionAnswers(w http.ResponseWriter, r *http.Request) {
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

	filter, err := answerFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter.GameID = q.GameID
	filter.QuestionID = q.ID
	h.respondAnswers(w, r, filter)
}

func (h *Handlers) respondAnswers(w http.ResponseWriter, r *http.Request, filter models.AnswerFilter) {
	answers, err := h.Answers.ListAnswers(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	respondOK(w, answers)
}

func answerFilter(r *http.Request) (models.AnswerFilter, error) {
	var filter models.AnswerFilter
	query := r.URL.Query()

	switch query.Get("pending") {
	case "", "false", "0":
	case "true", "1":
		filter.PendingOnly = true
	default:
		return filter, BadRequest("Invalid pending parameter")
	}

	if t := query.Get("type"); t != "" {
		filter.QuestionType = models.QuestionType(t)
		if !filter.QuestionType.Valid() {
			return filter, BadRequest("Invalid type parameter")
		}
	}
	return filter, nil
}

// handleJudgeAnswer records the operator's verdict on an answer. The owner's
// total is recomputed and the room receives fresh ratings.
func (h *Handlers) handleJudgeAnswer(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	answerID, err := parseIDParam(r, "answerID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req JudgeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Correct == nil {
		h.respondError(w, r, BadRequest("correct is required"))
		return
	}

	answer, err := h.Judging.Judge(r.Context(), gameID, answerID, *req.Correct)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, answer)
}

func (h *Handlers) handleAdminRatings(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.Games.GetGame(r.Context(), gameID); err != nil {
		h.respondError(w, r, err)
		return
	}

	ratings, err := h.Judging.Ratings(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ratings)
}

func (h *Handlers) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	participants, err := h.Participants.List(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, participants)
}
