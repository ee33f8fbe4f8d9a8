package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abrezinsky/quizroom/internal/scoring"
)

// EventType is the "type" discriminator of outbound room events
type EventType string

const (
	EventShowQuestion EventType = "show_question"
	EventShowRound    EventType = "show_round"
	EventStopAnswers  EventType = "stop_answers"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerSubmit EventType = "player_submit"
	EventUpdateRating EventType = "update_rating"
)

// Event is a message fanned out to every connection of a game room.
// Events serialize as a flat JSON object carrying a "type" field.
type Event interface {
	EventType() EventType
}

// QuestionSnapshot is the participant-facing view of a question (no answer key)
type QuestionSnapshot struct {
	ID            int64        `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	AllowBet      bool         `json:"allow_bet"`
	BetMultiplier int          `json:"bet_multiplier"`
	MaxBet        int          `json:"max_bet"`
	Time          int          `json:"time"`
	StartedAt     *time.Time   `json:"started_at"`
}

// NewQuestionSnapshot builds the client view of q
func NewQuestionSnapshot(q *Question, timeLimit int, startedAt *time.Time) QuestionSnapshot {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	if timeLimit <= 0 {
		timeLimit = q.TimeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return QuestionSnapshot{
		ID:            q.ID,
		Text:          q.Text,
		Type:          q.Type,
		Options:       options,
		AllowBet:      q.AllowBet,
		BetMultiplier: q.BetMultiplier,
		MaxBet:        scoring.MaxBet,
		Time:          timeLimit,
		StartedAt:     startedAt,
	}
}

// RoundSnapshot is the participant-facing view of a round and its questions
type RoundSnapshot struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []QuestionSnapshot `json:"questions"`
}

// SavedAnswer is a participant's stored answer, restored on reconnect
type SavedAnswer struct {
	AnswerID int64  `json:"answer_id"`
	Answer   string `json:"answer"`
	Bet      *int   `json:"bet"`
}

// ShowQuestion announces that a question became active
type ShowQuestion struct {
	Question QuestionSnapshot `json:"question"`
	Time     int              `json:"time"`
}

// ShowRound announces a whole round sent at once
type ShowRound struct {
	Round        RoundSnapshot         `json:"round"`
	SavedAnswers map[int64]SavedAnswer `json:"saved_answers"`
	Time         int                   `json:"time"`
	StartedAt    *time.Time            `json:"started_at"`
}

// StopAnswers closes the answering window
type StopAnswers struct {
	QuestionID *int64 `json:"question_id"`
}

// PlayerJoined is a presence notification
type PlayerJoined struct {
	ParticipantID *int64 `json:"participant_id"`
}

// PlayerSubmit acknowledges a submission to the room. AnswerID is null when
// the submission was rejected; AnswerIDs is set for batch round saves.
type PlayerSubmit struct {
	ParticipantID *int64  `json:"participant_id"`
	QuestionID    *int64  `json:"question_id,omitempty"`
	Answer        string  `json:"answer,omitempty"`
	Bet           *int    `json:"bet,omitempty"`
	AnswerID      *int64  `json:"answer_id"`
	AnswerIDs     []int64 `json:"answer_ids,omitempty"`
}

// UpdateRating carries the full score board, highest score first
type UpdateRating struct {
	Ratings []Rating `json:"ratings"`
}

func (ShowQuestion) EventType() EventType { return EventShowQuestion }
func (ShowRound) EventType() EventType    { return EventShowRound }
func (StopAnswers) EventType() EventType  { return EventStopAnswers }
func (PlayerJoined) EventType() EventType { return EventPlayerJoined }
func (PlayerSubmit) EventType() EventType { return EventPlayerSubmit }
func (UpdateRating) EventType() EventType { return EventUpdateRating }

func (e ShowQuestion) MarshalJSON() ([]byte, error) {
	type alias ShowQuestion
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

func (e ShowRound) MarshalJSON() ([]byte, error) {
	type alias ShowRound
	if e.SavedAnswers == nil {
		e.SavedAnswers = map[int64]SavedAnswer{}
	}
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

func (e StopAnswers) MarshalJSON() ([]byte, error) {
	type alias StopAnswers
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

func (e PlayerJoined) MarshalJSON() ([]byte, error) {
	type alias PlayerJoined
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

func (e PlayerSubmit) MarshalJSON() ([]byte, error) {
	type alias PlayerSubmit
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

func (e UpdateRating) MarshalJSON() ([]byte, error) {
	type alias UpdateRating
	if e.Ratings == nil {
		e.Ratings = []Rating{}
	}
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

// DecodeEvent parses a serialized event back into its concrete type
func DecodeEvent(data []byte) (Event, error) {
	var env struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var ev Event
	var err error
	switch env.Type {
	case EventShowQuestion:
		var e ShowQuestion
		err = json.Unmarshal(data, &e)
		ev = e
	case EventShowRound:
		var e ShowRound
		err = json.Unmarshal(data, &e)
		ev = e
	case EventStopAnswers:
		var e StopAnswers
		err = json.Unmarshal(data, &e)
		ev = e
	case EventPlayerJoined:
		var e PlayerJoined
		err = json.Unmarshal(data, &e)
		ev = e
	case EventPlayerSubmit:
		var e PlayerSubmit
		err = json.Unmarshal(data, &e)
		ev = e
	case EventUpdateRating:
		var e UpdateRating
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}
