package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Action is the "action" discriminator of inbound client messages
type Action string

const (
	ActionJoinGame         Action = "join_game"
	ActionSubmitAnswer     Action = "submit_answer"
	ActionSaveAnswer       Action = "save_answer"
	ActionSaveRoundAnswers Action = "save_round_answers"
)

var (
	// ErrMalformedMessage is returned for frames that are not a JSON object
	// or lack a usable field required by their action
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownAction is returned for frames with an unrecognised action
	ErrUnknownAction = errors.New("unknown action")
)

// Inbound is a parsed client message
type Inbound interface {
	InboundAction() Action
}

// JoinGame binds a participant identity to the connection
type JoinGame struct {
	ParticipantID *int64
}

// SubmitAnswer submits or re-saves one answer. Bet is kept raw so the
// ledger can coerce it against the question's wager rules.
type SubmitAnswer struct {
	Action        Action
	QuestionID    int64
	Answer        string
	Bet           json.RawMessage
	ParticipantID *int64
}

// RoundAnswer is one item of a batch round save
type RoundAnswer struct {
	QuestionID int64
	Answer     string
	Bet        json.RawMessage
}

// SaveRoundAnswers saves several answers of a round in one message
type SaveRoundAnswers struct {
	Answers       []RoundAnswer
	ParticipantID *int64
}

func (JoinGame) InboundAction() Action         { return ActionJoinGame }
func (m SubmitAnswer) InboundAction() Action   { return m.Action }
func (SaveRoundAnswers) InboundAction() Action { return ActionSaveRoundAnswers }

type rawAnswer struct {
	QuestionID json.RawMessage `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
	Bet        json.RawMessage `json:"bet"`
}

type rawInbound struct {
	Action        Action          `json:"action"`
	ParticipantID json.RawMessage `json:"participant_id"`
	rawAnswer
	Answers []rawAnswer `json:"answers"`
}

// ParseInbound decodes a client frame into its typed message.
// Numeric ids are accepted as JSON numbers or numeric strings.
func ParseInbound(data []byte) (Inbound, error) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrMalformedMessage
	}

	// An unparseable participant id is treated as absent
	participantID, _ := ParseID(raw.ParticipantID)

	switch raw.Action {
	case ActionJoinGame:
		return JoinGame{ParticipantID: participantID}, nil

	case ActionSubmitAnswer, ActionSaveAnswer:
		questionID, err := ParseID(raw.QuestionID)
		if err != nil || questionID == nil {
			return nil, ErrMalformedMessage
		}
		return SubmitAnswer{
			Action:        raw.Action,
			QuestionID:    *questionID,
			Answer:        rawText(raw.Answer),
			Bet:           raw.Bet,
			ParticipantID: participantID,
		}, nil

	case ActionSaveRoundAnswers:
		msg := SaveRoundAnswers{ParticipantID: participantID}
		for _, item := range raw.Answers {
			questionID, err := ParseID(item.QuestionID)
			if err != nil || questionID == nil {
				continue
			}
			msg.Answers = append(msg.Answers, RoundAnswer{
				QuestionID: *questionID,
				Answer:     rawText(item.Answer),
				Bet:        item.Bet,
			})
		}
		return msg, nil

	default:
		return nil, ErrUnknownAction
	}
}

// ParseID reads an id given as a JSON number, a numeric string, or null.
// A nil result with a nil error means the id was absent.
func ParseID(raw json.RawMessage) (*int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// rawText returns a JSON string value, or the literal text of any other value
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
