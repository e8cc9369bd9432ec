package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"collaborative-taskboard/internal/repository"
)

// Outbound envelope types.
const (
	typeWelcome      = "welcome"
	typePresence     = "presence"
	typeTyping       = "typing"
	typeNotify       = "notify"
	typeCardUpdate   = "card_update"
	typeColumnUpdate = "column_update"
	typeBoardUpdate  = "board_update"
)

// errUnknownMessageType marks an envelope whose type is not part of the
// protocol. Such messages are ignored, not treated as protocol errors.
var errUnknownMessageType = errors.New("unknown message type")

// Inbound message variants. The wire format is a JSON object whose "type"
// field selects the schema; decodeInbound validates each variant at the
// boundary so handlers only ever see fully-typed payloads.
type joinMessage struct {
	UserID   string `json:"userId"`
	BoardID  string `json:"boardId"`
	UserName string `json:"userName"`
}

type typingMessage struct {
	CardID string `json:"cardId"`
}

type notifyMessage struct {
	Message string `json:"message"`
}

type cardMovedMessage struct {
	CardID       string `json:"cardId"`
	FromColumnID string `json:"fromColumnId"`
	ToColumnID   string `json:"toColumnId"`
	ToPosition   int    `json:"toPosition"`
}

type cardUpdatedMessage struct {
	CardID  string          `json:"cardId"`
	Updates json.RawMessage `json:"updates"`
}

type columnUpdatedMessage struct {
	ColumnID string          `json:"columnId"`
	Updates  json.RawMessage `json:"updates"`
}

type boardUpdatedMessage struct {
	Updates json.RawMessage `json:"updates"`
}

// decodeInbound parses a raw client frame into exactly one typed variant.
// It returns errUnknownMessageType for types outside the protocol and a
// descriptive error for malformed payloads; both cause the frame to be
// dropped without affecting the connection.
func decodeInbound(raw []byte) (interface{}, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch head.Type {
	case "join":
		var m joinMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed join payload: %w", err)
		}
		// Empty userId/boardId is legal on the wire; the registry treats
		// such a join as a no-op.
		return m, nil

	case "typing":
		var m typingMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed typing payload: %w", err)
		}
		if m.CardID == "" {
			return nil, errors.New("typing payload missing cardId")
		}
		return m, nil

	case "notify":
		var m notifyMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed notify payload: %w", err)
		}
		if m.Message == "" {
			return nil, errors.New("notify payload missing message")
		}
		return m, nil

	case "card_moved":
		var m cardMovedMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed card_moved payload: %w", err)
		}
		if m.CardID == "" || m.FromColumnID == "" || m.ToColumnID == "" {
			return nil, errors.New("card_moved payload missing required field")
		}
		if m.ToPosition < 0 {
			return nil, errors.New("card_moved payload has negative toPosition")
		}
		return m, nil

	case "card_updated":
		var m cardUpdatedMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed card_updated payload: %w", err)
		}
		if m.CardID == "" || len(m.Updates) == 0 {
			return nil, errors.New("card_updated payload missing required field")
		}
		return m, nil

	case "column_updated":
		var m columnUpdatedMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed column_updated payload: %w", err)
		}
		if m.ColumnID == "" || len(m.Updates) == 0 {
			return nil, errors.New("column_updated payload missing required field")
		}
		return m, nil

	case "board_updated":
		var m boardUpdatedMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("malformed board_updated payload: %w", err)
		}
		if len(m.Updates) == 0 {
			return nil, errors.New("board_updated payload missing updates")
		}
		return m, nil
	}
	return nil, errUnknownMessageType
}

// Outbound envelopes. Inbound card_moved and card_updated both fan out as
// card_update, with payload shapes specific to the originating message.

type welcomeEnvelope struct {
	Type string `json:"type"`
}

type presenceMarker struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type presenceEnvelope struct {
	Type       string                    `json:"type"`
	Users      []repository.PresenceUser `json:"users"`
	UserJoined *presenceMarker           `json:"userJoined,omitempty"`
	UserLeft   *presenceMarker           `json:"userLeft,omitempty"`
}

type typingEnvelope struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	CardID   string `json:"cardId"`
}

type notifyEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	From    string `json:"from"`
}

type cardMovedEnvelope struct {
	Type         string `json:"type"`
	CardID       string `json:"cardId"`
	FromColumnID string `json:"fromColumnId"`
	ToColumnID   string `json:"toColumnId"`
	ToPosition   int    `json:"toPosition"`
	MovedBy      string `json:"movedBy"`
}

type cardUpdatedEnvelope struct {
	Type      string          `json:"type"`
	CardID    string          `json:"cardId"`
	Updates   json.RawMessage `json:"updates"`
	UpdatedBy string          `json:"updatedBy"`
}

type columnUpdateEnvelope struct {
	Type      string          `json:"type"`
	ColumnID  string          `json:"columnId"`
	Updates   json.RawMessage `json:"updates"`
	UpdatedBy string          `json:"updatedBy"`
}

type boardUpdateEnvelope struct {
	Type      string          `json:"type"`
	BoardID   string          `json:"boardId"`
	Updates   json.RawMessage `json:"updates"`
	UpdatedBy string          `json:"updatedBy"`
}
