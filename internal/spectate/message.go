package spectate

import (
	"encoding/json"
	"time"
)

// MessageType identifies a spectator message.
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeEvent    MessageType = "event"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Snapshot is the full board, sent once when a spectator connects.
type Snapshot struct {
	GameID          string        `json:"gameId"`
	Players         []PlayerState `json:"players"`
	Slots           []SlotState   `json:"slots"`
	RemainingMillis int64         `json:"remainingMillis"`
	Warn            bool          `json:"warn"`
	Winners         []int         `json:"winners,omitempty"`
}

type PlayerState struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	FrozenMillis int64  `json:"frozenMillis"`
}

// SlotState is one board position. Card is -1 for an empty slot.
type SlotState struct {
	Slot   int   `json:"slot"`
	Card   int   `json:"card"`
	Tokens []int `json:"tokens"`
}
