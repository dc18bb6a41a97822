package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MonthChangedMessage announces that a user's persisted month documents
// changed. Consumers reload from the store; the message carries no amounts.
type MonthChangedMessage struct {
	UserID    string    `json:"user_id"`
	Months    []string  `json:"months"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMonthChangedMessage stamps a message with the current time. kind names
// the command that produced the change.
func NewMonthChangedMessage(userID string, months []string, kind string) *MonthChangedMessage {
	return &MonthChangedMessage{
		UserID:    userID,
		Months:    months,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON encodes the message body
func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthChangedMessageFromJSON decodes a message body
func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("month changed message without user_id")
	}
	return &msg, nil
}
