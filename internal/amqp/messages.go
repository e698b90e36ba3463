package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TotalSyncMessage announces that the local counter row reached Version.
// Total is informational; the worker always mirrors the row's current total.
type TotalSyncMessage struct {
	Version   int64     `json:"version"`
	Total     int64     `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTotalSyncMessage(version, total int64) *TotalSyncMessage {
	return &TotalSyncMessage{
		Version:   version,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects messages no counter row could have produced.
func (m *TotalSyncMessage) Validate() error {
	if m.Version <= 0 {
		return fmt.Errorf("invalid version %d: must be positive", m.Version)
	}
	if m.Total < 0 {
		return errors.New("total cannot be negative")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TotalSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TotalSyncMessageFromJSON decodes and validates a message.
func TotalSyncMessageFromJSON(data []byte) (*TotalSyncMessage, error) {
	var msg TotalSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode total sync message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
