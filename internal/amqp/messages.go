package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds, by the collection (or action) that triggered them.
const (
	ChangeRecords  = "records"
	ChangeServices = "services"
	ChangeClients  = "clients"
	ChangeRestore  = "restore"
)

// ChangeMessage tells the backup worker that persisted state changed.
// It carries no payload: the worker reads the current snapshot from the
// store, so a lost or reordered message can never apply stale data.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(kind string) *ChangeMessage {
	return &ChangeMessage{Kind: kind, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
