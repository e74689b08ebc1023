package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Operation names the mutation behind a change event.
type Operation string

const (
	OpUpsert      Operation = "upsert"
	OpImport      Operation = "import"
	OpDeleteMonth Operation = "delete_month"
	OpDeleteYear  Operation = "delete_year"
	OpDeleteAll   Operation = "delete_all"
)

// SnapshotChangeMessage announces that stored snapshots changed. It carries
// only keys; consumers reload the data they need from the store.
type SnapshotChangeMessage struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Months    []string  `json:"months,omitempty"`
	Year      string    `json:"year,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotChangeMessage creates a change event with a fresh batch ID.
func NewSnapshotChangeMessage(op Operation, months ...string) *SnapshotChangeMessage {
	return &SnapshotChangeMessage{
		ID:        uuid.NewString(),
		Operation: op,
		Months:    months,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotChangeMessageFromJSON creates a message from JSON bytes
func SnapshotChangeMessageFromJSON(data []byte) (*SnapshotChangeMessage, error) {
	var msg SnapshotChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
