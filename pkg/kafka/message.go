package kafka

import (
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// ImportMessage is an inbound contact mutation from an upstream sync
// pipeline. Create and update messages carry the full field map; delete
// messages carry just the identifiers.
type ImportMessage struct {
	Action    string            `json:"action"` // create, update, delete
	BookID    string            `json:"book_id"`
	ContactID string            `json:"contact_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Source    ImportSource      `json:"source"`
}

// ImportSource identifies where an import message came from
type ImportSource struct {
	Integration string `json:"integration,omitempty"`
	SyncID      string `json:"sync_id,omitempty"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Import *ImportMessage
}

func newIncomingMessage(msg kafka.Message) *IncomingMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &IncomingMessage{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Topic:     msg.Topic,
	}
}

// ParseImport parses the message value as an import message
func (m *IncomingMessage) ParseImport() error {
	var msg ImportMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	m.Import = &msg
	return nil
}

// GetBookID returns the target address book, falling back to the header
func (m *IncomingMessage) GetBookID() string {
	if m.Import != nil && m.Import.BookID != "" {
		return m.Import.BookID
	}
	return m.Headers["book_id"]
}

// GetContactID returns the contact identifier, falling back to the key
func (m *IncomingMessage) GetContactID() string {
	if m.Import != nil && m.Import.ContactID != "" {
		return m.Import.ContactID
	}
	return m.Key
}

// IsDelete returns true for delete messages
func (m *IncomingMessage) IsDelete() bool {
	return m.Import != nil && m.Import.Action == "delete"
}
