package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage is the wire form of a collection-changed signal. It carries
// no payload beyond the collection name: consumers reload the full snapshot.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection string) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
