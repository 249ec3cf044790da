package realtime

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent tells subscribers a row changed. Id is empty for statements
// touching rows not identified individually, such as a batch delete by
// condition. Subscribers refetch, the event carries no row data.
type ChangeEvent struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	Id    string    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

func encodeEvent(e ChangeEvent) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEvent(payload []byte) (ChangeEvent, error) {
	var e ChangeEvent
	err := json.Unmarshal(payload, &e)
	return e, err
}
