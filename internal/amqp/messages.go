package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType says what happened to an entry.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// EntryKind names the table an event refers to.
type EntryKind string

const (
	KindIncome  EntryKind = "ingreso"
	KindExpense EntryKind = "gasto"
)

// EntryEvent is published after every successful write. It carries only the
// id; consumers fetch the current row from the store.
type EntryEvent struct {
	Type      EventType `json:"type"`
	Kind      EntryKind `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryEvent stamps an event with the current time.
func NewEntryEvent(typ EventType, kind EntryKind, id int64) EntryEvent {
	return EntryEvent{
		Type:      typ,
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects events no consumer can act on.
func (e EntryEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	switch e.Kind {
	case KindIncome, KindExpense:
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	if e.ID <= 0 {
		return fmt.Errorf("invalid entry id %d", e.ID)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and validates an event.
func EntryEventFromJSON(data []byte) (EntryEvent, error) {
	var ev EntryEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return EntryEvent{}, err
	}
	if err := ev.Validate(); err != nil {
		return EntryEvent{}, err
	}
	return ev, nil
}
