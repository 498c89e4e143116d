package amqp

import (
	"encoding/json"
	"time"
)

// EventType doubles as the routing key on the topic exchange.
type EventType string

const (
	MonthCreated          EventType = "month.created"
	MonthDuplicated       EventType = "month.duplicated"
	MonthUpdated          EventType = "month.updated"
	MonthCarryOverChanged EventType = "month.carry_over_changed"
	MonthDeleted          EventType = "month.deleted"
	CategoryCreated       EventType = "settings.category_created"
	CategoryUpdated       EventType = "settings.category_updated"
	CategoryDeleted       EventType = "settings.category_deleted"
	UserRegistered        EventType = "user.registered"
)

// Event is the message published after a budget change. It carries
// references only; consumers read the current state from the API.
type Event struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"userId"`
	MonthKey string    `json:"monthKey,omitempty"`
	Category string    `json:"category,omitempty"`
	EntryID  string    `json:"entryId,omitempty"`
	// Months lists the month keys touched by a category deletion.
	Months    []string  `json:"months,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, userID string) Event {
	return Event{Type: t, UserID: userID, Timestamp: time.Now().UTC()}
}

func (e Event) WithMonth(key string) Event {
	e.MonthKey = key
	return e
}

func (e Event) WithCategory(kind, id string) Event {
	e.Category = kind
	e.EntryID = id
	return e
}

func (e Event) RoutingKey() string {
	return string(e.Type)
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
