// Package events describes the lifecycle notifications emitted after a
// write commits.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Publisher sends an event payload under a routing key.
type Publisher interface {
	PublishJSON(routingKey string, payload any) error
}

// Event is the payload of a lifecycle notification.
type Event struct {
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	Slug       string    `json:"slug"`
	Parent     string    `json:"parent,omitempty"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RoutingKey returns "<resource>.<action>".
func (e Event) RoutingKey() string {
	return e.Resource + "." + e.Action
}

// Emit publishes e on p. The write it describes has already committed, so a
// failure is logged and otherwise ignored. A nil p disables events.
func Emit(p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.PublishJSON(e.RoutingKey(), e); err != nil {
		log.WithFields(log.Fields{"event": e.RoutingKey(), "slug": e.Slug}).Warnf("Failed to publish event: %v", err)
	}
}

// Decode parses an event payload received from the broker.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return e, nil
}
