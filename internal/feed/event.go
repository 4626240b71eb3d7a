package feed

import (
	"context"
	"time"
)

// Channel is the Postgres NOTIFY channel shared by all server instances.
const Channel = "smartroom_changes"

type Resource string

const (
	ResourceBooking Resource = "booking"
	ResourceRoom    Resource = "room"
	ResourceUser    Resource = "user"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event tells subscribers that a collection changed. It carries no payload;
// clients refetch the collection they display.
type Event struct {
	Resource Resource  `json:"resource"`
	Action   Action    `json:"action"`
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
}

// Publisher announces changes. Implementations must not block the caller for long
// and never fail the mutation that triggered them.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
