package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// EventStore persists events and opens per-event transactions.
type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	Event(ctx context.Context, id string) (*model.Event, error)
	// FindEvents returns events matching q ordered by event date, then id.
	FindEvents(ctx context.Context, q model.EventQuery) ([]model.Event, error)
	// InTx runs fn with the event exclusively locked. Writes made through tx
	// become visible only if fn returns nil; any error discards all of them.
	InTx(ctx context.Context, eventID string, fn func(tx EventTx) error) error
}

// EventTx is the view of one locked event and its requests.
type EventTx interface {
	// Event returns the locked event. Mutations must go through SaveEvent.
	Event() *model.Event
	SaveEvent(ctx context.Context, e *model.Event) error

	Request(ctx context.Context, id string) (*model.Request, error)
	// ActiveRequest returns the requester's non-canceled request on the event,
	// or an apperr.ErrNotFound error.
	ActiveRequest(ctx context.Context, requesterID string) (*model.Request, error)
	CountConfirmed(ctx context.Context) (int, error)
	InsertRequest(ctx context.Context, r *model.Request) error
	SetStatus(ctx context.Context, requestID string, status model.RequestStatus) error
	// RejectPending moves every PENDING request on the event to REJECTED and
	// returns their ids in creation order.
	RejectPending(ctx context.Context) ([]string, error)
}

// RequestStore serves read-side request queries.
type RequestStore interface {
	Request(ctx context.Context, id string) (*model.Request, error)
	RequestsByEvent(ctx context.Context, eventID string) ([]model.Request, error)
	RequestsByRequester(ctx context.Context, requesterID string) ([]model.Request, error)
	// CountConfirmed returns CONFIRMED counts keyed by event id. Events
	// without confirmed requests are absent from the map.
	CountConfirmed(ctx context.Context, eventIDs []string) (map[string]int, error)
}

// Directory resolves users and categories owned by collaborators.
type Directory interface {
	CreateUser(ctx context.Context, u *model.User) error
	User(ctx context.Context, id string) (*model.User, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	Category(ctx context.Context, id string) (*model.Category, error)
}
