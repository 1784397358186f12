package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// Lifecycle manages event creation, edits and state transitions.
//
//	PENDING --publish--> PUBLISHED
//	PENDING --reject/cancel--> CANCELED
//	CANCELED --owner edit--> PENDING
type Lifecycle struct {
	events    repository.EventStore
	directory repository.Directory
	listing   *Listing
	opts      options
}

// NewLifecycle constructs a Lifecycle. listing renders the returned views.
func NewLifecycle(
	events repository.EventStore,
	directory repository.Directory,
	listing *Listing,
	opts ...Option,
) *Lifecycle {
	return &Lifecycle{
		events:    events,
		directory: directory,
		listing:   listing,
		opts:      buildOptions(opts),
	}
}

func (l *Lifecycle) transitioned(ctx context.Context, op string, e *model.Event, from model.EventState) {
	l.opts.metrics.Transition(ctx, op, string(from), string(e.State))
	l.opts.logger.InfoContext(ctx, "event "+op,
		slog.String("event_id", e.ID),
		slog.String("from", string(from)),
		slog.String("to", string(e.State)),
	)
}

// Create stores a new PENDING event owned by initiatorID.
func (l *Lifecycle) Create(ctx context.Context, initiatorID string, req model.NewEventRequest) (model.EventFull, error) {
	if err := validateNewEvent(req); err != nil {
		return model.EventFull{}, err
	}
	date, err := parseEventDate(req.EventDate)
	if err != nil {
		return model.EventFull{}, err
	}
	now := l.opts.now()
	if err := checkCreateLead(date, now); err != nil {
		return model.EventFull{}, err
	}
	if _, err := l.directory.User(ctx, initiatorID); err != nil {
		return model.EventFull{}, err
	}
	if _, err := l.directory.Category(ctx, req.Category); err != nil {
		return model.EventFull{}, err
	}

	moderation := true
	if req.RequestModeration != nil {
		moderation = *req.RequestModeration
	}
	e := &model.Event{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.Category,
		InitiatorID:       initiatorID,
		Location:          req.Location,
		EventDate:         date,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: moderation,
		CreatedOn:         now,
		State:             model.StatePending,
	}
	if err := l.events.CreateEvent(ctx, e); err != nil {
		return model.EventFull{}, fmt.Errorf("create event: %w", err)
	}
	l.transitioned(ctx, "created", e, "")
	return e.Full(0, 0), nil
}

// EditByOwner patches an event that is not published. A CANCELED event
// returns to PENDING.
func (l *Lifecycle) EditByOwner(ctx context.Context, initiatorID string, req model.UpdateEventRequest) (model.EventFull, error) {
	if err := requireText("eventId", req.EventID); err != nil {
		return model.EventFull{}, err
	}
	if err := validatePatch(req.Title, req.Annotation, req.Description, req.ParticipantLimit); err != nil {
		return model.EventFull{}, err
	}
	var date time.Time
	if req.EventDate != nil {
		d, err := parseEventDate(*req.EventDate)
		if err != nil {
			return model.EventFull{}, err
		}
		if err := checkCreateLead(d, l.opts.now()); err != nil {
			return model.EventFull{}, err
		}
		date = d
	}
	if _, err := l.directory.User(ctx, initiatorID); err != nil {
		return model.EventFull{}, err
	}

	var updated *model.Event
	var from model.EventState
	err := l.events.InTx(ctx, req.EventID, func(tx repository.EventTx) error {
		e := tx.Event()
		from = e.State
		if err := checkOwner(e, initiatorID); err != nil {
			return err
		}
		if e.State == model.StatePublished {
			return apperr.Conflict("event %s is published and can no longer be edited by its owner", e.ID)
		}
		if req.Category != nil {
			if _, err := l.directory.Category(ctx, *req.Category); err != nil {
				return err
			}
			e.CategoryID = *req.Category
		}
		if req.EventDate != nil {
			e.EventDate = date
		}
		applyText(&e.Title, req.Title)
		applyText(&e.Annotation, req.Annotation)
		applyText(&e.Description, req.Description)
		if req.Paid != nil {
			e.Paid = *req.Paid
		}
		if req.ParticipantLimit != nil {
			if err := checkLimitFits(ctx, tx, *req.ParticipantLimit); err != nil {
				return err
			}
			e.ParticipantLimit = *req.ParticipantLimit
		}
		if e.State == model.StateCanceled {
			e.State = model.StatePending
		}
		updated = e
		return tx.SaveEvent(ctx, e)
	})
	if err != nil {
		return model.EventFull{}, err
	}
	l.transitioned(ctx, "edited by owner", updated, from)
	return l.listing.enrichOne(ctx, updated)
}

// CancelByOwner cancels a PENDING event.
func (l *Lifecycle) CancelByOwner(ctx context.Context, initiatorID, eventID string) (model.EventFull, error) {
	var updated *model.Event
	err := l.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if err := checkOwner(e, initiatorID); err != nil {
			return err
		}
		if e.State != model.StatePending {
			return apperr.Conflict("only a pending event can be canceled, event %s is %s", e.ID, e.State)
		}
		e.State = model.StateCanceled
		updated = e
		return tx.SaveEvent(ctx, e)
	})
	if err != nil {
		return model.EventFull{}, err
	}
	l.transitioned(ctx, "canceled by owner", updated, model.StatePending)
	return l.listing.enrichOne(ctx, updated)
}

// PublishByAdmin publishes a PENDING event starting more than an hour
// from now.
func (l *Lifecycle) PublishByAdmin(ctx context.Context, eventID string) (model.EventFull, error) {
	var updated *model.Event
	err := l.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if e.State != model.StatePending {
			return apperr.Conflict("only a pending event can be published, event %s is %s", e.ID, e.State)
		}
		now := l.opts.now()
		if err := checkPublishLead(e.EventDate, now); err != nil {
			return err
		}
		e.State = model.StatePublished
		e.PublishedOn = &now
		updated = e
		return tx.SaveEvent(ctx, e)
	})
	if err != nil {
		return model.EventFull{}, err
	}
	l.transitioned(ctx, "published", updated, model.StatePending)
	return l.listing.enrichOne(ctx, updated)
}

// RejectByAdmin cancels a PENDING event.
func (l *Lifecycle) RejectByAdmin(ctx context.Context, eventID string) (model.EventFull, error) {
	var updated *model.Event
	err := l.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if e.State != model.StatePending {
			return apperr.Conflict("only a pending event can be rejected, event %s is %s", e.ID, e.State)
		}
		e.State = model.StateCanceled
		updated = e
		return tx.SaveEvent(ctx, e)
	})
	if err != nil {
		return model.EventFull{}, err
	}
	l.transitioned(ctx, "rejected", updated, model.StatePending)
	return l.listing.enrichOne(ctx, updated)
}

// EditByAdmin patches any event without date or state guards.
func (l *Lifecycle) EditByAdmin(ctx context.Context, eventID string, req model.AdminUpdateEventRequest) (model.EventFull, error) {
	if err := validatePatch(req.Title, req.Annotation, req.Description, req.ParticipantLimit); err != nil {
		return model.EventFull{}, err
	}
	var date time.Time
	if req.EventDate != nil {
		d, err := parseEventDate(*req.EventDate)
		if err != nil {
			return model.EventFull{}, err
		}
		date = d
	}

	var updated *model.Event
	err := l.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if req.Category != nil {
			if _, err := l.directory.Category(ctx, *req.Category); err != nil {
				return err
			}
			e.CategoryID = *req.Category
		}
		if req.EventDate != nil {
			e.EventDate = date
		}
		applyText(&e.Title, req.Title)
		applyText(&e.Annotation, req.Annotation)
		applyText(&e.Description, req.Description)
		if req.Location != nil {
			e.Location = *req.Location
		}
		if req.Paid != nil {
			e.Paid = *req.Paid
		}
		if req.ParticipantLimit != nil {
			if err := checkLimitFits(ctx, tx, *req.ParticipantLimit); err != nil {
				return err
			}
			e.ParticipantLimit = *req.ParticipantLimit
		}
		if req.RequestModeration != nil {
			e.RequestModeration = *req.RequestModeration
		}
		updated = e
		return tx.SaveEvent(ctx, e)
	})
	if err != nil {
		return model.EventFull{}, err
	}
	l.opts.logger.InfoContext(ctx, "event edited by admin", slog.String("event_id", eventID))
	return l.listing.enrichOne(ctx, updated)
}

// OwnerEvents lists the events created by initiatorID.
func (l *Lifecycle) OwnerEvents(ctx context.Context, initiatorID string, page model.Page) ([]model.EventShort, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	if _, err := l.directory.User(ctx, initiatorID); err != nil {
		return nil, err
	}
	events, err := l.events.FindEvents(ctx, model.EventQuery{
		Initiators: []string{initiatorID},
		Page:       &page,
	})
	if err != nil {
		return nil, fmt.Errorf("find owner events: %w", err)
	}
	enriched, err := l.listing.Enrich(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventShort, len(enriched))
	for i, e := range enriched {
		out[i] = e.Event.Short(e.Confirmed, e.Views)
	}
	return out, nil
}

// OwnerEvent returns one of initiatorID's events in full.
func (l *Lifecycle) OwnerEvent(ctx context.Context, initiatorID, eventID string) (model.EventFull, error) {
	e, err := l.events.Event(ctx, eventID)
	if err != nil {
		return model.EventFull{}, err
	}
	if err := checkOwner(e, initiatorID); err != nil {
		return model.EventFull{}, err
	}
	return l.listing.enrichOne(ctx, e)
}

func applyText(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
