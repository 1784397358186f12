package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// Decision is the initial fate of a new participation request.
type Decision int

const (
	AutoConfirm Decision = iota
	RequiresModeration
)

func (d Decision) String() string {
	if d == AutoConfirm {
		return "AutoConfirm"
	}
	return "RequiresModeration"
}

// CheckAdmissible decides whether new requests on e start CONFIRMED or
// PENDING. Capacity is checked separately at creation time.
func CheckAdmissible(e *model.Event) Decision {
	if e.RequestModeration {
		return RequiresModeration
	}
	return AutoConfirm
}

// Admission decides participation requests and keeps the confirmed count
// of every limited event within its participant limit.
type Admission struct {
	events    repository.EventStore
	requests  repository.RequestStore
	directory repository.Directory
	opts      options
}

// NewAdmission constructs an Admission.
func NewAdmission(
	events repository.EventStore,
	requests repository.RequestStore,
	directory repository.Directory,
	opts ...Option,
) *Admission {
	return &Admission{
		events:    events,
		requests:  requests,
		directory: directory,
		opts:      buildOptions(opts),
	}
}

// fillsLimit reports whether confirmed reaching this count exhausts e.
func fillsLimit(e *model.Event, confirmed int) bool {
	return e.Limited() && confirmed >= e.ParticipantLimit
}

// rejectRemaining is the cascade: once the last slot is taken every other
// PENDING request on the event is rejected in the same transaction.
func (a *Admission) rejectRemaining(ctx context.Context, tx repository.EventTx) ([]string, error) {
	ids, err := tx.RejectPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("reject pending requests: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CreateRequest files requesterID's participation request on eventID.
func (a *Admission) CreateRequest(ctx context.Context, requesterID, eventID string) (model.ParticipationRequest, error) {
	if err := requireText("eventId", eventID); err != nil {
		return model.ParticipationRequest{}, err
	}
	if _, err := a.directory.User(ctx, requesterID); err != nil {
		return model.ParticipationRequest{}, err
	}

	var (
		created  model.Request
		rejected []string
	)
	err := a.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()

		existing, err := tx.ActiveRequest(ctx, requesterID)
		switch {
		case err == nil:
			a.opts.metrics.Admission(ctx, "duplicate")
			return apperr.Conflict("user %s already has request %s on event %s", requesterID, existing.ID, eventID)
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("look up active request: %w", err)
		}

		if e.InitiatorID == requesterID {
			return apperr.Forbidden("the initiator cannot request participation in their own event %s", eventID)
		}
		if e.State != model.StatePublished {
			return apperr.Conflict("event %s is %s, requests are accepted only for published events", eventID, e.State)
		}

		confirmed, err := tx.CountConfirmed(ctx)
		if err != nil {
			return fmt.Errorf("count confirmed requests: %w", err)
		}
		if !e.HasRoom(confirmed) {
			a.opts.metrics.Admission(ctx, "full")
			return apperr.Conflict("event %s has reached its participant limit of %d", eventID, e.ParticipantLimit)
		}

		created = model.Request{
			ID:          uuid.NewString(),
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      model.RequestPending,
			Created:     a.opts.now(),
		}
		if CheckAdmissible(e) == AutoConfirm {
			created.Status = model.RequestConfirmed
		}
		if err := tx.InsertRequest(ctx, &created); err != nil {
			return err
		}

		if created.Status == model.RequestConfirmed && fillsLimit(e, confirmed+1) {
			rejected, err = a.rejectRemaining(ctx, tx)
			return err
		}
		return nil
	})
	if err != nil {
		return model.ParticipationRequest{}, err
	}

	a.opts.metrics.Admission(ctx, string(created.Status))
	a.opts.metrics.Cascade(ctx, len(rejected))
	a.opts.logger.InfoContext(ctx, "participation request created",
		slog.String("request_id", created.ID),
		slog.String("event_id", eventID),
		slog.String("requester_id", requesterID),
		slog.String("status", string(created.Status)),
		slog.Int("cascade_rejected", len(rejected)),
	)
	return created.DTO(), nil
}

// Confirm confirms a PENDING request on initiatorID's event. When the
// confirmation takes the last slot, the remaining PENDING requests are
// rejected atomically and listed in the result.
func (a *Admission) Confirm(ctx context.Context, initiatorID, eventID, requestID string) (model.ConfirmResult, error) {
	var (
		confirmed model.Request
		rejected  = []string{}
	)
	err := a.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if err := checkOwner(e, initiatorID); err != nil {
			return err
		}
		r, err := tx.Request(ctx, requestID)
		if err != nil {
			return err
		}
		if r.Status != model.RequestPending {
			return apperr.Conflict("request %s is %s, only pending requests can be confirmed", requestID, r.Status)
		}

		n, err := tx.CountConfirmed(ctx)
		if err != nil {
			return fmt.Errorf("count confirmed requests: %w", err)
		}
		if !e.HasRoom(n) {
			a.opts.metrics.Admission(ctx, "full")
			return apperr.Conflict("event %s has reached its participant limit of %d", eventID, e.ParticipantLimit)
		}

		if err := tx.SetStatus(ctx, requestID, model.RequestConfirmed); err != nil {
			return err
		}
		r.Status = model.RequestConfirmed
		confirmed = *r

		if fillsLimit(e, n+1) {
			rejected, err = a.rejectRemaining(ctx, tx)
			return err
		}
		return nil
	})
	if err != nil {
		return model.ConfirmResult{}, err
	}

	a.opts.metrics.Admission(ctx, string(model.RequestConfirmed))
	a.opts.metrics.Cascade(ctx, len(rejected))
	a.opts.logger.InfoContext(ctx, "participation request confirmed",
		slog.String("request_id", requestID),
		slog.String("event_id", eventID),
		slog.Int("cascade_rejected", len(rejected)),
	)
	return model.ConfirmResult{Request: confirmed.DTO(), Rejected: rejected}, nil
}

// Reject rejects a PENDING request on initiatorID's event.
func (a *Admission) Reject(ctx context.Context, initiatorID, eventID, requestID string) (model.ParticipationRequest, error) {
	var out model.Request
	err := a.events.InTx(ctx, eventID, func(tx repository.EventTx) error {
		if err := checkOwner(tx.Event(), initiatorID); err != nil {
			return err
		}
		r, err := tx.Request(ctx, requestID)
		if err != nil {
			return err
		}
		if r.Status != model.RequestPending {
			return apperr.Conflict("request %s is %s, only pending requests can be rejected", requestID, r.Status)
		}
		if err := tx.SetStatus(ctx, requestID, model.RequestRejected); err != nil {
			return err
		}
		r.Status = model.RequestRejected
		out = *r
		return nil
	})
	if err != nil {
		return model.ParticipationRequest{}, err
	}

	a.opts.metrics.Admission(ctx, string(model.RequestRejected))
	a.opts.logger.InfoContext(ctx, "participation request rejected",
		slog.String("request_id", requestID),
		slog.String("event_id", eventID),
	)
	return out.DTO(), nil
}

// CancelOwn cancels requesterID's request while it is PENDING or
// CONFIRMED. Canceling a confirmed request frees its slot.
func (a *Admission) CancelOwn(ctx context.Context, requesterID, requestID string) (model.ParticipationRequest, error) {
	r, err := a.requests.Request(ctx, requestID)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	if r.RequesterID != requesterID {
		return model.ParticipationRequest{}, apperr.Forbidden("request %s does not belong to user %s", requestID, requesterID)
	}

	var out model.Request
	err = a.events.InTx(ctx, r.EventID, func(tx repository.EventTx) error {
		cur, err := tx.Request(ctx, requestID)
		if err != nil {
			return err
		}
		switch cur.Status {
		case model.RequestPending, model.RequestConfirmed:
		default:
			return apperr.Conflict("request %s is already %s", requestID, cur.Status)
		}
		if err := tx.SetStatus(ctx, requestID, model.RequestCanceled); err != nil {
			return err
		}
		cur.Status = model.RequestCanceled
		out = *cur
		return nil
	})
	if err != nil {
		return model.ParticipationRequest{}, err
	}

	a.opts.metrics.Admission(ctx, string(model.RequestCanceled))
	a.opts.logger.InfoContext(ctx, "participation request canceled",
		slog.String("request_id", requestID),
		slog.String("event_id", out.EventID),
	)
	return out.DTO(), nil
}

// RequesterRequests lists the requests filed by requesterID.
func (a *Admission) RequesterRequests(ctx context.Context, requesterID string) ([]model.ParticipationRequest, error) {
	if _, err := a.directory.User(ctx, requesterID); err != nil {
		return nil, err
	}
	reqs, err := a.requests.RequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests of %s: %w", requesterID, err)
	}
	return toDTOs(reqs), nil
}

// EventRequests lists the requests on initiatorID's event.
func (a *Admission) EventRequests(ctx context.Context, initiatorID, eventID string) ([]model.ParticipationRequest, error) {
	e, err := a.events.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(e, initiatorID); err != nil {
		return nil, err
	}
	reqs, err := a.requests.RequestsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests on %s: %w", eventID, err)
	}
	return toDTOs(reqs), nil
}

func toDTOs(reqs []model.Request) []model.ParticipationRequest {
	out := make([]model.ParticipationRequest, len(reqs))
	for i := range reqs {
		out[i] = reqs[i].DTO()
	}
	return out
}
